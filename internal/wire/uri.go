package wire

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	Scheme      = "coap"
	DefaultPort = 5683
)

// Target is a parsed request URL: where to send the datagram and which
// options describe the resource.
type Target struct {
	Addr    string
	Options []Option
}

// ParseTarget converts coap://host[:port]/a/b?k=v into a dial address plus
// Uri-Path and Uri-Query options. Query parameters keep their written order.
func ParseTarget(raw string) (Target, error) {
	return ParseTargetPort(raw, DefaultPort)
}

// ParseTargetPort is ParseTarget with a deployment-specific default port.
func ParseTargetPort(raw string, defaultPort int) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != Scheme {
		return Target{}, fmt.Errorf("parse url %q: scheme must be %q", raw, Scheme)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("parse url %q: host is required", raw)
	}

	port := u.Port()
	if port == "" {
		port = strconv.Itoa(defaultPort)
	}

	target := Target{Addr: net.JoinHostPort(u.Hostname(), port)}
	for _, segment := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if segment == "" {
			continue
		}
		target.Options = append(target.Options, Option{Number: OptionURIPath, Value: []byte(segment)})
	}
	if u.RawQuery != "" {
		for _, param := range strings.Split(u.RawQuery, "&") {
			if param == "" {
				continue
			}
			value, err := url.QueryUnescape(param)
			if err != nil {
				return Target{}, fmt.Errorf("parse url %q: %w", raw, err)
			}
			target.Options = append(target.Options, Option{Number: OptionURIQuery, Value: []byte(value)})
		}
	}
	return target, nil
}

// WithQuery appends a key=value query parameter to a URL string.
func WithQuery(raw, key, value string) string {
	separator := "?"
	if strings.Contains(raw, "?") {
		separator = "&"
	}
	return raw + separator + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}
