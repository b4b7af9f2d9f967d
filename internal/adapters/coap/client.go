package coap

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
	"github.com/bnema/arbor-gateway/internal/wire"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 7 * time.Second

	maxDatagram = 1152
)

// Client performs single confirmable PUT exchanges. Each exchange owns its
// socket and closes it on return, so an ACK arriving after the deadline is
// never read.
type Client struct {
	dialer      net.Dialer
	nextID      func() uint16
	defaultPort int
	logger      *zap.Logger
}

var _ ports.Transport = (*Client)(nil)

type Option func(*Client)

func WithMessageIDs(next func() uint16) Option {
	return func(c *Client) { c.nextID = next }
}

// WithDefaultPort sets the port used for URLs that do not name one.
func WithDefaultPort(port int) Option {
	return func(c *Client) {
		if port > 0 {
			c.defaultPort = port
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		nextID:      func() uint16 { return uint16(rand.Uint32()) },
		defaultPort: wire.DefaultPort,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Put(ctx context.Context, rawURL string, payload []byte, timeout time.Duration) (ports.Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	target, err := wire.ParseTargetPort(rawURL, c.defaultPort)
	if err != nil {
		return ports.Response{}, err
	}

	request := wire.Message{
		Type:      wire.TypeConfirmable,
		Code:      wire.CodePut,
		MessageID: c.nextID(),
		Options:   target.Options,
		Payload:   payload,
	}
	datagram, err := request.Marshal()
	if err != nil {
		return ports.Response{}, fmt.Errorf("encode request: %w", err)
	}

	conn, err := c.dialer.DialContext(ctx, "udp", target.Addr)
	if err != nil {
		return ports.Response{}, fmt.Errorf("dial %s: %w", target.Addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return ports.Response{}, fmt.Errorf("set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	log := c.logger.With(zap.String("addr", target.Addr), zap.Uint16("message_id", request.MessageID))
	if _, err := conn.Write(datagram); err != nil {
		return ports.Response{}, fmt.Errorf("send to %s: %w", target.Addr, err)
	}
	log.Debug("request sent", zap.Int("bytes", len(datagram)))

	buf := make([]byte, maxDatagram)
	n, err := conn.Read(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return ports.Response{}, fmt.Errorf("await ack from %s: %w", target.Addr, errors.Join(domain.ErrTransportTimeout, ctxErr))
			}
			return ports.Response{}, fmt.Errorf("await ack from %s: %w", target.Addr, ctxErr)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ports.Response{}, fmt.Errorf("await ack from %s: %w", target.Addr, domain.ErrTransportTimeout)
		}
		return ports.Response{}, fmt.Errorf("await ack from %s: %w", target.Addr, err)
	}

	response, err := wire.Unmarshal(buf[:n])
	if err != nil {
		return ports.Response{}, fmt.Errorf("decode ack from %s: %w", target.Addr, errors.Join(domain.ErrMalformedResponse, err))
	}
	if response.Type != wire.TypeAcknowledgment {
		return ports.Response{}, fmt.Errorf("ack from %s has type %s: %w", target.Addr, response.Type, domain.ErrMalformedResponse)
	}
	if response.MessageID != request.MessageID {
		return ports.Response{}, fmt.Errorf("ack from %s has id %d, want %d: %w", target.Addr, response.MessageID, request.MessageID, domain.ErrMalformedResponse)
	}

	log.Debug("ack received", zap.Stringer("code", response.Code))
	return ports.Response{
		Success: response.Code.Success(),
		Code:    uint8(response.Code),
		Payload: response.Payload,
	}, nil
}
