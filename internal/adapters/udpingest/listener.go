package udpingest

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
)

const maxDatagram = 65535

// Handler receives one batch with the relay identity already resolved.
type Handler func(ctx context.Context, relay string, batch []byte) error

// Listener is the inbound entrypoint for relay batches. Datagrams are handled
// one at a time in arrival order.
type Listener struct {
	conn    net.PacketConn
	relays  map[string]string
	handler Handler
	logger  *zap.Logger
}

func Listen(addr string, relays map[string]string, handler Handler, logger *zap.Logger) (*Listener, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return NewListener(conn, relays, handler, logger), nil
}

func NewListener(conn net.PacketConn, relays map[string]string, handler Handler, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{conn: conn, relays: relays, handler: handler, logger: logger}
}

func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

func (l *Listener) Close() error {
	return l.conn.Close()
}

// Serve reads until ctx is done or the socket fails. Handler errors are
// logged and never stop the loop.
func (l *Listener) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = l.conn.Close() })
	defer stop()
	defer l.conn.Close()

	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read datagram: %w", err)
		}

		relay := l.Resolve(addr)
		batch := append([]byte(nil), buf[:n]...)
		if err := l.handler(ctx, relay, batch); err != nil {
			l.logger.Warn("batch handling failed", zap.String("relay", relay), zap.Error(err))
		}
	}
}

// Resolve maps a sender to its relay id: an exact host:port entry wins over a
// host-only entry, and unknown senders are identified by their host.
func (l *Listener) Resolve(addr net.Addr) string {
	full := addr.String()
	if relay, ok := l.relays[full]; ok {
		return relay
	}
	host, _, err := net.SplitHostPort(full)
	if err != nil {
		return full
	}
	if relay, ok := l.relays[host]; ok {
		return relay
	}
	return host
}
