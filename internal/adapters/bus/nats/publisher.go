package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
	"github.com/fxamacker/cbor/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	TelemetrySubjectPrefix = "arbor.telemetry"
	AlertSubjectPrefix     = "arbor.alerts"
	clientName             = "arbor-gateway"
)

// Event is the message body published for every record. It is encoded as
// deterministic CBOR so identical records produce identical bytes.
type Event struct {
	Record     domain.TelemetryRecord `cbor:"1,keyasint"`
	ObservedAt int64                  `cbor:"2,keyasint"`
	Alert      bool                   `cbor:"3,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("nats: cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("nats: cbor decoder: %v", err))
	}
}

func EncodeEvent(event Event) ([]byte, error) {
	return encMode.Marshal(event)
}

func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := decMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

func TelemetrySubject(relay string) string {
	return TelemetrySubjectPrefix + "." + subjectToken(relay)
}

func AlertSubject(id domain.DeviceID) string {
	return AlertSubjectPrefix + "." + id.String()
}

// subjectToken keeps relay names from introducing extra subject levels or
// wildcards.
func subjectToken(raw string) string {
	if raw == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, raw)
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher is both the telemetry sink and the alert publisher.
type Publisher struct {
	nc    conn
	close func()
	clock ports.Clock
}

var (
	_ ports.TelemetrySink  = (*Publisher)(nil)
	_ ports.AlertPublisher = (*Publisher)(nil)
)

func Connect(url string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &Publisher{
		nc: nc,
		close: func() {
			_ = nc.Drain()
			nc.Close()
		},
		clock: ports.SystemClock{},
	}, nil
}

func (p *Publisher) Store(ctx context.Context, record domain.TelemetryRecord) error {
	return p.publish(ctx, TelemetrySubject(record.RelayID), Event{Record: record})
}

func (p *Publisher) Alert(ctx context.Context, record domain.TelemetryRecord) error {
	return p.publish(ctx, AlertSubject(record.DeviceID), Event{Record: record, Alert: true})
}

func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}

func (p *Publisher) publish(ctx context.Context, subject string, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.nc == nil {
		return errors.New("nats not connected")
	}

	event.ObservedAt = p.clock.Now().UnixMilli()
	data, err := EncodeEvent(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
