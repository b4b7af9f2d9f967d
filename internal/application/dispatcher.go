package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/arbor-gateway/internal/blockcipher"
	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultTransportTimeout = 7 * time.Second

// CommandKeys is the dispatcher's view of the key store.
type CommandKeys interface {
	ActiveKeys(ctx context.Context, id domain.DeviceID) (domain.KeySet, error)
	PendingKeyUpdate(ctx context.Context, id domain.DeviceID) (domain.KeySet, error)
}

type CommandRequest struct {
	Device   domain.DeviceID
	Code     string
	Duration time.Duration
	// Target defaults to the device id.
	Target   string
	Key      domain.KeyChoice
	Endpoint string
}

type Dispatcher struct {
	keys      CommandKeys
	transport ports.Transport
	retry     ports.RetryScheduler
	clock     ports.Clock
	timeout   time.Duration
	newID     func() string
	logger    *zap.Logger
	metrics   ports.Metrics
}

type DispatcherOption func(*Dispatcher)

func WithDispatchTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithCommandIDs(newID func() string) DispatcherOption {
	return func(d *Dispatcher) { d.newID = newID }
}

func WithDispatchLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithDispatchMetrics(m ports.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

func NewDispatcher(keys CommandKeys, transport ports.Transport, retry ports.RetryScheduler, clock ports.Clock, opts ...DispatcherOption) *Dispatcher {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	d := &Dispatcher{
		keys:      keys,
		transport: transport,
		retry:     retry,
		clock:     clock,
		timeout:   DefaultTransportTimeout,
		newID:     uuid.NewString,
		logger:    zap.NewNop(),
		metrics:   ports.NopMetrics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CommandPlaintext renders CMD:<code>:<duration_seconds>:<target>.
func CommandPlaintext(code string, duration time.Duration, target string) string {
	return fmt.Sprintf("CMD:%s:%d:%s", code, int64(duration/time.Second), target)
}

// KeyUpdatePlaintext renders KEY:<target>:<hex key>.
func KeyUpdatePlaintext(target string, key domain.Key) string {
	return "KEY:" + target + ":" + key.Hex()
}

// Dispatch encrypts and sends one command. The returned envelope reflects the
// final lifecycle state even when an error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req CommandRequest) (domain.CommandEnvelope, error) {
	choice := req.Key
	if choice == "" {
		choice = domain.KeyCurrent
	}
	target := req.Target
	if target == "" {
		target = req.Device.String()
	}
	envelope := d.issue(req.Device, req.Code, req.Duration, choice, req.Endpoint)

	if err := validateField("code", req.Code); err != nil {
		return d.fail(&envelope, err)
	}
	if err := validateField("target", target); err != nil {
		return d.fail(&envelope, err)
	}
	if req.Duration < 0 {
		return d.fail(&envelope, fmt.Errorf("duration must not be negative"))
	}

	set, err := d.keys.ActiveKeys(ctx, req.Device)
	if err != nil {
		return d.fail(&envelope, fmt.Errorf("load keys: %w", err))
	}
	key := set.Current
	if choice == domain.KeyPrevious {
		if set.Previous == nil {
			return d.fail(&envelope, fmt.Errorf("select key for %s: %w", req.Device, domain.ErrNoPreviousKey))
		}
		key = *set.Previous
	}

	return d.send(ctx, &envelope, key, CommandPlaintext(req.Code, req.Duration, target))
}

// SendKeyUpdate rotates the device and delivers the new key encrypted under the
// key the device still holds. Both keys stay valid until the device's first
// packet under the new key confirms the switch. A call made during an open
// grace period resends the pending key instead of rotating again.
func (d *Dispatcher) SendKeyUpdate(ctx context.Context, device domain.DeviceID, endpoint string) (domain.CommandEnvelope, error) {
	envelope := d.issue(device, "KEY", 0, domain.KeyPrevious, endpoint)

	set, err := d.keys.PendingKeyUpdate(ctx, device)
	if err != nil {
		return d.fail(&envelope, fmt.Errorf("rotate keys: %w", err))
	}
	if set.Previous == nil {
		return d.fail(&envelope, fmt.Errorf("select key for %s: %w", device, domain.ErrNoPreviousKey))
	}

	return d.send(ctx, &envelope, *set.Previous, KeyUpdatePlaintext(device.String(), set.Current))
}

func (d *Dispatcher) issue(device domain.DeviceID, code string, duration time.Duration, choice domain.KeyChoice, endpoint string) domain.CommandEnvelope {
	now := d.clock.Now()
	return domain.CommandEnvelope{
		ID:        d.newID(),
		DeviceID:  device,
		Code:      code,
		Duration:  duration,
		Key:       choice,
		Endpoint:  endpoint,
		Status:    domain.CommandIssued,
		IssuedAt:  now,
		UpdatedAt: now,
	}
}

func (d *Dispatcher) send(ctx context.Context, envelope *domain.CommandEnvelope, key domain.Key, plaintext string) (domain.CommandEnvelope, error) {
	ciphertext, err := blockcipher.EncryptPadded(key, []byte(plaintext))
	if err != nil {
		return d.fail(envelope, fmt.Errorf("encrypt command: %w", err))
	}

	if err := envelope.Advance(domain.CommandSent, d.clock.Now()); err != nil {
		return *envelope, err
	}

	log := d.logger.With(zap.String("command_id", envelope.ID), zap.Stringer("device", envelope.DeviceID))
	response, err := d.transport.Put(ctx, envelope.Endpoint, ciphertext, d.timeout)
	d.metrics.TransportResult("command", err)
	if err != nil {
		sendErr := fmt.Errorf("send command %s: %w", envelope.ID, err)
		result, failErr := d.fail(envelope, sendErr)
		if errors.Is(err, domain.ErrTransportTimeout) && !errors.Is(err, context.Canceled) && d.retry != nil {
			if retryErr := d.retry.ScheduleRetry(ctx, result); retryErr != nil {
				failErr = errors.Join(failErr, fmt.Errorf("schedule retry: %w", retryErr))
			} else {
				log.Info("command retry scheduled")
			}
		}
		return result, failErr
	}

	envelope.AckCode = response.Code
	if !response.Success {
		return d.fail(envelope, fmt.Errorf("send command %s: code %d: %w", envelope.ID, response.Code, domain.ErrRejected))
	}

	if err := envelope.Advance(domain.CommandAcknowledged, d.clock.Now()); err != nil {
		return *envelope, err
	}
	log.Info("command acknowledged", zap.Uint8("code", response.Code))
	return *envelope, nil
}

func (d *Dispatcher) fail(envelope *domain.CommandEnvelope, err error) (domain.CommandEnvelope, error) {
	envelope.LastError = err.Error()
	if advanceErr := envelope.Advance(domain.CommandFailed, d.clock.Now()); advanceErr != nil {
		return *envelope, errors.Join(err, advanceErr)
	}
	d.logger.Warn("command failed",
		zap.String("command_id", envelope.ID),
		zap.Stringer("device", envelope.DeviceID),
		zap.Error(err),
	)
	return *envelope, err
}

func validateField(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	if strings.Contains(value, ":") {
		return fmt.Errorf("%s must not contain ':'", name)
	}
	return nil
}
