// Package memory holds in-process collaborators used by the CLI's one-shot
// commands and by tests: a telemetry sink, an alert recorder and a retry queue.
package memory

import (
	"context"
	"sync"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
)

type Sink struct {
	mu      sync.Mutex
	records []domain.TelemetryRecord
	alerts  []domain.TelemetryRecord
}

var (
	_ ports.TelemetrySink  = (*Sink)(nil)
	_ ports.AlertPublisher = (*Sink)(nil)
)

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Store(ctx context.Context, record domain.TelemetryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *Sink) Alert(ctx context.Context, record domain.TelemetryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, record)
	return nil
}

func (s *Sink) Records() []domain.TelemetryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TelemetryRecord(nil), s.records...)
}

func (s *Sink) Alerts() []domain.TelemetryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TelemetryRecord(nil), s.alerts...)
}

// RetryQueue collects commands handed off for a later retry.
type RetryQueue struct {
	mu      sync.Mutex
	pending []domain.CommandEnvelope
}

var _ ports.RetryScheduler = (*RetryQueue)(nil)

func NewRetryQueue() *RetryQueue {
	return &RetryQueue{}
}

func (q *RetryQueue) ScheduleRetry(ctx context.Context, envelope domain.CommandEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, envelope)
	return nil
}

// Drain returns and forgets every pending envelope.
func (q *RetryQueue) Drain() []domain.CommandEnvelope {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
