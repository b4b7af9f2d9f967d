package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
	"go.uber.org/zap"
)

type IngestReport struct {
	Relay       string
	Decoded     int
	Dropped     int
	Alerts      int
	Unverified  int
	Diagnostics []Diagnostic
	Records     []domain.TelemetryRecord
}

// IngestService is the boundary between a relay's batch and the persistence
// and alerting collaborators.
type IngestService struct {
	decoder *Decoder
	sink    ports.TelemetrySink
	alerts  ports.AlertPublisher
	logger  *zap.Logger
	metrics ports.Metrics
}

func NewIngestService(decoder *Decoder, sink ports.TelemetrySink, alerts ports.AlertPublisher, logger *zap.Logger, metrics ports.Metrics) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &IngestService{decoder: decoder, sink: sink, alerts: alerts, logger: logger, metrics: metrics}
}

// Ingest decodes a batch and forwards every record. Sink and alert failures
// are collected and returned after the whole batch has been processed.
func (s *IngestService) Ingest(ctx context.Context, relay string, batch []byte) (IngestReport, error) {
	result := s.decoder.Decode(ctx, batch)
	report := IngestReport{
		Relay:       relay,
		Decoded:     len(result.Records),
		Dropped:     len(result.Diagnostics),
		Diagnostics: result.Diagnostics,
	}

	log := s.logger.With(zap.String("relay", relay))
	for _, diag := range result.Diagnostics {
		s.metrics.RecordDropped(diag.Reason())
		log.Warn("sub-record dropped",
			zap.Int("index", diag.Index),
			zap.Stringer("device", diag.DeviceID),
			zap.String("reason", diag.Reason()),
		)
	}
	for _, err := range result.GraceErrors {
		log.Warn("confirm current key", zap.Error(err))
	}

	var errs []error
	for _, record := range result.Records {
		record.RelayID = relay
		report.Records = append(report.Records, record)
		s.metrics.RecordDecoded(relay)

		if !record.Tamper && !record.ScoreVerified {
			report.Unverified++
			s.metrics.ScoreMismatch()
			log.Warn("growth score does not match simulation", zap.Stringer("device", record.DeviceID))
		}

		if err := s.sink.Store(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("store telemetry for %s: %w", record.DeviceID, err))
		}

		if !record.NeedsAlert() {
			continue
		}
		report.Alerts++
		s.metrics.AlertRaised()
		log.Warn("alert raised",
			zap.Stringer("device", record.DeviceID),
			zap.Stringer("status", record.Status),
			zap.Bool("tamper", record.Tamper),
		)
		if err := s.alerts.Alert(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("publish alert for %s: %w", record.DeviceID, err))
		}
	}

	return report, errors.Join(errs...)
}
