package ports

import (
	"context"

	"github.com/bnema/arbor-gateway/internal/domain"
)

type TelemetrySink interface {
	Store(ctx context.Context, record domain.TelemetryRecord) error
}

type AlertPublisher interface {
	Alert(ctx context.Context, record domain.TelemetryRecord) error
}
