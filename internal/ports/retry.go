package ports

import (
	"context"

	"github.com/bnema/arbor-gateway/internal/domain"
)

// RetryScheduler is the boundary to the external job substrate that retries
// commands after transient transport failures.
type RetryScheduler interface {
	ScheduleRetry(ctx context.Context, envelope domain.CommandEnvelope) error
}
