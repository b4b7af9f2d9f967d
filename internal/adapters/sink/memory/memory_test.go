package memory

import (
	"context"
	"testing"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkKeepsRecordsAndAlertsApart(t *testing.T) {
	sink := NewSink()
	ctx := context.Background()

	require.NoError(t, sink.Store(ctx, domain.TelemetryRecord{DeviceID: 1}))
	require.NoError(t, sink.Store(ctx, domain.TelemetryRecord{DeviceID: 2, Status: domain.StatusAnomaly}))
	require.NoError(t, sink.Alert(ctx, domain.TelemetryRecord{DeviceID: 2, Status: domain.StatusAnomaly}))

	assert.Len(t, sink.Records(), 2)
	require.Len(t, sink.Alerts(), 1)
	assert.Equal(t, domain.DeviceID(2), sink.Alerts()[0].DeviceID)
}

func TestSinkRejectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, NewSink().Store(ctx, domain.TelemetryRecord{}), context.Canceled)
}

func TestRetryQueueDrain(t *testing.T) {
	queue := NewRetryQueue()
	ctx := context.Background()

	require.NoError(t, queue.ScheduleRetry(ctx, domain.CommandEnvelope{ID: "a"}))
	require.NoError(t, queue.ScheduleRetry(ctx, domain.CommandEnvelope{ID: "b"}))
	assert.Equal(t, 2, queue.Len())

	drained := queue.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].ID)
	assert.Equal(t, 0, queue.Len())
}
