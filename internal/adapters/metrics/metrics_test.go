package metrics

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.RecordDecoded("north")
	c.RecordDecoded("north")
	c.RecordDropped("decryption_failure")
	c.ScoreMismatch()
	c.AlertRaised()
	c.KeyRotated()
	c.GraceCleared()
	c.TransportResult("command", nil)
	c.TransportResult("command", fmt.Errorf("send: %w", domain.ErrTransportTimeout))
	c.TransportResult("firmware", domain.ErrMalformedResponse)
	c.TransportResult("firmware", errors.New("boom"))

	body := scrape(t, reg)
	assert.Contains(t, body, `arbor_telemetry_records_total{relay="north"} 2`)
	assert.Contains(t, body, `arbor_telemetry_dropped_total{reason="decryption_failure"} 1`)
	assert.Contains(t, body, "arbor_telemetry_score_mismatch_total 1")
	assert.Contains(t, body, "arbor_alerts_total 1")
	assert.Contains(t, body, "arbor_key_rotations_total 1")
	assert.Contains(t, body, "arbor_key_grace_cleared_total 1")
	assert.Contains(t, body, `arbor_transport_exchanges_total{operation="command",outcome="ok"} 1`)
	assert.Contains(t, body, `arbor_transport_exchanges_total{operation="command",outcome="timeout"} 1`)
	assert.Contains(t, body, `arbor_transport_exchanges_total{operation="firmware",outcome="malformed"} 1`)
	assert.Contains(t, body, `arbor_transport_exchanges_total{operation="firmware",outcome="error"} 1`)
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.Error(t, err)
}
