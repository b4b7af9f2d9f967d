package metrics

import (
	"errors"
	"net/http"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arbor"

type Collector struct {
	decoded       *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	mismatches    prometheus.Counter
	alerts        prometheus.Counter
	rotations     prometheus.Counter
	graceCleared  prometheus.Counter
	transportRuns *prometheus.CounterVec
}

var _ ports.Metrics = (*Collector)(nil)

func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_records_total",
			Help:      "Decoded telemetry records by relay.",
		}, []string{"relay"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_dropped_total",
			Help:      "Dropped sub-records by reason.",
		}, []string{"reason"}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_score_mismatch_total",
			Help:      "Records whose growth score disagrees with the simulation.",
		}),
		alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Anomaly and tamper alerts raised.",
		}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_rotations_total",
			Help:      "Device key rotations.",
		}),
		graceCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_grace_cleared_total",
			Help:      "Grace periods ended.",
		}),
		transportRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_exchanges_total",
			Help:      "Confirmable exchanges by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	for _, collector := range []prometheus.Collector{
		c.decoded, c.dropped, c.mismatches, c.alerts, c.rotations, c.graceCleared, c.transportRuns,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) RecordDecoded(relay string) { c.decoded.WithLabelValues(relay).Inc() }
func (c *Collector) RecordDropped(reason string) { c.dropped.WithLabelValues(reason).Inc() }
func (c *Collector) ScoreMismatch()              { c.mismatches.Inc() }
func (c *Collector) AlertRaised()                { c.alerts.Inc() }
func (c *Collector) KeyRotated()                 { c.rotations.Inc() }
func (c *Collector) GraceCleared()               { c.graceCleared.Inc() }

func (c *Collector) TransportResult(operation string, err error) {
	c.transportRuns.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTransportTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
