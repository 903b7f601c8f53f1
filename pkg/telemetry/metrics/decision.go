package metrics

import (
	"time"

	"mercator-hq/rhythm/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Decision results used as the "result" label.
const (
	ResultAllowed = "allowed"
	ResultDenied  = "denied"
)

// DecisionMetrics tracks limiter decisions.
type DecisionMetrics struct {
	requestsTotal    *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
}

// NewDecisionMetrics creates and registers decision metrics.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of rate limit decisions",
			},
			[]string{"result"},
		),

		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_duration_seconds",
				Help:      "Time spent deciding a request in seconds",
				Buckets:   cfg.DecisionDurationBuckets,
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(dm.requestsTotal, dm.decisionDuration)

	// Pre-create both label values so they are exported as zero.
	for _, r := range []string{ResultAllowed, ResultDenied} {
		dm.requestsTotal.WithLabelValues(r)
	}

	return dm
}

// Record records one decision.
func (dm *DecisionMetrics) Record(allowed bool, took time.Duration) {
	result := ResultDenied
	if allowed {
		result = ResultAllowed
	}
	dm.requestsTotal.WithLabelValues(result).Inc()
	dm.decisionDuration.WithLabelValues(result).Observe(took.Seconds())
}
