package metrics

import (
	"mercator-hq/rhythm/pkg/config"
	"mercator-hq/rhythm/pkg/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
)

// LimiterMetrics tracks bucket lifecycle and VIP changes.
type LimiterMetrics struct {
	evictionsTotal *prometheus.CounterVec
	vipUpdates     prometheus.Counter
}

// NewLimiterMetrics creates and registers limiter metrics.
func NewLimiterMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LimiterMetrics {
	lm := &LimiterMetrics{
		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evictions_total",
				Help:      "Total number of buckets dropped by reason",
			},
			[]string{"reason"},
		),

		vipUpdates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "vip_updates_total",
				Help:      "Total number of VIP overrides set or removed",
			},
		),
	}

	registry.MustRegister(lm.evictionsTotal, lm.vipUpdates)

	return lm
}

// RecordEviction adds n to the eviction counter for reason.
func (lm *LimiterMetrics) RecordEviction(reason string, n int) {
	lm.evictionsTotal.WithLabelValues(reason).Add(float64(n))
}

// RecordVIPUpdate increments the VIP update counter.
func (lm *LimiterMetrics) RecordVIPUpdate() {
	lm.vipUpdates.Inc()
}

// RegisterStats registers gauge functions backed by stats.
func (lm *LimiterMetrics) RegisterStats(cfg *config.MetricsConfig, registry *prometheus.Registry, stats func() ratelimit.Stats) error {
	buckets := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "buckets",
			Help:      "Current number of live buckets",
		},
		func() float64 { return float64(stats().Buckets) },
	)
	vips := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "vips",
			Help:      "Current number of VIP overrides",
		},
		func() float64 { return float64(stats().VIPs) },
	)

	if err := registry.Register(buckets); err != nil {
		return err
	}
	return registry.Register(vips)
}
