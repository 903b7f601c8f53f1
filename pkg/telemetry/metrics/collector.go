package metrics

import (
	"time"

	"mercator-hq/rhythm/pkg/config"
	"mercator-hq/rhythm/pkg/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns every rhythm metric and implements ratelimit.Observer.
//
// A disabled collector (MetricsConfig.Enabled == false) accepts all calls
// and records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	decisionMetrics *DecisionMetrics
	limiterMetrics  *LimiterMetrics
	httpMetrics     *HTTPMetrics
}

var _ ratelimit.Observer = (*Collector)(nil)

// NewCollector creates a collector registering into registry. If registry
// is nil a new one is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DecisionDurationBuckets) == 0 {
		cfg.DecisionDurationBuckets = append([]float64(nil), config.DefaultDecisionDurationBuckets...)
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		decisionMetrics: NewDecisionMetrics(cfg, registry),
		limiterMetrics:  NewLimiterMetrics(cfg, registry),
		httpMetrics:     NewHTTPMetrics(cfg, registry),
	}
}

// ObserveRequest records one limiter decision.
func (c *Collector) ObserveRequest(allowed bool, took time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.Record(allowed, took)
}

// ObserveEviction records n buckets dropped for reason.
func (c *Collector) ObserveEviction(reason string, n int) {
	if !c.config.Enabled || n <= 0 {
		return
	}
	c.limiterMetrics.RecordEviction(reason, n)
}

// ObserveVIPUpdate records a VIP override change.
func (c *Collector) ObserveVIPUpdate() {
	if !c.config.Enabled {
		return
	}
	c.limiterMetrics.RecordVIPUpdate()
}

// ObserveHTTP records a served HTTP request. route is the router pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveHTTP(method, route string, status int, took time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.Record(method, route, status, took)
}

// RegisterStats exports bucket and VIP counts read from stats at scrape time.
func (c *Collector) RegisterStats(stats func() ratelimit.Stats) error {
	return c.limiterMetrics.RegisterStats(c.config, c.registry, stats)
}

// RegisterRuntime adds the Go runtime and process collectors.
func (c *Collector) RegisterRuntime() error {
	if err := c.registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	return c.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
