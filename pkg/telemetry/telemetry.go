package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"mercator-hq/rhythm/pkg/config"
	"mercator-hq/rhythm/pkg/telemetry/health"
	"mercator-hq/rhythm/pkg/telemetry/logging"
	"mercator-hq/rhythm/pkg/telemetry/metrics"
	"mercator-hq/rhythm/pkg/telemetry/tracing"
)

// Telemetry owns the logger, metrics collector, tracer and health checker.
type Telemetry struct {
	config  *config.TelemetryConfig
	logger  *logging.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	health  *health.Checker
}

// Option customizes New.
type Option func(*options)

type options struct {
	logWriter io.Writer
}

// WithLogWriter sends log output to w instead of stdout.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// New builds every component from cfg.
func New(cfg *config.TelemetryConfig, opts ...Option) (*Telemetry, error) {
	if cfg == nil {
		return nil, errors.New("telemetry config is nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logCfg := logging.FromConfig(cfg.Logging)
	logCfg.Writer = o.logWriter
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		config:  cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Metrics, nil),
		tracer:  tracer,
		health:  health.New(cfg.Health.CheckTimeout),
	}, nil
}

// Logger returns the application logger.
func (t *Telemetry) Logger() *logging.Logger { return t.logger }

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Tracer returns the tracer.
func (t *Telemetry) Tracer() *tracing.Tracer { return t.tracer }

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// Config returns the telemetry configuration.
func (t *Telemetry) Config() *config.TelemetryConfig { return t.config }

// Shutdown flushes the tracer.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.tracer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer: %w", err)
	}
	return nil
}
