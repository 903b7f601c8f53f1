package config

import (
	"time"

	"mercator-hq/rhythm/pkg/ratelimit"
)

// Config is the root configuration structure for rhythm.
type Config struct {
	// Limiter contains the default bucket parameters, the locking strategy
	// and growth control.
	Limiter LimiterConfig `yaml:"limiter"`

	// VIPs lists per-key overrides applied at startup and on reload.
	VIPs []VIPConfig `yaml:"vips"`

	// VIPStore selects where overrides set at runtime are persisted.
	VIPStore VIPStoreConfig `yaml:"vip_store"`

	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging, metrics, tracing and health configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch enables hot reload of VIP overrides from the configuration file.
	Watch bool `yaml:"watch"`
}

// LimiterConfig contains the default limiter parameters.
type LimiterConfig struct {
	// Capacity is the default bucket size.
	// Default: 10
	Capacity int64 `yaml:"capacity"`

	// RefillRate is the number of tokens credited per refill interval.
	// Default: 1
	RefillRate int64 `yaml:"refill_rate"`

	// RefillInterval is the refill period shared by all keys.
	// Default: 1s
	RefillInterval time.Duration `yaml:"refill_interval"`

	// Locking selects the table implementation.
	// Options: "global", "sharded"
	// Default: "global"
	Locking string `yaml:"locking"`

	// Shards is the shard count when Locking is "sharded".
	// Default: 16
	Shards int `yaml:"shards"`

	// Eviction bounds memory used by buckets.
	Eviction EvictionConfig `yaml:"eviction"`
}

// EvictionConfig contains bucket growth control settings.
type EvictionConfig struct {
	// MaxBuckets caps live buckets with LRU eviction (0 = unbounded).
	// Default: 0
	MaxBuckets int `yaml:"max_buckets"`

	// IdleTTL is the age after which an unused bucket is pruned (0 = never).
	// Default: 10m
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// PruneSchedule is the cron expression for pruning runs.
	// Accepts standard 5-field expressions and descriptors like "@every 1m".
	// Default: "@every 1m"
	PruneSchedule string `yaml:"prune_schedule"`
}

// VIPConfig is a single per-key override.
type VIPConfig struct {
	Key        string `yaml:"key"`
	Capacity   int64  `yaml:"capacity"`
	RefillRate int64  `yaml:"refill_rate"`
}

// VIPStoreConfig selects the durable VIP registry.
type VIPStoreConfig struct {
	// Backend is the store type.
	// Options: "none", "memory", "sqlite"
	// Default: "none"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite store settings.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "rhythm-vips.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// ListenAddress is the host:port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 5s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health  HealthConfig  `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// Redact masks IP addresses and credentials in logs.
	// Default: true
	Redact bool `yaml:"redact_keys"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "rhythm"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "limiter"
	Subsystem string `yaml:"subsystem"`

	// DecisionDurationBuckets defines histogram buckets for decision latency (seconds).
	DecisionDurationBuckets []float64 `yaml:"decision_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio", "parent_ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "rhythm"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the export timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe.
	// Default: "/healthz"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe.
	// Default: "/readyz"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout bounds each readiness check.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// RateLimit converts the limiter section into limiter defaults.
func (c LimiterConfig) RateLimit() ratelimit.Config {
	return ratelimit.Config{
		Capacity:       c.Capacity,
		RefillRate:     c.RefillRate,
		RefillInterval: c.RefillInterval,
	}
}

// Options converts locking and eviction settings into limiter options.
func (c LimiterConfig) Options() []ratelimit.Option {
	var opts []ratelimit.Option
	if c.Locking == LockingSharded {
		opts = append(opts, ratelimit.WithShards(c.Shards))
	}
	if c.Eviction.MaxBuckets > 0 {
		opts = append(opts, ratelimit.WithMaxBuckets(c.Eviction.MaxBuckets))
	}
	return opts
}
