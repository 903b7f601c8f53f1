package config

import "time"

// Locking strategies.
const (
	LockingGlobal  = "global"
	LockingSharded = "sharded"
)

// VIP store backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Default values for configuration fields.
const (
	// Limiter defaults
	DefaultCapacity       = int64(10)
	DefaultRefillRate     = int64(1)
	DefaultRefillInterval = time.Second
	DefaultLocking        = LockingGlobal
	DefaultShards         = 16
	DefaultIdleTTL        = 10 * time.Minute
	DefaultPruneSchedule  = "@every 1m"

	// VIP store defaults
	DefaultVIPStoreBackend   = BackendNone
	DefaultSQLitePath        = "rhythm-vips.db"
	DefaultSQLiteBusyTimeout = 5 * time.Second

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultLoggingRedact      = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "rhythm"
	DefaultMetricsSubsystem   = "limiter"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingService     = "rhythm"
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
	DefaultLivenessPath       = "/healthz"
	DefaultReadinessPath      = "/readyz"
	DefaultHealthCheckTimeout = 2 * time.Second
)

// DefaultDecisionDurationBuckets covers in-process decisions (1µs - 10ms).
var DefaultDecisionDurationBuckets = []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.01}

// Default returns a configuration with every default applied, including the
// boolean fields whose default is true. Loading starts from this value so a
// file only needs to mention what it changes.
func Default() *Config {
	cfg := &Config{}
	cfg.Telemetry.Logging.Redact = DefaultLoggingRedact
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Insecure = DefaultTracingInsecure
	cfg.Limiter.Eviction.IdleTTL = DefaultIdleTTL
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for fields that have zero values.
// It is idempotent.
//
// IdleTTL is not defaulted here because zero is meaningful (pruning off).
func ApplyDefaults(cfg *Config) {
	// Limiter defaults
	if cfg.Limiter.Capacity == 0 {
		cfg.Limiter.Capacity = DefaultCapacity
	}
	if cfg.Limiter.RefillRate == 0 {
		cfg.Limiter.RefillRate = DefaultRefillRate
	}
	if cfg.Limiter.RefillInterval == 0 {
		cfg.Limiter.RefillInterval = DefaultRefillInterval
	}
	if cfg.Limiter.Locking == "" {
		cfg.Limiter.Locking = DefaultLocking
	}
	if cfg.Limiter.Shards == 0 {
		cfg.Limiter.Shards = DefaultShards
	}
	if cfg.Limiter.Eviction.PruneSchedule == "" {
		cfg.Limiter.Eviction.PruneSchedule = DefaultPruneSchedule
	}

	// VIP store defaults
	if cfg.VIPStore.Backend == "" {
		cfg.VIPStore.Backend = DefaultVIPStoreBackend
	}
	if cfg.VIPStore.SQLite.Path == "" {
		cfg.VIPStore.SQLite.Path = DefaultSQLitePath
	}
	if cfg.VIPStore.SQLite.BusyTimeout == 0 {
		cfg.VIPStore.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Logging defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}

	// Metrics defaults
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DecisionDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DecisionDurationBuckets = append([]float64(nil), DefaultDecisionDurationBuckets...)
	}

	// Tracing defaults
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}

	// Health defaults
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
