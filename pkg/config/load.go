package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "RHYTHM_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML on top of Default and applies defaults. It does not
// validate. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RHYTHM_SECTION_FIELD (e.g., RHYTHM_SERVER_LISTEN_ADDRESS) and
// always take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed values are reported together rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	env := &envReader{}

	// Limiter overrides
	env.int64("LIMITER_CAPACITY", &cfg.Limiter.Capacity)
	env.int64("LIMITER_REFILL_RATE", &cfg.Limiter.RefillRate)
	env.duration("LIMITER_REFILL_INTERVAL", &cfg.Limiter.RefillInterval)
	env.string("LIMITER_LOCKING", &cfg.Limiter.Locking)
	env.int("LIMITER_SHARDS", &cfg.Limiter.Shards)
	env.int("LIMITER_EVICTION_MAX_BUCKETS", &cfg.Limiter.Eviction.MaxBuckets)
	env.duration("LIMITER_EVICTION_IDLE_TTL", &cfg.Limiter.Eviction.IdleTTL)
	env.string("LIMITER_EVICTION_PRUNE_SCHEDULE", &cfg.Limiter.Eviction.PruneSchedule)

	// VIP store overrides
	env.string("VIP_STORE_BACKEND", &cfg.VIPStore.Backend)
	env.string("VIP_STORE_SQLITE_PATH", &cfg.VIPStore.SQLite.Path)

	// Server overrides
	env.string("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	env.duration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	env.duration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	env.duration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Telemetry overrides
	env.string("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	env.string("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	env.bool("TELEMETRY_LOGGING_REDACT_KEYS", &cfg.Telemetry.Logging.Redact)
	env.bool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	env.string("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	env.bool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	env.string("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	env.string("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	env.float64("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	env.bool("WATCH", &cfg.Watch)

	if len(env.errs) > 0 {
		return ValidationError{Errors: env.errs}
	}
	return nil
}

// envReader reads RHYTHM_ variables into typed fields, collecting parse errors.
type envReader struct {
	errs []FieldError
}

func (r *envReader) lookup(name string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	return val, ok && val != ""
}

func (r *envReader) fail(name, val string, err error) {
	r.errs = append(r.errs, FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("invalid value %q: %v", val, err),
	})
}

func (r *envReader) string(name string, dst *string) {
	if val, ok := r.lookup(name); ok {
		*dst = val
	}
}

func (r *envReader) int(name string, dst *int) {
	if val, ok := r.lookup(name); ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = i
	}
}

func (r *envReader) int64(name string, dst *int64) {
	if val, ok := r.lookup(name); ok {
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = i
	}
}

func (r *envReader) float64(name string, dst *float64) {
	if val, ok := r.lookup(name); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = f
	}
}

func (r *envReader) bool(name string, dst *bool) {
	if val, ok := r.lookup(name); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = b
	}
}

func (r *envReader) duration(name string, dst *time.Duration) {
	if val, ok := r.lookup(name); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = d
	}
}
