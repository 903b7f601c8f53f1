package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "limiter.capacity").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any rule fails. All errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLimiter(&cfg.Limiter)...)
	errs = append(errs, validateVIPs(cfg.VIPs)...)
	errs = append(errs, validateVIPStore(&cfg.VIPStore)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateLimiter validates the limiter section.
func validateLimiter(cfg *LimiterConfig) []FieldError {
	var errs []FieldError

	if cfg.Capacity <= 0 {
		errs = append(errs, FieldError{Field: "limiter.capacity", Message: "capacity must be positive"})
	}
	if cfg.RefillRate <= 0 {
		errs = append(errs, FieldError{Field: "limiter.refill_rate", Message: "refill rate must be positive"})
	}
	if cfg.RefillInterval <= 0 {
		errs = append(errs, FieldError{Field: "limiter.refill_interval", Message: "refill interval must be positive"})
	}

	switch cfg.Locking {
	case LockingGlobal, LockingSharded:
	default:
		errs = append(errs, FieldError{
			Field:   "limiter.locking",
			Message: fmt.Sprintf("invalid locking %q (must be %q or %q)", cfg.Locking, LockingGlobal, LockingSharded),
		})
	}
	if cfg.Shards <= 0 {
		errs = append(errs, FieldError{Field: "limiter.shards", Message: "shard count must be positive"})
	}

	if cfg.Eviction.MaxBuckets < 0 {
		errs = append(errs, FieldError{Field: "limiter.eviction.max_buckets", Message: "max buckets must be non-negative"})
	}
	if cfg.Eviction.IdleTTL < 0 {
		errs = append(errs, FieldError{Field: "limiter.eviction.idle_ttl", Message: "idle TTL must be non-negative"})
	}
	if cfg.Eviction.IdleTTL > 0 {
		if _, err := cron.ParseStandard(cfg.Eviction.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "limiter.eviction.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Eviction.PruneSchedule, err),
			})
		}
	}

	return errs
}

// validateVIPs validates the static VIP overrides.
func validateVIPs(vips []VIPConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(vips))

	for i, vip := range vips {
		prefix := fmt.Sprintf("vips[%d]", i)

		if vip.Key == "" {
			errs = append(errs, FieldError{Field: prefix + ".key", Message: "key is required"})
		} else if seen[vip.Key] {
			errs = append(errs, FieldError{Field: prefix + ".key", Message: fmt.Sprintf("duplicate VIP key %q", vip.Key)})
		}
		seen[vip.Key] = true

		if vip.Capacity <= 0 {
			errs = append(errs, FieldError{Field: prefix + ".capacity", Message: "capacity must be positive"})
		}
		if vip.RefillRate <= 0 {
			errs = append(errs, FieldError{Field: prefix + ".refill_rate", Message: "refill rate must be positive"})
		}
	}

	return errs
}

// validateVIPStore validates the VIP store section.
func validateVIPStore(cfg *VIPStoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case BackendNone, BackendMemory:
	case BackendSQLite:
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "vip_store.sqlite.path", Message: "path is required for the sqlite backend"})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{Field: "vip_store.sqlite.busy_timeout", Message: "busy timeout must be non-negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "vip_store.backend",
			Message: fmt.Sprintf("invalid backend %q (must be one of: none, memory, sqlite)", cfg.Backend),
		})
	}

	return errs
}

// validateServer validates the server section.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be non-negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be non-negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be non-negative"})
	}

	return errs
}

// validateTelemetry validates the telemetry section.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be one of: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be one of: json, text, console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "metrics path must start with /"})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio", "parent_ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be one of: always, never, ratio, parent_ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
		}
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0.0 and 1.0"})
	}

	return errs
}
