package ratelimit

import (
	"errors"
	"fmt"
)

// Sentinel errors for invalid limiter parameters.
var (
	ErrInvalidCapacity       = errors.New("capacity must be positive")
	ErrInvalidRefillRate     = errors.New("refill rate must be positive")
	ErrInvalidRefillInterval = errors.New("refill interval must be positive")
	ErrInvalidShards         = errors.New("shard count must be positive")
	ErrInvalidMaxBuckets     = errors.New("max buckets must be positive")
	ErrKeyTypeMismatch       = errors.New("option key type does not match limiter key type")
)

// ConfigError reports a rejected configuration value.
// Use errors.Is against the sentinel errors to classify it.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
