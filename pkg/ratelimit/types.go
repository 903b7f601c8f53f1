package ratelimit

import "time"

// Config holds the default bucket parameters of a limiter.
type Config struct {
	// Capacity is the maximum number of tokens a bucket holds (burst size).
	Capacity int64

	// RefillRate is the number of tokens credited per elapsed RefillInterval.
	RefillRate int64

	// RefillInterval is the refill period shared by every bucket, VIP or not.
	RefillInterval time.Duration
}

// Validate checks that every parameter is positive.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "capacity", Value: c.Capacity, Err: ErrInvalidCapacity}
	}
	if c.RefillRate <= 0 {
		return &ConfigError{Field: "refill_rate", Value: c.RefillRate, Err: ErrInvalidRefillRate}
	}
	if c.RefillInterval <= 0 {
		return &ConfigError{Field: "refill_interval", Value: c.RefillInterval, Err: ErrInvalidRefillInterval}
	}
	return nil
}

// VipConfig overrides capacity and refill rate for a single key.
type VipConfig struct {
	Capacity   int64 `json:"capacity"`
	RefillRate int64 `json:"refill_rate"`
}

// Validate checks that both values are positive.
func (v VipConfig) Validate() error {
	if v.Capacity <= 0 {
		return &ConfigError{Field: "capacity", Value: v.Capacity, Err: ErrInvalidCapacity}
	}
	if v.RefillRate <= 0 {
		return &ConfigError{Field: "refill_rate", Value: v.RefillRate, Err: ErrInvalidRefillRate}
	}
	return nil
}

// BucketSnapshot is a point-in-time copy of a bucket's state.
type BucketSnapshot struct {
	Tokens         int64         `json:"tokens"`
	Capacity       int64         `json:"capacity"`
	RefillRate     int64         `json:"refill_rate"`
	RefillInterval time.Duration `json:"refill_interval"`
	LastRefill     time.Time     `json:"last_refill"`
	LastSeen       time.Time     `json:"last_seen"`
	Created        time.Time     `json:"created"`
	Allowed        uint64        `json:"allowed"`
	Denied         uint64        `json:"denied"`
}

// Decision is the outcome of a single request.
type Decision struct {
	// Allowed reports whether a token was consumed.
	Allowed bool `json:"allowed"`

	// Remaining is the token count left right after the decision.
	Remaining int64 `json:"remaining"`

	// RetryAfter is the time until the next refill. Zero when allowed.
	RetryAfter time.Duration `json:"retry_after"`
}

// Stats aggregates limiter-wide counters.
type Stats struct {
	// Allowed is the number of admitted requests since construction.
	Allowed uint64 `json:"allowed"`

	// Denied is the number of refused requests since construction.
	Denied uint64 `json:"denied"`

	// Buckets is the number of live buckets.
	Buckets int `json:"buckets"`

	// VIPs is the number of registered VIP overrides.
	VIPs int `json:"vips"`
}
