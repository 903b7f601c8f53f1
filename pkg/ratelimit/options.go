package ratelimit

import (
	"log/slog"
	"time"
)

// Option configures a RateLimiter.
type Option func(*options)

type options struct {
	now        func() time.Time
	table      any
	shards     int
	evictor    any
	maxBuckets int
	observer   Observer
	logger     *slog.Logger
}

// WithClock sets the time source. Tests use it to drive refill deterministically.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithTable sets the table implementation. Its key type must match the limiter's.
func WithTable[K comparable](t Table[K]) Option {
	return func(o *options) {
		o.table = t
	}
}

// WithShards uses a sharded table with n shards. Ignored when WithTable is set.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// WithEvictor sets the eviction policy. Its key type must match the limiter's.
func WithEvictor[K comparable](e Evictor[K]) Option {
	return func(o *options) {
		o.evictor = e
	}
}

// WithMaxBuckets bounds the number of buckets with an LRU evictor.
// Ignored when WithEvictor is set.
func WithMaxBuckets(n int) Option {
	return func(o *options) {
		o.maxBuckets = n
	}
}

// WithObserver sets the event observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
