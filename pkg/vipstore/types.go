package vipstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no override exists for a key.
	ErrNotFound = errors.New("vip override not found")

	// ErrEmptyKey is returned when a record has an empty key.
	ErrEmptyKey = errors.New("vip key cannot be empty")
)

// Store persists VIP overrides. Implementations must be safe for concurrent use.
type Store interface {
	// Put creates or replaces the override for rec.Key.
	Put(ctx context.Context, rec Record) error

	// Get returns the override for key, or ErrNotFound.
	Get(ctx context.Context, key string) (Record, error)

	// Delete removes the override for key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error

	// List returns every override ordered by key.
	List(ctx context.Context) ([]Record, error)

	// Close releases resources. The store must not be used afterwards.
	Close() error
}

// Record is a persisted VIP override.
type Record struct {
	Key        string    `json:"key"`
	Capacity   int64     `json:"capacity"`
	RefillRate int64     `json:"refill_rate"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Setter receives restored overrides. *ratelimit.RateLimiter[string] satisfies it.
type Setter interface {
	SetVIP(key string, capacity, refillRate int64) error
}
