package vipstore

import (
	"context"
	"fmt"

	"mercator-hq/rhythm/pkg/ratelimit"
)

// validate checks a record before it is written.
func validate(rec Record) error {
	if rec.Key == "" {
		return ErrEmptyKey
	}
	vip := ratelimit.VipConfig{Capacity: rec.Capacity, RefillRate: rec.RefillRate}
	if err := vip.Validate(); err != nil {
		return fmt.Errorf("invalid override for %q: %w", rec.Key, err)
	}
	return nil
}

// Restore applies every stored override to target and returns how many were
// applied. It stops at the first failure.
func Restore(ctx context.Context, s Store, target Setter) (int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list overrides: %w", err)
	}

	for i, rec := range records {
		if err := target.SetVIP(rec.Key, rec.Capacity, rec.RefillRate); err != nil {
			return i, fmt.Errorf("failed to restore override for %q: %w", rec.Key, err)
		}
	}
	return len(records), nil
}
