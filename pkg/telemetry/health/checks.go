package health

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/rhythm/pkg/ratelimit"
)

// StatsSource is implemented by *ratelimit.RateLimiter.
type StatsSource interface {
	Stats() ratelimit.Stats
}

// Pinger is implemented by stores that can verify their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LimiterCheck fails when the limiter is missing or exceeds maxBuckets.
// maxBuckets of zero disables the bound. Eviction keeps the count near the
// bound, so a large overshoot means eviction is not keeping up.
func LimiterCheck(src StatsSource, maxBuckets int) CheckFunc {
	return func(context.Context) error {
		if src == nil {
			return errors.New("limiter not initialized")
		}
		stats := src.Stats()
		if maxBuckets > 0 && stats.Buckets > 2*maxBuckets {
			return fmt.Errorf("%d live buckets exceed max_buckets %d", stats.Buckets, maxBuckets)
		}
		return nil
	}
}

// PingCheck reports the result of p.Ping. Stores without Ping are healthy.
func PingCheck(store any) CheckFunc {
	return func(ctx context.Context) error {
		p, ok := store.(Pinger)
		if !ok {
			return nil
		}
		return p.Ping(ctx)
	}
}
