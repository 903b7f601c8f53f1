package ratelimit

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// RateLimiter admits or refuses requests per key using token buckets.
//
// Buckets are created lazily on the first request for a key, either from the
// key's VIP override or from the default Config. The limiter is safe for
// concurrent use; decisions for one key are consistent with some total order
// of the calls made for it and no token is ever spent twice.
type RateLimiter[K comparable] struct {
	defaults Config
	table    Table[K]
	evictor  Evictor[K]
	observer Observer
	logger   *slog.Logger
	now      func() time.Time

	allowed atomic.Uint64
	denied  atomic.Uint64
}

// New creates a limiter with the given defaults.
//
// Returns a *ConfigError when a default is not positive or an option carries
// an invalid value.
func New[K comparable](cfg Config, opts ...Option) (*RateLimiter[K], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	rl := &RateLimiter[K]{
		defaults: cfg,
		observer: noopObserver{},
		now:      time.Now,
	}

	if o.now != nil {
		rl.now = o.now
	}
	if o.observer != nil {
		rl.observer = o.observer
	}

	rl.logger = o.logger
	if rl.logger == nil {
		rl.logger = slog.Default()
	}
	rl.logger = rl.logger.With("component", "ratelimit")

	switch {
	case o.table != nil:
		t, ok := o.table.(Table[K])
		if !ok {
			return nil, &ConfigError{Field: "table", Value: fmt.Sprintf("%T", o.table), Err: ErrKeyTypeMismatch}
		}
		rl.table = t
	case o.shards != 0:
		t, err := NewShardedTable[K](o.shards)
		if err != nil {
			return nil, err
		}
		rl.table = t
	default:
		rl.table = NewLockedTable[K]()
	}

	switch {
	case o.evictor != nil:
		e, ok := o.evictor.(Evictor[K])
		if !ok {
			return nil, &ConfigError{Field: "evictor", Value: fmt.Sprintf("%T", o.evictor), Err: ErrKeyTypeMismatch}
		}
		rl.evictor = e
	case o.maxBuckets != 0:
		e, err := NewLRUEvictor[K](o.maxBuckets)
		if err != nil {
			return nil, err
		}
		rl.evictor = e
	default:
		rl.evictor = NoEviction[K]()
	}

	return rl, nil
}

// Defaults returns the limiter's default configuration.
func (rl *RateLimiter[K]) Defaults() Config {
	return rl.defaults
}

// Request reports whether an operation for key may proceed, consuming one
// token if so. It never fails.
func (rl *RateLimiter[K]) Request(key K) bool {
	return rl.Decide(key).Allowed
}

// Decide is Request with the bucket state observed in the same critical
// section as the decision.
func (rl *RateLimiter[K]) Decide(key K) Decision {
	start := time.Now()

	var d Decision
	var created bool
	var snap BucketSnapshot
	rl.table.Update(key, func(s *Slot) {
		now := rl.now()
		if s.Bucket == nil {
			capacity, rate := rl.limitsFor(s)
			s.Bucket = NewBucket(capacity, rate, rl.defaults.RefillInterval, now)
			created = true
			snap = s.Bucket.Snapshot()
		}
		d.Allowed = s.Bucket.Take(now)
		d.Remaining = s.Bucket.Tokens(now)
		if !d.Allowed {
			d.RetryAfter = max(s.Bucket.NextRefill().Sub(now), 0)
		}
	})

	if d.Allowed {
		rl.allowed.Add(1)
	} else {
		rl.denied.Add(1)
	}

	if created {
		rl.logger.Debug("bucket created",
			"key", key,
			"capacity", snap.Capacity,
			"refill_rate", snap.RefillRate,
		)
	}

	rl.evict(rl.evictor.Touch(key))
	rl.observer.ObserveRequest(d.Allowed, time.Since(start))
	return d
}

// SetVIP registers or replaces the override for key. A live bucket takes the
// new capacity and rate immediately; its tokens are clamped to the new
// capacity and otherwise untouched.
func (rl *RateLimiter[K]) SetVIP(key K, capacity, refillRate int64) error {
	vip := VipConfig{Capacity: capacity, RefillRate: refillRate}
	if err := vip.Validate(); err != nil {
		return err
	}

	var live bool
	rl.table.Update(key, func(s *Slot) {
		s.VIP = &vip
		if s.Bucket != nil {
			s.Bucket.SetLimits(capacity, refillRate)
			live = true
		}
	})

	rl.logger.Info("vip override set",
		"key", key,
		"capacity", capacity,
		"refill_rate", refillRate,
		"live_bucket", live,
	)
	rl.observer.ObserveVIPUpdate()
	return nil
}

// RemoveVIP drops the override for key and reports whether one existed.
// A live bucket reverts to the defaults with the same clamp rule as SetVIP.
func (rl *RateLimiter[K]) RemoveVIP(key K) bool {
	var existed bool
	rl.table.Lookup(key, func(s *Slot) {
		if s.VIP == nil {
			return
		}
		existed = true
		s.VIP = nil
		if s.Bucket != nil {
			s.Bucket.SetLimits(rl.defaults.Capacity, rl.defaults.RefillRate)
		}
	})

	if existed {
		rl.logger.Info("vip override removed", "key", key)
		rl.observer.ObserveVIPUpdate()
	}
	return existed
}

// VIP returns the override registered for key.
func (rl *RateLimiter[K]) VIP(key K) (VipConfig, bool) {
	var vip VipConfig
	var ok bool
	rl.table.Lookup(key, func(s *Slot) {
		if s.VIP != nil {
			vip, ok = *s.VIP, true
		}
	})
	return vip, ok
}

// VIPs returns a copy of every registered override.
func (rl *RateLimiter[K]) VIPs() map[K]VipConfig {
	vips := make(map[K]VipConfig)
	rl.table.Sweep(func(key K, s *Slot) {
		if s.VIP != nil {
			vips[key] = *s.VIP
		}
	})
	return vips
}

// Inspect returns the refilled state of key's bucket without consuming a
// token. Returns false if the key has no bucket.
func (rl *RateLimiter[K]) Inspect(key K) (BucketSnapshot, bool) {
	var snap BucketSnapshot
	var ok bool
	rl.table.Lookup(key, func(s *Slot) {
		if s.Bucket == nil {
			return
		}
		s.Bucket.Tokens(rl.now())
		snap, ok = s.Bucket.Snapshot(), true
	})
	return snap, ok
}

// Reset drops key's bucket so the next request starts from a full one.
// The VIP override, if any, is kept.
func (rl *RateLimiter[K]) Reset(key K) bool {
	var removed bool
	rl.table.Lookup(key, func(s *Slot) {
		if s.Bucket != nil {
			s.Bucket = nil
			rl.evictor.Forget(key)
			removed = true
		}
	})

	if removed {
		rl.observer.ObserveEviction(EvictReasonReset, 1)
	}
	return removed
}

// Prune removes buckets whose last request is older than age and returns how
// many were removed. VIP overrides are kept.
func (rl *RateLimiter[K]) Prune(age time.Duration) int {
	cutoff := rl.now().Add(-age)

	pruned := 0
	rl.table.Sweep(func(key K, s *Slot) {
		if s.Bucket != nil && s.Bucket.LastSeen().Before(cutoff) {
			s.Bucket = nil
			rl.evictor.Forget(key)
			pruned++
		}
	})

	if pruned > 0 {
		rl.logger.Debug("pruned idle buckets", "count", pruned, "age", age)
		rl.observer.ObserveEviction(EvictReasonIdle, pruned)
	}
	return pruned
}

// Len returns the number of live buckets.
func (rl *RateLimiter[K]) Len() int {
	n := 0
	rl.table.Sweep(func(_ K, s *Slot) {
		if s.Bucket != nil {
			n++
		}
	})
	return n
}

// Stats returns limiter-wide counters.
func (rl *RateLimiter[K]) Stats() Stats {
	stats := Stats{
		Allowed: rl.allowed.Load(),
		Denied:  rl.denied.Load(),
	}
	rl.table.Sweep(func(_ K, s *Slot) {
		if s.Bucket != nil {
			stats.Buckets++
		}
		if s.VIP != nil {
			stats.VIPs++
		}
	})
	return stats
}

// limitsFor resolves capacity and rate for a new bucket in s.
func (rl *RateLimiter[K]) limitsFor(s *Slot) (int64, int64) {
	if s.VIP != nil {
		return s.VIP.Capacity, s.VIP.RefillRate
	}
	return rl.defaults.Capacity, rl.defaults.RefillRate
}

// evict drops the buckets of victims chosen by the evictor.
func (rl *RateLimiter[K]) evict(victims []K) {
	if len(victims) == 0 {
		return
	}

	n := 0
	for _, key := range victims {
		rl.table.Lookup(key, func(s *Slot) {
			if s.Bucket != nil {
				s.Bucket = nil
				n++
			}
		})
	}

	if n > 0 {
		rl.logger.Debug("evicted buckets", "count", n)
		rl.observer.ObserveEviction(EvictReasonCapacity, n)
	}
}
