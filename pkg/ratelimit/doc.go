// Package ratelimit provides a thread-safe, in-memory token bucket rate limiter
// keyed by any comparable type.
//
// # Overview
//
// Every key owns a bucket of tokens. A bucket starts full, loses one token per
// admitted request and is refilled lazily from elapsed time whenever it is
// touched. Requests are admitted while tokens remain and refused once the
// bucket is empty.
//
//	limiter, err := ratelimit.New[string](ratelimit.Config{
//	    Capacity:       10,
//	    RefillRate:     1,
//	    RefillInterval: time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	if limiter.Request("12.34.56.78") {
//	    // admitted
//	}
//
// # Refill Model
//
// Refill is quantized: only whole intervals are credited.
//
//	n          = floor(elapsed / RefillInterval)
//	tokens     = min(capacity, tokens + n*refillRate)
//	lastRefill = lastRefill + n*RefillInterval
//
// Partial progress toward the next interval carries over to the next call.
// A clock that moves backwards credits nothing.
//
// # VIP Overrides
//
// SetVIP gives a key its own capacity and refill rate. The refill interval is
// shared by every key. Overrides apply to buckets created afterwards and are
// also pushed into a live bucket in place; its token count is only clamped
// down when it exceeds the new capacity.
//
// # Thread Safety
//
// Bucket state lives in a Table. The default table guards every key with one
// mutex. NewShardedTable partitions keys over independently locked shards.
// For a given key the bucket and its VIP override share a Slot, so lookup,
// creation, refill and consumption always run in a single critical section.
//
// # Growth
//
// The base limiter never forgets a key. Memory can be bounded with an Evictor
// (WithMaxBuckets installs an LRU policy) or by calling Prune periodically.
package ratelimit
