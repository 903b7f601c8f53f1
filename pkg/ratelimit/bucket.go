package ratelimit

import "time"

// Bucket implements the token bucket state machine for a single key.
//
// A bucket starts full. Tokens are integral and refill is quantized to whole
// RefillInterval periods: a partially elapsed interval credits nothing, and
// its progress is kept for the next refill by advancing lastRefill only by
// the whole intervals consumed.
//
// # Thread Safety
//
// Bucket has no locking of its own. It is only ever touched from inside a
// Table callback, which holds the lock for the owning key.
type Bucket struct {
	tokens         int64
	capacity       int64
	refillRate     int64
	refillInterval time.Duration
	lastRefill     time.Time
	lastSeen       time.Time
	created        time.Time
	allowed        uint64
	denied         uint64
}

// NewBucket creates a full bucket whose refill clock starts at now.
// Parameters are assumed valid; callers go through Config.Validate or
// VipConfig.Validate first.
func NewBucket(capacity, refillRate int64, refillInterval time.Duration, now time.Time) *Bucket {
	return &Bucket{
		tokens:         capacity,
		capacity:       capacity,
		refillRate:     refillRate,
		refillInterval: refillInterval,
		lastRefill:     now,
		lastSeen:       now,
		created:        now,
	}
}

// Take refills the bucket and then tries to consume one token.
// Returns true if a token was consumed.
func (b *Bucket) Take(now time.Time) bool {
	b.lastSeen = now
	b.refill(now)

	if b.tokens >= 1 {
		b.tokens--
		b.allowed++
		return true
	}

	b.denied++
	return false
}

// Tokens refills the bucket and returns the available token count.
// Unlike Take it does not mark the bucket as seen.
func (b *Bucket) Tokens(now time.Time) int64 {
	b.refill(now)
	return b.tokens
}

// SetLimits replaces capacity and refill rate in place. The token count and
// refill clock are left alone, except that tokens are clamped to the new
// capacity.
func (b *Bucket) SetLimits(capacity, refillRate int64) {
	b.capacity = capacity
	b.refillRate = refillRate
	if b.tokens > capacity {
		b.tokens = capacity
	}
}

// NextRefill returns when the next whole interval completes.
func (b *Bucket) NextRefill() time.Time {
	return b.lastRefill.Add(b.refillInterval)
}

// LastSeen returns the time of the last Take.
func (b *Bucket) LastSeen() time.Time {
	return b.lastSeen
}

// Snapshot returns a copy of the bucket's current state without refilling.
func (b *Bucket) Snapshot() BucketSnapshot {
	return BucketSnapshot{
		Tokens:         b.tokens,
		Capacity:       b.capacity,
		RefillRate:     b.refillRate,
		RefillInterval: b.refillInterval,
		LastRefill:     b.lastRefill,
		LastSeen:       b.lastSeen,
		Created:        b.created,
		Allowed:        b.allowed,
		Denied:         b.denied,
	}
}

// refill credits the whole intervals elapsed since lastRefill.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < b.refillInterval {
		// Also covers a clock that went backwards.
		return
	}

	n := int64(elapsed / b.refillInterval)
	b.lastRefill = b.lastRefill.Add(time.Duration(n) * b.refillInterval)

	// n*refillRate may overflow; compare against the intervals needed to fill.
	missing := b.capacity - b.tokens
	if n > missing/b.refillRate {
		b.tokens = b.capacity
		return
	}
	b.tokens += n * b.refillRate
}
