package ratelimit

import (
	"hash/maphash"
	"sync"
)

// Slot holds everything the limiter keeps for one key. A key's bucket and
// its VIP override share a slot so that both are read and written under the
// same lock.
type Slot struct {
	Bucket *Bucket
	VIP    *VipConfig
}

func (s *Slot) empty() bool {
	return s.Bucket == nil && s.VIP == nil
}

// Table stores slots by key and serializes access to them.
//
// Callbacks run with exclusive access to the slot and must not call back into
// the table or the limiter. A slot left with neither a bucket nor a VIP after
// a callback is removed.
type Table[K comparable] interface {
	// Update runs fn on the slot for key, creating an empty slot if needed.
	Update(key K, fn func(s *Slot))

	// Lookup runs fn on the slot for key if it exists and reports whether it did.
	Lookup(key K, fn func(s *Slot)) bool

	// Sweep runs fn on every slot.
	Sweep(fn func(key K, s *Slot))

	// Len returns the number of slots.
	Len() int
}

// lockedTable guards a single map with one mutex.
type lockedTable[K comparable] struct {
	mu    sync.Mutex
	slots map[K]*Slot
}

// NewLockedTable returns a table protected by a single mutex.
// This is the default table used by New.
func NewLockedTable[K comparable]() Table[K] {
	return newLockedTable[K]()
}

func newLockedTable[K comparable]() *lockedTable[K] {
	return &lockedTable[K]{slots: make(map[K]*Slot)}
}

func (t *lockedTable[K]) Update(key K, fn func(s *Slot)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[key]
	if !ok {
		s = &Slot{}
	}
	fn(s)

	switch {
	case s.empty():
		delete(t.slots, key)
	case !ok:
		t.slots[key] = s
	}
}

func (t *lockedTable[K]) Lookup(key K, fn func(s *Slot)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[key]
	if !ok {
		return false
	}
	fn(s)
	if s.empty() {
		delete(t.slots, key)
	}
	return true
}

func (t *lockedTable[K]) Sweep(fn func(key K, s *Slot)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, s := range t.slots {
		fn(key, s)
		if s.empty() {
			delete(t.slots, key)
		}
	}
}

func (t *lockedTable[K]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// shardedTable spreads keys over independently locked shards.
type shardedTable[K comparable] struct {
	seed   maphash.Seed
	mask   uint64
	shards []*lockedTable[K]
}

// NewShardedTable returns a table split into at least n shards, rounded up to
// a power of two. Keys are assigned to shards by hash, so requests for
// different keys rarely contend. Decisions for a single key are identical to
// the locked table.
func NewShardedTable[K comparable](n int) (Table[K], error) {
	if n <= 0 {
		return nil, &ConfigError{Field: "shards", Value: n, Err: ErrInvalidShards}
	}

	size := 1
	for size < n {
		size <<= 1
	}

	t := &shardedTable[K]{
		seed:   maphash.MakeSeed(),
		mask:   uint64(size - 1),
		shards: make([]*lockedTable[K], size),
	}
	for i := range t.shards {
		t.shards[i] = newLockedTable[K]()
	}
	return t, nil
}

func (t *shardedTable[K]) shard(key K) *lockedTable[K] {
	return t.shards[maphash.Comparable(t.seed, key)&t.mask]
}

func (t *shardedTable[K]) Update(key K, fn func(s *Slot)) {
	t.shard(key).Update(key, fn)
}

func (t *shardedTable[K]) Lookup(key K, fn func(s *Slot)) bool {
	return t.shard(key).Lookup(key, fn)
}

// Sweep visits one shard at a time; it is not a consistent snapshot across shards.
func (t *shardedTable[K]) Sweep(fn func(key K, s *Slot)) {
	for _, s := range t.shards {
		s.Sweep(fn)
	}
}

func (t *shardedTable[K]) Len() int {
	total := 0
	for _, s := range t.shards {
		total += s.Len()
	}
	return total
}
