package ratelimit

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Evictor decides which buckets to drop as new keys arrive.
//
// Only buckets are evicted. VIP overrides survive eviction, so a returning
// key gets a fresh full bucket under its override.
type Evictor[K comparable] interface {
	// Touch records an access to key and returns keys whose buckets should be dropped.
	Touch(key K) []K

	// Forget tells the evictor that key's bucket was removed elsewhere. It is
	// called with the key's slot locked and must not call into the table.
	Forget(key K)
}

type noEviction[K comparable] struct{}

func (noEviction[K]) Touch(K) []K { return nil }
func (noEviction[K]) Forget(K)    {}

// NoEviction returns an evictor that never drops anything.
func NoEviction[K comparable]() Evictor[K] {
	return noEviction[K]{}
}

// LRUEvictor keeps at most a fixed number of buckets, dropping the least
// recently used one when a new key would exceed the bound.
//
// The evictor is consulted outside the table lock, so under concurrent load
// the number of live buckets can briefly exceed the bound. Forget runs under
// the slot lock, so a bucket recreated after a reset or prune is always
// tracked again by its own Touch; once requests quiesce the bound holds.
type LRUEvictor[K comparable] struct {
	mu         sync.Mutex
	lru        *simplelru.LRU[K, struct{}]
	evicted    []K
	forgetting bool
}

// NewLRUEvictor returns an LRU evictor bounded to maxBuckets keys.
func NewLRUEvictor[K comparable](maxBuckets int) (*LRUEvictor[K], error) {
	if maxBuckets <= 0 {
		return nil, &ConfigError{Field: "max_buckets", Value: maxBuckets, Err: ErrInvalidMaxBuckets}
	}

	e := &LRUEvictor[K]{}
	lru, err := simplelru.NewLRU[K, struct{}](maxBuckets, func(key K, _ struct{}) {
		if !e.forgetting {
			e.evicted = append(e.evicted, key)
		}
	})
	if err != nil {
		return nil, err
	}
	e.lru = lru
	return e, nil
}

// Touch marks key as most recently used.
func (e *LRUEvictor[K]) Touch(key K) []K {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lru.Add(key, struct{}{})
	if len(e.evicted) == 0 {
		return nil
	}
	victims := e.evicted
	e.evicted = nil
	return victims
}

// Forget removes key from the recency list.
func (e *LRUEvictor[K]) Forget(key K) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.forgetting = true
	e.lru.Remove(key)
	e.forgetting = false
}

// Len returns the number of tracked keys.
func (e *LRUEvictor[K]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lru.Len()
}
