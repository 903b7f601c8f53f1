package ratelimit

import "time"

// Eviction reasons reported to Observer.ObserveEviction.
const (
	EvictReasonCapacity = "capacity"
	EvictReasonIdle     = "idle"
	EvictReasonReset    = "reset"
)

// Observer receives limiter events. Methods are called outside the table
// lock and must be safe for concurrent use.
type Observer interface {
	// ObserveRequest is called once per Request with its decision and latency.
	ObserveRequest(allowed bool, took time.Duration)

	// ObserveEviction is called when n buckets were dropped for reason.
	ObserveEviction(reason string, n int)

	// ObserveVIPUpdate is called after a VIP override is set or removed.
	ObserveVIPUpdate()
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(bool, time.Duration) {}
func (noopObserver) ObserveEviction(string, int)        {}
func (noopObserver) ObserveVIPUpdate()                  {}
