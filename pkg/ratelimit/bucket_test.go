package ratelimit

import (
	"math"
	"testing"
	"time"
)

func TestBucket_StartsFull(t *testing.T) {
	now := time.Now()
	b := NewBucket(5, 1, time.Second, now)

	if got := b.Tokens(now); got != 5 {
		t.Errorf("Expected 5 tokens, got %d", got)
	}
	snap := b.Snapshot()
	if !snap.LastRefill.Equal(now) || !snap.Created.Equal(now) {
		t.Errorf("Expected refill clock to start at creation, got %v", snap.LastRefill)
	}
}

func TestBucket_Saturation(t *testing.T) {
	now := time.Now()
	b := NewBucket(5, 1, time.Second, now)

	for i := 0; i < 5; i++ {
		if !b.Take(now) {
			t.Fatalf("Expected take %d to succeed", i+1)
		}
	}
	if b.Take(now) {
		t.Error("Expected 6th take to fail")
	}

	snap := b.Snapshot()
	if snap.Allowed != 5 || snap.Denied != 1 {
		t.Errorf("Expected 5 allowed / 1 denied, got %d / %d", snap.Allowed, snap.Denied)
	}
}

func TestBucket_QuantizedRefill(t *testing.T) {
	tests := []struct {
		name       string
		rate       int64
		wantTokens int64
	}{
		{"rate 1", 1, 2},
		{"rate 2", 2, 4},
		{"rate 3 capped", 3, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			b := NewBucket(5, tt.rate, time.Second, start)
			for i := 0; i < 5; i++ {
				b.Take(start)
			}

			// 2.5 intervals credit exactly two refills.
			at := start.Add(2500 * time.Millisecond)
			if got := b.Tokens(at); got != tt.wantTokens {
				t.Fatalf("Expected %d tokens after 2.5s, got %d", tt.wantTokens, got)
			}
			if want := start.Add(2 * time.Second); !b.Snapshot().LastRefill.Equal(want) {
				t.Errorf("Expected last refill %v, got %v", want, b.Snapshot().LastRefill)
			}
		})
	}
}

func TestBucket_FractionalProgressPreserved(t *testing.T) {
	start := time.Now()
	b := NewBucket(5, 2, time.Second, start)
	for i := 0; i < 5; i++ {
		b.Take(start)
	}

	at := start.Add(2500 * time.Millisecond)
	for i := 0; i < 4; i++ {
		if !b.Take(at) {
			t.Fatalf("Expected take %d at 2.5s to succeed", i+1)
		}
	}
	if b.Take(at) {
		t.Fatal("Expected bucket to be empty after spending refilled tokens")
	}

	// The half interval left over must not be lost or credited early.
	if got := b.Tokens(start.Add(2900 * time.Millisecond)); got != 0 {
		t.Errorf("Expected 0 tokens at 2.9s, got %d", got)
	}
	if got := b.Tokens(start.Add(3 * time.Second)); got != 2 {
		t.Errorf("Expected 2 tokens at 3.0s, got %d", got)
	}
}

func TestBucket_CapacityLimit(t *testing.T) {
	start := time.Now()
	b := NewBucket(10, 3, time.Second, start)
	b.Take(start)

	if got := b.Tokens(start.Add(time.Hour)); got != 10 {
		t.Errorf("Expected tokens capped at 10, got %d", got)
	}
}

func TestBucket_ClockBackwards(t *testing.T) {
	start := time.Now()
	b := NewBucket(3, 1, time.Second, start)
	for i := 0; i < 3; i++ {
		b.Take(start)
	}

	if got := b.Tokens(start.Add(-time.Hour)); got != 0 {
		t.Errorf("Expected no refill when clock moves backwards, got %d", got)
	}
	if !b.Snapshot().LastRefill.Equal(start) {
		t.Error("Expected last refill to be unchanged")
	}
	if got := b.Tokens(start.Add(time.Second)); got != 1 {
		t.Errorf("Expected 1 token after one interval, got %d", got)
	}
}

func TestBucket_OverflowSafe(t *testing.T) {
	t.Run("huge rate and capacity", func(t *testing.T) {
		start := time.Now()
		b := NewBucket(1, 1, time.Second, start)
		b.Take(start)
		b.SetLimits(math.MaxInt64, math.MaxInt64)

		if got := b.Tokens(start.Add(10 * time.Second)); got != math.MaxInt64 {
			t.Errorf("Expected tokens at MaxInt64, got %d", got)
		}
	})

	t.Run("huge interval count", func(t *testing.T) {
		start := time.Now()
		b := NewBucket(10, 1<<40, time.Nanosecond, start)
		b.Take(start)

		if got := b.Tokens(start.Add(100 * 365 * 24 * time.Hour)); got != 10 {
			t.Errorf("Expected tokens capped at 10, got %d", got)
		}
	})
}

func TestBucket_SetLimits(t *testing.T) {
	tests := []struct {
		name        string
		consume     int
		capacity    int64
		rate        int64
		wantTokens  int64
		wantCapacity int64
	}{
		{"grow keeps tokens", 3, 10, 10, 2, 10},
		{"shrink clamps tokens", 0, 2, 1, 2, 2},
		{"shrink below capacity keeps tokens", 4, 3, 1, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			b := NewBucket(5, 1, time.Second, now)
			for i := 0; i < tt.consume; i++ {
				b.Take(now)
			}
			before := b.Snapshot().LastRefill

			b.SetLimits(tt.capacity, tt.rate)

			snap := b.Snapshot()
			if snap.Tokens != tt.wantTokens {
				t.Errorf("Expected %d tokens, got %d", tt.wantTokens, snap.Tokens)
			}
			if snap.Capacity != tt.wantCapacity || snap.RefillRate != tt.rate {
				t.Errorf("Expected limits %d/%d, got %d/%d", tt.wantCapacity, tt.rate, snap.Capacity, snap.RefillRate)
			}
			if !snap.LastRefill.Equal(before) {
				t.Error("Expected refill clock to be untouched")
			}
		})
	}
}

func TestBucket_TokensWithinBounds(t *testing.T) {
	now := time.Now()
	b := NewBucket(7, 3, 100*time.Millisecond, now)

	steps := []time.Duration{0, 30, 70, 110, 250, 10, 999, 5, 1, 400}
	for i := 0; i < 500; i++ {
		now = now.Add(steps[i%len(steps)] * time.Millisecond)
		b.Take(now)
		if got := b.Snapshot().Tokens; got < 0 || got > 7 {
			t.Fatalf("Step %d: tokens out of bounds: %d", i, got)
		}
	}
}
