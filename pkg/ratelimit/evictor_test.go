package ratelimit

import (
	"errors"
	"slices"
	"testing"
)

func TestLRUEvictor_Bound(t *testing.T) {
	e, err := NewLRUEvictor[string](2)
	if err != nil {
		t.Fatalf("NewLRUEvictor failed: %v", err)
	}

	if v := e.Touch("a"); v != nil {
		t.Errorf("Expected no victims, got %v", v)
	}
	if v := e.Touch("b"); v != nil {
		t.Errorf("Expected no victims, got %v", v)
	}

	// Refresh a so that b becomes least recently used.
	e.Touch("a")

	if v := e.Touch("c"); !slices.Equal(v, []string{"b"}) {
		t.Errorf("Expected [b] evicted, got %v", v)
	}
	if e.Len() != 2 {
		t.Errorf("Expected 2 tracked keys, got %d", e.Len())
	}
}

func TestLRUEvictor_ForgetDoesNotEvict(t *testing.T) {
	e, err := NewLRUEvictor[string](2)
	if err != nil {
		t.Fatalf("NewLRUEvictor failed: %v", err)
	}

	e.Touch("a")
	e.Touch("b")
	e.Forget("a")

	if v := e.Touch("c"); v != nil {
		t.Errorf("Expected no victims after forget, got %v", v)
	}
	if v := e.Touch("d"); !slices.Equal(v, []string{"b"}) {
		t.Errorf("Expected [b] evicted, got %v", v)
	}
}

func TestNewLRUEvictor_Invalid(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewLRUEvictor[string](n); !errors.Is(err, ErrInvalidMaxBuckets) {
			t.Errorf("max=%d: expected ErrInvalidMaxBuckets, got %v", n, err)
		}
	}
}

func TestNoEviction(t *testing.T) {
	e := NoEviction[int]()
	for i := 0; i < 1000; i++ {
		if v := e.Touch(i); v != nil {
			t.Fatalf("Expected no victims, got %v", v)
		}
	}
}
