package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func tableImplementations(t *testing.T) map[string]func() Table[string] {
	t.Helper()
	return map[string]func() Table[string]{
		"locked": NewLockedTable[string],
		"sharded": func() Table[string] {
			tbl, err := NewShardedTable[string](8)
			if err != nil {
				t.Fatalf("NewShardedTable failed: %v", err)
			}
			return tbl
		},
	}
}

func TestTable_UpdateCreatesSlot(t *testing.T) {
	for name, newTable := range tableImplementations(t) {
		t.Run(name, func(t *testing.T) {
			tbl := newTable()

			tbl.Update("a", func(s *Slot) {
				s.VIP = &VipConfig{Capacity: 1, RefillRate: 1}
			})
			if tbl.Len() != 1 {
				t.Errorf("Expected 1 slot, got %d", tbl.Len())
			}

			found := tbl.Lookup("a", func(s *Slot) {
				if s.VIP == nil || s.VIP.Capacity != 1 {
					t.Error("Expected VIP to be stored")
				}
			})
			if !found {
				t.Error("Expected slot to be found")
			}
		})
	}
}

func TestTable_EmptySlotsRemoved(t *testing.T) {
	for name, newTable := range tableImplementations(t) {
		t.Run(name, func(t *testing.T) {
			tbl := newTable()

			// A callback that stores nothing must not leave a slot behind.
			tbl.Update("ghost", func(*Slot) {})
			if tbl.Len() != 0 {
				t.Errorf("Expected no slots, got %d", tbl.Len())
			}

			tbl.Update("a", func(s *Slot) {
				s.Bucket = NewBucket(1, 1, time.Second, time.Now())
			})
			tbl.Lookup("a", func(s *Slot) { s.Bucket = nil })
			if tbl.Len() != 0 {
				t.Errorf("Expected emptied slot to be removed, got %d", tbl.Len())
			}
		})
	}
}

func TestTable_LookupMissing(t *testing.T) {
	for name, newTable := range tableImplementations(t) {
		t.Run(name, func(t *testing.T) {
			tbl := newTable()
			called := false
			if tbl.Lookup("missing", func(*Slot) { called = true }) {
				t.Error("Expected lookup of missing key to return false")
			}
			if called {
				t.Error("Expected callback not to run for missing key")
			}
		})
	}
}

func TestTable_Sweep(t *testing.T) {
	for name, newTable := range tableImplementations(t) {
		t.Run(name, func(t *testing.T) {
			tbl := newTable()
			for i := 0; i < 20; i++ {
				tbl.Update(fmt.Sprintf("k%d", i), func(s *Slot) {
					s.VIP = &VipConfig{Capacity: int64(i + 1), RefillRate: 1}
				})
			}

			seen := 0
			tbl.Sweep(func(_ string, s *Slot) {
				seen++
				if s.VIP.Capacity%2 == 0 {
					s.VIP = nil
				}
			})

			if seen != 20 {
				t.Errorf("Expected sweep to visit 20 slots, got %d", seen)
			}
			if tbl.Len() != 10 {
				t.Errorf("Expected 10 slots after sweep, got %d", tbl.Len())
			}
		})
	}
}

func TestTable_ConcurrentUpdates(t *testing.T) {
	for name, newTable := range tableImplementations(t) {
		t.Run(name, func(t *testing.T) {
			tbl := newTable()
			keys := []string{"a", "b", "c", "d"}

			var wg sync.WaitGroup
			for i := 0; i < 400; i++ {
				wg.Add(1)
				go func(key string) {
					defer wg.Done()
					tbl.Update(key, func(s *Slot) {
						if s.VIP == nil {
							s.VIP = &VipConfig{}
						}
						s.VIP.Capacity++
					})
				}(keys[i%len(keys)])
			}
			wg.Wait()

			for _, k := range keys {
				tbl.Lookup(k, func(s *Slot) {
					if s.VIP.Capacity != 100 {
						t.Errorf("Key %s: expected 100 updates, got %d", k, s.VIP.Capacity)
					}
				})
			}
		})
	}
}

func TestNewShardedTable(t *testing.T) {
	tests := []struct {
		shards     int
		wantShards int
		wantErr    bool
	}{
		{shards: 1, wantShards: 1},
		{shards: 3, wantShards: 4},
		{shards: 16, wantShards: 16},
		{shards: 0, wantErr: true},
		{shards: -4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.shards), func(t *testing.T) {
			tbl, err := NewShardedTable[int](tt.shards)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidShards) {
					t.Errorf("Expected ErrInvalidShards, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := len(tbl.(*shardedTable[int]).shards); got != tt.wantShards {
				t.Errorf("Expected %d shards, got %d", tt.wantShards, got)
			}
		})
	}
}
