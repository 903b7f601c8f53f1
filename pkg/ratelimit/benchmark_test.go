package ratelimit

import (
	"strconv"
	"testing"
	"time"
)

func benchLimiter(b *testing.B, opts ...Option) *RateLimiter[string] {
	b.Helper()
	rl, err := New[string](Config{Capacity: 1 << 30, RefillRate: 1, RefillInterval: time.Second}, opts...)
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	return rl
}

func BenchmarkRequest_SingleKey(b *testing.B) {
	rl := benchLimiter(b)
	for b.Loop() {
		rl.Request("key")
	}
}

func BenchmarkRequest_ManyKeys(b *testing.B) {
	rl := benchLimiter(b)
	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = "key-" + strconv.Itoa(i)
	}

	i := 0
	for b.Loop() {
		rl.Request(keys[i&1023])
		i++
	}
}

func BenchmarkRequest_Parallel(b *testing.B) {
	tables := map[string][]Option{
		"locked":  nil,
		"sharded": {WithShards(64)},
	}

	for name, opts := range tables {
		b.Run(name, func(b *testing.B) {
			rl := benchLimiter(b, opts...)
			keys := make([]string, 1024)
			for i := range keys {
				keys[i] = "key-" + strconv.Itoa(i)
			}

			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					rl.Request(keys[i&1023])
					i++
				}
			})
		})
	}
}

func BenchmarkRequest_LRU(b *testing.B) {
	rl := benchLimiter(b, WithMaxBuckets(256))
	i := 0
	for b.Loop() {
		rl.Request(strconv.Itoa(i & 1023))
		i++
	}
}
