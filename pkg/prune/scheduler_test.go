package prune

import (
	"context"
	"sync"
	"testing"
	"time"

	"mercator-hq/rhythm/pkg/ratelimit"
)

type fakePruner struct {
	mu    sync.Mutex
	calls []time.Duration
	n     int
}

func (f *fakePruner) Prune(age time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, age)
	return f.n
}

func (f *fakePruner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestScheduler_RunOnce(t *testing.T) {
	p := &fakePruner{n: 3}
	s := NewScheduler(p, Config{Schedule: "@every 1m", IdleTTL: 5 * time.Minute}, nil)

	if got := s.RunOnce(); got != 3 {
		t.Errorf("Expected 3 pruned, got %d", got)
	}
	if p.calls[0] != 5*time.Minute {
		t.Errorf("Expected prune age 5m, got %v", p.calls[0])
	}
	if s.Runs() != 1 || s.TotalPruned() != 3 {
		t.Errorf("Expected 1 run / 3 pruned, got %d / %d", s.Runs(), s.TotalPruned())
	}
}

func TestScheduler_StartRunsOnSchedule(t *testing.T) {
	p := &fakePruner{}
	s := NewScheduler(p, Config{Schedule: "@every 1s", IdleTTL: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("Expected scheduler to be running")
	}
	if next := s.NextRun(); next == nil || next.IsZero() {
		t.Error("Expected a next run time")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("Expected second Start to fail")
	}

	deadline := time.Now().Add(3 * time.Second)
	for p.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if p.callCount() == 0 {
		t.Fatal("Expected scheduled prune to run")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("Expected scheduler to be stopped")
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewScheduler(&fakePruner{}, Config{Schedule: "@every 1h", IdleTTL: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("Expected scheduler to stop after context cancellation")
	}
}

func TestScheduler_StartConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantErr     bool
		wantRunning bool
	}{
		{"disabled", Config{Schedule: "@every 1m"}, false, false},
		{"invalid schedule", Config{Schedule: "sometimes", IdleTTL: time.Minute}, true, false},
		{"five field", Config{Schedule: "*/5 * * * *", IdleTTL: time.Minute}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(&fakePruner{}, tt.cfg, nil)
			err := s.Start(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s.IsRunning() != tt.wantRunning {
				t.Errorf("Expected running=%v", tt.wantRunning)
			}
			s.Stop()
		})
	}
}

func TestScheduler_WithLimiter(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	limiter, err := ratelimit.New[string](
		ratelimit.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second},
		ratelimit.WithClock(clock),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	limiter.Request("idle")
	now = now.Add(2 * time.Minute)
	limiter.Request("active")

	s := NewScheduler(limiter, Config{Schedule: "@every 1m", IdleTTL: time.Minute}, nil)
	if got := s.RunOnce(); got != 1 {
		t.Errorf("Expected 1 idle bucket pruned, got %d", got)
	}
	if limiter.Len() != 1 {
		t.Errorf("Expected 1 bucket left, got %d", limiter.Len())
	}
}
