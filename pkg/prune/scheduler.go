// Package prune removes idle rate limit buckets on a cron schedule.
package prune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner removes buckets idle for longer than age and returns how many it
// removed. *ratelimit.RateLimiter satisfies it.
type Pruner interface {
	Prune(age time.Duration) int
}

// Config contains scheduler settings.
type Config struct {
	// Schedule is a standard cron expression or descriptor ("@every 1m").
	Schedule string

	// IdleTTL is the bucket age passed to Prune. Zero disables the scheduler.
	IdleTTL time.Duration
}

// Scheduler runs a Pruner on a cron schedule.
type Scheduler struct {
	pruner  Pruner
	config  Config
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	running bool

	runs        atomic.Int64
	totalPruned atomic.Int64
}

// NewScheduler creates a scheduler for pruner.
func NewScheduler(pruner Pruner, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pruner: pruner,
		config: cfg,
		cron:   cron.New(),
		logger: logger.With("component", "prune.scheduler"),
	}
}

// Start schedules pruning and returns immediately. The scheduler stops when
// ctx is cancelled or Stop is called.
//
// If IdleTTL is zero the scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("prune scheduler already running")
	}
	if s.config.IdleTTL <= 0 {
		s.logger.Info("idle TTL not configured, skipping prune scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("prune scheduler started",
		"schedule", s.config.Schedule,
		"idle_ttl", s.config.IdleTTL,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce prunes immediately and returns the number of buckets removed.
func (s *Scheduler) RunOnce() int {
	start := time.Now()
	pruned := s.pruner.Prune(s.config.IdleTTL)

	s.runs.Add(1)
	s.totalPruned.Add(int64(pruned))

	if pruned > 0 {
		s.logger.Info("pruned idle buckets",
			"pruned", pruned,
			"duration", time.Since(start),
		)
	} else {
		s.logger.Debug("prune run completed, nothing to remove")
	}
	return pruned
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("prune scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled prune, or nil when nothing is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

// Runs returns how many prune runs have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// TotalPruned returns the number of buckets removed across all runs.
func (s *Scheduler) TotalPruned() int64 {
	return s.totalPruned.Load()
}
