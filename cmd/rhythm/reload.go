package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mercator-hq/rhythm/pkg/config"
	"mercator-hq/rhythm/pkg/telemetry/logging"
	"mercator-hq/rhythm/pkg/vipstore"
)

// vipTarget is the part of the limiter the reloader drives.
type vipTarget interface {
	SetVIP(key string, capacity, refillRate int64) error
	RemoveVIP(key string) bool
}

// reloader applies a changed configuration file to a running limiter.
//
// Only VIP overrides and the log level take effect without a restart.
// Overrides persisted in the store are re-applied after the file's, so
// changes made with "rhythm vip" reach a running server on reload.
type reloader struct {
	path    string
	limiter vipTarget
	store   vipstore.Store
	logger  *logging.Logger

	mu sync.Mutex
}

func newReloader(path string, limiter vipTarget, store vipstore.Store, logger *logging.Logger) *reloader {
	return &reloader{
		path:    path,
		limiter: limiter,
		store:   store,
		logger:  logger.With("component", "reloader"),
	}
}

// Reload re-reads the configuration file. The active configuration is left
// untouched when the file fails to load or validate.
func (r *reloader) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, next, err := config.ReloadConfig(r.path)
	if err != nil {
		return err
	}

	var prevVIPs []config.VIPConfig
	if prev != nil {
		prevVIPs = prev.VIPs
		if prev.Limiter != next.Limiter {
			r.logger.Warn("limiter settings changed, restart required to apply them")
		}
		if prev.Server != next.Server {
			r.logger.Warn("server settings changed, restart required to apply them")
		}
	}

	if err := r.logger.SetLevel(next.Telemetry.Logging.Level); err != nil {
		r.logger.Warn("failed to apply log level", "level", next.Telemetry.Logging.Level, "error", err)
	}

	set, removed, err := reconcileVIPs(ctx, r.limiter, r.store, prevVIPs, next.VIPs)
	if err != nil {
		return err
	}

	restored := 0
	if r.store != nil {
		restored, err = vipstore.Restore(ctx, r.store, r.limiter)
		if err != nil {
			return err
		}
	}

	r.logger.Info("configuration reloaded",
		"vips_set", set,
		"vips_removed", removed,
		"vips_restored", restored,
	)
	return nil
}

// reconcileVIPs moves the limiter from the overrides in prev to those in
// next. Unchanged entries are skipped. An entry dropped from next falls back
// to its persisted record when store holds one.
func reconcileVIPs(ctx context.Context, limiter vipTarget, store vipstore.Store, prev, next []config.VIPConfig) (set, removed int, err error) {
	before := make(map[string]config.VIPConfig, len(prev))
	for _, vip := range prev {
		before[vip.Key] = vip
	}

	var errs []error
	after := make(map[string]struct{}, len(next))
	for _, vip := range next {
		after[vip.Key] = struct{}{}
		if old, ok := before[vip.Key]; ok && old == vip {
			continue
		}
		if err := limiter.SetVIP(vip.Key, vip.Capacity, vip.RefillRate); err != nil {
			errs = append(errs, fmt.Errorf("vip %q: %w", vip.Key, err))
			continue
		}
		set++
	}

	for key := range before {
		if _, ok := after[key]; ok {
			continue
		}
		if store != nil {
			rec, err := store.Get(ctx, key)
			if err == nil {
				if err := limiter.SetVIP(rec.Key, rec.Capacity, rec.RefillRate); err != nil {
					errs = append(errs, fmt.Errorf("vip %q: %w", key, err))
				}
				continue
			}
			if !errors.Is(err, vipstore.ErrNotFound) {
				errs = append(errs, fmt.Errorf("vip %q: %w", key, err))
				continue
			}
		}
		if limiter.RemoveVIP(key) {
			removed++
		}
	}

	return set, removed, errors.Join(errs...)
}
