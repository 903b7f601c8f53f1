// Package vipstore persists VIP overrides so that overrides set at runtime
// survive restarts.
//
// Only overrides are stored. Bucket state is never persisted; a restarted
// limiter starts every bucket full.
//
//	store, err := vipstore.NewSQLiteStore(vipstore.SQLiteConfig{Path: "vips.db"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	n, err := vipstore.Restore(ctx, store, limiter)
package vipstore
