package vipstore

import (
	"fmt"

	"mercator-hq/rhythm/pkg/config"
)

// Open creates the store selected by cfg. It returns a nil Store for the
// "none" backend.
func Open(cfg config.VIPStoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		store, err := NewSQLiteStore(SQLiteConfig{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vip store backend %q", cfg.Backend)
	}
}
