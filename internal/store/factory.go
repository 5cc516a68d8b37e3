// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/rebookd/internal/config"
)

// Open creates the configured backend wrapped with instrumentation.
// File-based backends live under dataDir.
func Open(ctx context.Context, cfg config.StoreConfig, dataDir string) (*Instrumented, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = config.StoreMemory
	}

	var (
		s   Store
		err error
	)
	switch backend {
	case config.StoreMemory:
		s = NewMemoryStore()
	case config.StoreBadger:
		dir := filepath.Join(dataDir, "badger")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		s, err = OpenBadgerStore(dir)
	case config.StoreSQLite:
		if err := os.MkdirAll(dataDir, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		s, err = OpenSQLiteStore(filepath.Join(dataDir, "rebookd.db"), DefaultSQLiteConfig())
	case config.StoreRedis:
		s, err = OpenRedisStore(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.StorePostgres:
		s, err = OpenPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, backend), nil
}
