// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/rebookd/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendFactory func(t *testing.T) Store

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"badger": func(t *testing.T) Store {
			s, err := OpenBadgerStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "test.db"), DefaultSQLiteConfig())
			require.NoError(t, err)
			return s
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			return NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		},
		"postgres": func(t *testing.T) Store {
			dsn := os.Getenv("REBOOKD_TEST_POSTGRES_DSN")
			if dsn == "" {
				t.Skip("REBOOKD_TEST_POSTGRES_DSN not set")
			}
			s, err := OpenPostgresStore(context.Background(), dsn)
			require.NoError(t, err)
			_, err = s.pool.Exec(context.Background(), "TRUNCATE rebookd_items")
			require.NoError(t, err)
			return s
		},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		type meta struct {
			Reason string `json:"reason"`
		}

		require.NoError(t, PutJSON(ctx, s, DisruptionPK("DIS-1"), SKMeta, meta{Reason: "weather"}))

		var got meta
		require.NoError(t, GetJSON(ctx, s, DisruptionPK("DIS-1"), SKMeta, &got))
		assert.Equal(t, "weather", got.Reason)

		item, err := s.Get(ctx, DisruptionPK("DIS-1"), SKMeta)
		require.NoError(t, err)
		assert.False(t, item.UpdatedAt.IsZero())
	})
}

func TestStore_GetMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		_, err := s.Get(context.Background(), SessionPK("nope"), SKMeta)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_PutOverwrites(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		pk := SessionPK("SES-1")
		require.NoError(t, PutJSON(ctx, s, pk, SKSelection, map[string]string{"optionId": "A"}))
		require.NoError(t, PutJSON(ctx, s, pk, SKSelection, map[string]string{"optionId": "C"}))

		var got map[string]string
		require.NoError(t, GetJSON(ctx, s, pk, SKSelection, &got))
		assert.Equal(t, "C", got["optionId"])

		items, err := s.Query(ctx, pk, SKSelection)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestStore_QueryTurnsInOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		pk := SessionPK("SES-2")
		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		require.NoError(t, PutJSON(ctx, s, pk, SKMeta, map[string]string{}))
		require.NoError(t, PutJSON(ctx, s, pk, SKOptions, map[string]string{}))
		// Fractions chosen so that variable-width formatting would misorder them.
		stamps := []time.Duration{0, 100 * time.Millisecond, 120 * time.Millisecond, time.Second}
		for i, d := range stamps {
			require.NoError(t, PutJSON(ctx, s, pk, TurnSK(base.Add(d), i), map[string]int{"n": i}))
		}

		items, err := s.Query(ctx, pk, PrefixTurn)
		require.NoError(t, err)
		require.Len(t, items, len(stamps))
		for i, item := range items {
			var v map[string]int
			require.NoError(t, item.Decode(&v))
			assert.Equal(t, i, v["n"])
		}

		all, err := s.Query(ctx, pk, "")
		require.NoError(t, err)
		assert.Len(t, all, len(stamps)+2)
	})
}

func TestStore_ScanPrefix(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, PutJSON(ctx, s, DisruptionPK("DIS-A"), SKMeta, 1))
		require.NoError(t, PutJSON(ctx, s, DisruptionPK("DIS-A"), SessionLinkSK("SES-1"), 2))
		require.NoError(t, PutJSON(ctx, s, DisruptionPK("DIS-B"), SKMeta, 3))
		require.NoError(t, PutJSON(ctx, s, SessionPK("SES-1"), SKMeta, 4))

		items, err := s.ScanPrefix(ctx, PrefixDisruption)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "DISRUPTION#DIS-A", items[0].PK)
		assert.Equal(t, "META", items[0].SK)
		assert.Equal(t, "SESSION#SES-1", items[1].SK)
		assert.Equal(t, "DISRUPTION#DIS-B", items[2].PK)

		none, err := s.ScanPrefix(ctx, "NOTHING#")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStore_RejectsEmptyKeys(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		err := s.Put(context.Background(), Item{PK: "", SK: SKMeta, Data: json.RawMessage(`{}`)})
		assert.Error(t, err)
	})
}

func TestStore_Ping(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func TestTurnSK(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6000, time.FixedZone("CET", 3600))
	assert.Equal(t, "TURN#2026-01-02T02:04:05.000006000Z#000007", TurnSK(ts, 7))
}

func TestIDFromPK(t *testing.T) {
	assert.Equal(t, "SES-1", IDFromPK("SESSION#SES-1"))
	assert.Equal(t, "DIS-1", IDFromPK("DISRUPTION#DIS-1"))
	assert.Equal(t, "OTHER", IDFromPK("OTHER"))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{config.StoreMemory, config.StoreBadger, config.StoreSQLite} {
		t.Run(backend, func(t *testing.T) {
			s, err := Open(context.Background(), config.StoreConfig{Backend: backend}, filepath.Join(dir, backend))
			require.NoError(t, err)
			defer func() { _ = s.Close() }()
			assert.Equal(t, backend, s.Backend())
			assert.NoError(t, PutJSON(context.Background(), s, SessionPK("x"), SKMeta, "ok"))
		})
	}

	_, err := Open(context.Background(), config.StoreConfig{Backend: "dynamo"}, dir)
	assert.Error(t, err)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Item{PK: "p", SK: "s", Data: json.RawMessage(`{"a":1}`)}))

	item, err := s.Get(ctx, "p", "s")
	require.NoError(t, err)
	item.Data[2] = 'b'

	again, err := s.Get(ctx, "p", "s")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(again.Data))
}

func TestMemoryStore_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Query(ctx, "p", "")
	assert.ErrorIs(t, err, context.Canceled)
}
