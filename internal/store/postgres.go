// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore stores items in a single JSONB table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgresStore connects to dsn and creates the items table if needed.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migration failed: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rebookd_items (
			pk TEXT NOT NULL,
			sk TEXT NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (pk, sk)
		)`)
	return err
}

func (s *PostgresStore) Put(ctx context.Context, item Item) error {
	item, err := normalize(item)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rebookd_items (pk, sk, data, updated_at) VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (pk, sk) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		item.PK, item.SK, string(item.Data), item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: put %s/%s: %w", item.PK, item.SK, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, pk, sk string) (Item, error) {
	var (
		data      string
		updatedAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT data::text, updated_at FROM rebookd_items WHERE pk = $1 AND sk = $2`, pk, sk).
		Scan(&data, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("postgres: get %s/%s: %w", pk, sk, err)
	}
	return Item{PK: pk, SK: sk, Data: []byte(data), UpdatedAt: updatedAt.UTC()}, nil
}

func (s *PostgresStore) Query(ctx context.Context, pk, skPrefix string) ([]Item, error) {
	return s.query(ctx, `
		SELECT pk, sk, data::text, updated_at FROM rebookd_items
		WHERE pk = $1 AND left(sk, length($2::text)) = $2::text
		ORDER BY sk COLLATE "C"`, pk, skPrefix)
}

func (s *PostgresStore) ScanPrefix(ctx context.Context, pkPrefix string) ([]Item, error) {
	return s.query(ctx, `
		SELECT pk, sk, data::text, updated_at FROM rebookd_items
		WHERE left(pk, length($1::text)) = $1::text
		ORDER BY pk COLLATE "C", sk COLLATE "C"`, pkPrefix)
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]Item, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var (
			item Item
			data string
		)
		if err := rows.Scan(&item.PK, &item.SK, &data, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		item.Data = []byte(data)
		item.UpdatedAt = item.UpdatedAt.UTC()
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
