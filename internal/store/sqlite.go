// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

const sqliteSchemaVersion = 1

// SQLiteConfig defines SQLite operational parameters.
type SQLiteConfig struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultSQLiteConfig returns the recommended configuration.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
	}
}

// SQLiteStore stores items in a single table keyed by (pk, sk).
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens the database with WAL journaling and migrates the schema.
func OpenSQLiteStore(dbPath string, cfg SQLiteConfig) (*SQLiteStore, error) {
	// PRAGMAs go in the DSN so they apply to every pooled connection.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		dbPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= sqliteSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS items (
		pk TEXT NOT NULL,
		sk TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at_ms INTEGER NOT NULL,
		PRIMARY KEY (pk, sk)
	) WITHOUT ROWID;`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Put(ctx context.Context, item Item) error {
	item, err := normalize(item)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (pk, sk, data, updated_at_ms) VALUES (?, ?, ?, ?)
		ON CONFLICT(pk, sk) DO UPDATE SET data = excluded.data, updated_at_ms = excluded.updated_at_ms`,
		item.PK, item.SK, string(item.Data), item.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite: put %s/%s: %w", item.PK, item.SK, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, pk, sk string) (Item, error) {
	var (
		data string
		ms   int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, updated_at_ms FROM items WHERE pk = ? AND sk = ?`, pk, sk).Scan(&data, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("sqlite: get %s/%s: %w", pk, sk, err)
	}
	return Item{PK: pk, SK: sk, Data: []byte(data), UpdatedAt: time.UnixMilli(ms).UTC()}, nil
}

func (s *SQLiteStore) Query(ctx context.Context, pk, skPrefix string) ([]Item, error) {
	return s.query(ctx, `
		SELECT pk, sk, data, updated_at_ms FROM items
		WHERE pk = ? AND substr(sk, 1, length(?)) = ?
		ORDER BY sk`, pk, skPrefix, skPrefix)
}

func (s *SQLiteStore) ScanPrefix(ctx context.Context, pkPrefix string) ([]Item, error) {
	return s.query(ctx, `
		SELECT pk, sk, data, updated_at_ms FROM items
		WHERE substr(pk, 1, length(?)) = ?
		ORDER BY pk, sk`, pkPrefix, pkPrefix)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Item
	for rows.Next() {
		var (
			item Item
			data string
			ms   int64
		)
		if err := rows.Scan(&item.PK, &item.SK, &data, &ms); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		item.Data = []byte(data)
		item.UpdatedAt = time.UnixMilli(ms).UTC()
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLiteStore) Close() error                   { return s.db.Close() }
