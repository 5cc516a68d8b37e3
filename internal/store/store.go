// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists rebooking state as JSON documents addressed by a
// partition key and a sort key. Every backend orders results by (pk, sk).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNotFound is returned by Get when no item exists for (pk, sk).
var ErrNotFound = errors.New("store: item not found")

// Item is a single stored document.
type Item struct {
	PK        string          `json:"pk"`
	SK        string          `json:"sk"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Decode unmarshals the item payload into v.
func (i Item) Decode(v any) error {
	if err := json.Unmarshal(i.Data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", i.PK, i.SK, err)
	}
	return nil
}

// Store is the persistence contract shared by all backends.
type Store interface {
	// Put writes the item, replacing any existing item with the same keys.
	Put(ctx context.Context, item Item) error
	// Get returns ErrNotFound when the item does not exist.
	Get(ctx context.Context, pk, sk string) (Item, error)
	// Query returns all items of one partition whose sort key starts with
	// skPrefix, ordered by sort key. An empty prefix matches everything.
	Query(ctx context.Context, pk, skPrefix string) ([]Item, error)
	// ScanPrefix returns all items whose partition key starts with pkPrefix.
	ScanPrefix(ctx context.Context, pkPrefix string) ([]Item, error)
	Ping(ctx context.Context) error
	Close() error
}

// PutJSON marshals v and stores it under (pk, sk).
func PutJSON(ctx context.Context, s Store, pk, sk string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", pk, sk, err)
	}
	return s.Put(ctx, Item{PK: pk, SK: sk, Data: data, UpdatedAt: time.Now().UTC()})
}

// GetJSON loads (pk, sk) into v. The returned error wraps ErrNotFound when
// the item is missing.
func GetJSON(ctx context.Context, s Store, pk, sk string, v any) error {
	item, err := s.Get(ctx, pk, sk)
	if err != nil {
		return err
	}
	return item.Decode(v)
}

// record is the on-disk envelope for key-value backends.
type record struct {
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func encodeRecord(item Item) ([]byte, error) {
	return json.Marshal(record{Data: item.Data, UpdatedAt: item.UpdatedAt})
}

func decodeRecord(pk, sk string, raw []byte) (Item, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Item{}, fmt.Errorf("decode record %s/%s: %w", pk, sk, err)
	}
	return Item{PK: pk, SK: sk, Data: rec.Data, UpdatedAt: rec.UpdatedAt}, nil
}

func normalize(item Item) (Item, error) {
	if item.PK == "" || item.SK == "" {
		return Item{}, fmt.Errorf("store: pk and sk are required")
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}
	if len(item.Data) == 0 {
		item.Data = json.RawMessage("null")
	}
	return item, nil
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].PK != items[j].PK {
			return items[i].PK < items[j].PK
		}
		return items[i].SK < items[j].SK
	})
}
