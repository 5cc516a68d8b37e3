// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps items in process memory. Data is lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{partitions: make(map[string]map[string]Item)}
}

func (m *MemoryStore) Put(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	item, err := normalize(item)
	if err != nil {
		return err
	}
	item.Data = append([]byte(nil), item.Data...)

	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partitions[item.PK]
	if !ok {
		p = make(map[string]Item)
		m.partitions[item.PK] = p
	}
	p[item.SK] = item
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, pk, sk string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.partitions[pk][sk]
	if !ok {
		return Item{}, ErrNotFound
	}
	return clone(item), nil
}

func (m *MemoryStore) Query(ctx context.Context, pk, skPrefix string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var out []Item
	for sk, item := range m.partitions[pk] {
		if strings.HasPrefix(sk, skPrefix) {
			out = append(out, clone(item))
		}
	}
	m.mu.RUnlock()
	sortItems(out)
	return out, nil
}

func (m *MemoryStore) ScanPrefix(ctx context.Context, pkPrefix string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var out []Item
	for pk, p := range m.partitions {
		if !strings.HasPrefix(pk, pkPrefix) {
			continue
		}
		for _, item := range p {
			out = append(out, clone(item))
		}
	}
	m.mu.RUnlock()
	sortItems(out)
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close() error              { return nil }

func clone(item Item) Item {
	item.Data = append([]byte(nil), item.Data...)
	return item
}
