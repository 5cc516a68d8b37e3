// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// keySep separates partition and sort key inside a badger key. Neither key
// may contain it.
const keySep = "\x00"

// BadgerStore is an embedded key-value store. Keys are pk + NUL + sk, so a
// partition is a contiguous key range.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(pk, sk string) []byte { return []byte(pk + keySep + sk) }

func (s *BadgerStore) Put(_ context.Context, item Item) error {
	item, err := normalize(item)
	if err != nil {
		return err
	}
	buf, err := encodeRecord(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(item.PK, item.SK), buf)
	})
}

func (s *BadgerStore) Get(_ context.Context, pk, sk string) (Item, error) {
	var out Item
	err := s.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(badgerKey(pk, sk))
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			out, err = decodeRecord(pk, sk, val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return out, nil
}

func (s *BadgerStore) Query(_ context.Context, pk, skPrefix string) ([]Item, error) {
	return s.iterate([]byte(pk + keySep + skPrefix))
}

func (s *BadgerStore) ScanPrefix(_ context.Context, pkPrefix string) ([]Item, error) {
	return s.iterate([]byte(pkPrefix))
}

func (s *BadgerStore) iterate(prefix []byte) ([]Item, error) {
	var out []Item
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			entry := it.Item()
			key := entry.KeyCopy(nil)
			pk, sk, ok := bytes.Cut(key, []byte(keySep))
			if !ok {
				continue
			}
			val, err := entry.ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err := decodeRecord(string(pk), string(sk), val)
			if err != nil {
				return err
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
