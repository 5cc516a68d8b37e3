// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rebookd:item:"

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// RedisStore keeps one hash per partition; hash fields are sort keys.
type RedisStore struct {
	client *redis.Client
}

// OpenRedisStore connects and verifies the server is reachable.
func OpenRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, item Item) error {
	item, err := normalize(item)
	if err != nil {
		return err
	}
	buf, err := encodeRecord(item)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, redisKeyPrefix+item.PK, item.SK, buf).Err(); err != nil {
		return fmt.Errorf("redis: put %s/%s: %w", item.PK, item.SK, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, pk, sk string) (Item, error) {
	raw, err := s.client.HGet(ctx, redisKeyPrefix+pk, sk).Bytes()
	if errors.Is(err, redis.Nil) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("redis: get %s/%s: %w", pk, sk, err)
	}
	return decodeRecord(pk, sk, raw)
}

func (s *RedisStore) Query(ctx context.Context, pk, skPrefix string) ([]Item, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+pk).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: query %s: %w", pk, err)
	}
	out, err := itemsFromHash(pk, skPrefix, fields)
	if err != nil {
		return nil, err
	}
	sortItems(out)
	return out, nil
}

func (s *RedisStore) ScanPrefix(ctx context.Context, pkPrefix string) ([]Item, error) {
	match := redisKeyPrefix + globEscaper.Replace(pkPrefix) + "*"

	var keys []string
	iter := s.client.Scan(ctx, 0, match, 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis: scan %s: %w", pkPrefix, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis: scan fetch: %w", err)
	}

	var out []Item
	for i, cmd := range cmds {
		items, err := itemsFromHash(strings.TrimPrefix(keys[i], redisKeyPrefix), "", cmd.Val())
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	sortItems(out)
	return out, nil
}

func itemsFromHash(pk, skPrefix string, fields map[string]string) ([]Item, error) {
	out := make([]Item, 0, len(fields))
	for sk, raw := range fields {
		if !strings.HasPrefix(sk, skPrefix) {
			continue
		}
		item, err := decodeRecord(pk, sk, []byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }
func (s *RedisStore) Close() error                   { return s.client.Close() }
