package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each key as a Redis string under a namespace prefix.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend creates a backend on an already-connected client.
func NewRedisBackend(client *redis.Client, prefix string) (*RedisBackend, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisBackend{client: client, prefix: prefix}, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, b.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Put uses MSET so both values land atomically.
func (b *RedisBackend) Put(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	pairs := make([]any, 0, len(entries)*2)
	for k, v := range entries {
		pairs = append(pairs, b.key(k), v)
	}
	if err := b.client.MSet(ctx, pairs...).Err(); err != nil {
		return fmt.Errorf("redis mset: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}
	if err := b.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (b *RedisBackend) key(k string) string {
	return RedisKey(b.prefix, k)
}

// RedisKey returns the namespaced Redis key for a progress key.
func RedisKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
