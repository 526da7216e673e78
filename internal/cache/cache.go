// Package cache provides the read-through cache used for dashboard
// summaries. Redis backs it in production; NoopCache is used when Redis
// is not configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Cache stores opaque values with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// RedisCache implements Cache on Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache namespacing every key under "cache:".
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "cache:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return b, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix using SCAN + DEL in
// pipelined batches so the server is never blocked.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	pattern := c.prefix + prefix + "*"
	iter := c.client.Scan(ctx, 0, pattern, 200).Iterator()
	pipe := c.client.Pipeline()
	batch, deleted := 0, 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		batch++
		deleted++
		if batch >= 500 {
			if _, err := pipe.Exec(ctx); err != nil {
				return deleted, fmt.Errorf("redis DEL pipeline: %w", err)
			}
			pipe = c.client.Pipeline()
			batch = 0
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis SCAN %s: %w", pattern, err)
	}
	if batch > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return deleted, fmt.Errorf("redis DEL pipeline: %w", err)
		}
	}
	return deleted, nil
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopCache) DeletePrefix(context.Context, string) (int, error)        { return 0, nil }

// GetJSON decodes a cached value into dst. It returns false on a miss or
// when the stored bytes no longer decode.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	b, err := c.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return c.Set(ctx, key, b, ttl)
}
