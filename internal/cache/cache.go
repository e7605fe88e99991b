// Package cache holds query responses in Redis for a short TTL so repeated
// dashboard polls do not replay the full trade history each time.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/liamashdown/polymonitor/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "polymonitor:query:"

// Cache stores encoded query responses
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Purge(ctx context.Context) error
}

// RedisCache is a Cache backed by Redis. Lookup and write failures are
// treated as misses.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to the Redis instance at url
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCache{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

// Ping checks Redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the Redis connection pool
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// Get returns the cached value for key
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, Key(key)).Bytes()
	hit := err == nil
	metrics.RecordCacheLookup(hit)
	return data, hit
}

// Set stores value under key for the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	c.rdb.Set(ctx, Key(key), value, c.ttl)
}

// Purge deletes every cached response
func (c *RedisCache) Purge(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Key namespaces a request key
func Key(requestKey string) string {
	return keyPrefix + requestKey
}

// Noop is a Cache that never hits
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte)        {}
func (Noop) Purge(context.Context) error                { return nil }
