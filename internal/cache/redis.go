// Package cache provides the Redis-backed history cache and rate limiter.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key this package writes.
const DefaultKeyPrefix = "meditrack:"

// Options tunes the Redis client. Zero fields keep the defaults.
type Options struct {
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.KeyPrefix == "" {
		o.KeyPrefix = DefaultKeyPrefix
	}
	if o.PoolSize <= 0 {
		o.PoolSize = 10
	}
	if o.MinIdleConns <= 0 {
		o.MinIdleConns = 2
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 3 * time.Second
	}
	return o
}

// Cache wraps a Redis client and the key namespace.
type Cache struct {
	client *redis.Client
	prefix string
}

// New connects to redisURL and pings it once. The client is closed again if
// the ping fails.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts = opts.withDefaults()
	parsed.PoolSize = opts.PoolSize
	parsed.MinIdleConns = opts.MinIdleConns
	parsed.DialTimeout = opts.DialTimeout
	parsed.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cache{client: client, prefix: opts.KeyPrefix}, nil
}

// key joins parts under the cache namespace.
func (c *Cache) key(parts ...string) string {
	return c.prefix + strings.Join(parts, ":")
}

// Ping implements the readiness check.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
