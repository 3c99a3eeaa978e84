// Package redis implements the Redis-backed suggestion cache.
//
// Key components:
//   - Cache: JSON values, raw counters and TTLs over go-redis
//   - SuggestionCache: student.SuggestionCache on top of Cache
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options select the Redis server. Pool sizing and socket timeouts are
// fixed: the cache serves one process with short single-key commands.
type Options struct {
	Host        string
	Port        int
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Addr returns "host:port".
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

var (
	// ErrCacheMiss is returned when the key does not exist.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheUnavailable is returned when the server does not answer at startup.
	ErrCacheUnavailable = errors.New("cache: server unavailable")

	// ErrCacheSerialization is returned when a stored value cannot be decoded.
	ErrCacheSerialization = errors.New("cache: serialization failed")
)

// Cache wraps a go-redis client.
type Cache struct {
	rdb *redis.Client
}

// NewCache connects and pings within DialTimeout. The client is closed
// again when the ping fails.
func NewCache(ctx context.Context, opts Options) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     4,
		MaxRetries:   1,
	})

	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrCacheUnavailable, opts.Addr(), err)
	}
	return &Cache{rdb: rdb}, nil
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Ping checks the server; used by the health endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Set stores value as JSON. A zero ttl keeps the key forever.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheSerialization, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Get decodes the JSON value at key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.GetString(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCacheSerialization, key, err)
	}
	return nil
}

// GetString returns the raw value at key, e.g. a counter written by Incr.
func (c *Cache) GetString(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

// Incr atomically increments the counter at key.
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}
