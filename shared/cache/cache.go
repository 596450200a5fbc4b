// Package cache holds analysis reports in a two-tier cache: an in-process
// LRU with expiry in front of an optional Redis instance shared between
// replicas. Concurrent loads of the same key are collapsed into one.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"comment-analyzer/shared/config"
	"comment-analyzer/shared/metrics"
)

const keyPrefix = "comment-analyzer:"

// Loader produces the value for a key on a cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// Loadable is anything that can serve GetOrLoad.
type Loadable interface {
	GetOrLoad(ctx context.Context, key string, load Loader) ([]byte, bool, error)
}

type Cache struct {
	l1      *expirable.LRU[string, []byte]
	rdb     *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.CacheMetrics
}

// New builds the cache. An empty or unreachable Redis URL leaves the cache
// running on the memory tier alone.
func New(ctx context.Context, cfg config.CacheConfig, m *metrics.CacheMetrics) *Cache {
	size := cfg.MaxEntries
	if size <= 0 {
		size = 500
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	c := &Cache{
		l1:      expirable.NewLRU[string, []byte](size, nil, ttl),
		ttl:     ttl,
		metrics: m,
	}

	if cfg.RedisURL != "" {
		rdb, err := connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("Redis cache disabled", "error", err)
		} else {
			c.rdb = rdb
		}
	}

	slog.Info("Report cache initialized", "ttl", ttl, "max_entries", size, "redis", c.rdb != nil)
	return c
}

func connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// Key joins parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

func (c *Cache) RedisEnabled() bool {
	return c.rdb != nil
}

// Len reports the number of live entries in the memory tier.
func (c *Cache) Len() int {
	return c.l1.Len()
}

// Get looks in memory first, then Redis. A Redis hit is copied into memory.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if data, ok := c.l1.Get(key); ok {
		c.metrics.Hit(metrics.LayerMemory)
		return data, true
	}
	c.metrics.Miss(metrics.LayerMemory)

	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("Redis cache read failed", "key", key, "error", err)
		}
		c.metrics.Miss(metrics.LayerRedis)
		return nil, false
	}
	c.metrics.Hit(metrics.LayerRedis)
	c.l1.Add(key, data)
	return data, true
}

// Set stores data in both tiers. Redis write failures are logged only.
func (c *Cache) Set(ctx context.Context, key string, data []byte) {
	c.l1.Add(key, data)
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		slog.Warn("Redis cache write failed", "key", key, "error", err)
	}
}

func (c *Cache) Delete(ctx context.Context, key string) {
	c.l1.Remove(key)
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
			slog.Warn("Redis cache delete failed", "key", key, "error", err)
		}
	}
}

// GetOrLoad returns the cached value for key or runs load once, however many
// callers ask at the same time. Errors are never cached. The bool reports
// whether the value came from the cache.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load Loader) ([]byte, bool, error) {
	if data, ok := c.Get(ctx, key); ok {
		return data, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		data, err := load(ctx)
		c.metrics.Load(err)
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// GetOrLoadJSON is GetOrLoad for values stored as JSON.
func GetOrLoadJSON[T any](ctx context.Context, c Loadable, key string, load func(ctx context.Context) (T, error)) (T, bool, error) {
	var out T
	data, cached, err := c.GetOrLoad(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return out, false, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		if d, ok := c.(interface{ Delete(context.Context, string) }); ok {
			d.Delete(ctx, key)
		}
		return out, false, fmt.Errorf("failed to decode cached value for %s: %w", key, err)
	}
	return out, cached, nil
}

func (c *Cache) Close() error {
	c.l1.Purge()
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}
