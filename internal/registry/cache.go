package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache decorates a Client with a Redis-backed TTL cache for single-product
// lookups. Listings are not cached: the `products` command is expected to
// show the live catalog, and staleness there confuses administrators.
//
// Lookup failures from Redis degrade to the inner client rather than failing
// the command; the cache is an optimization, not a dependency.
type Cache struct {
	inner  Client
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(inner Client, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{inner: inner, redis: rdb, ttl: ttl, logger: logger}
}

func (c *Cache) Product(ctx context.Context, token, id string) (Product, error) {
	key := "registry:product:" + id

	cached, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var p Product
		if err := json.Unmarshal(cached, &p); err == nil {
			return p, nil
		}
		// Unreadable entries are dropped and refetched.
		c.redis.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("registry cache read failed", "key", key, "error", err)
	}

	p, err := c.inner.Product(ctx, token, id)
	if err != nil {
		return Product{}, err
	}

	encoded, err := json.Marshal(p)
	if err != nil {
		return Product{}, fmt.Errorf("encode registry cache entry: %w", err)
	}
	if err := c.redis.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.logger.Warn("registry cache write failed", "key", key, "error", err)
	}
	return p, nil
}

func (c *Cache) Products(ctx context.Context, token string) ([]Product, error) {
	return c.inner.Products(ctx, token)
}
