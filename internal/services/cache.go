package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL applies when the configured TTL is not positive
	DefaultCacheTTL = 5 * time.Minute

	publicLinks    = "links"
	publicProducts = "products"
)

// ProfileCache holds public profile listings in Redis. It fails open: any Redis
// error is logged and treated as a miss. A nil *ProfileCache caches nothing.
type ProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewProfileCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ProfileCache{rdb: rdb, ttl: ttl, log: log}
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%spublic:%s:%s", CacheKeyPrefix, resource, identifier)
}

// Get decodes the cached value into dest and reports whether it was present.
func (c *ProfileCache) Get(ctx context.Context, resource, userID string, dest interface{}) bool {
	if c == nil {
		return false
	}
	key := CacheKey(resource, userID)

	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		c.log.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *ProfileCache) Set(ctx context.Context, resource, userID string, value interface{}) {
	if c == nil {
		return
	}
	key := CacheKey(resource, userID)

	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the cached listing so the next public read goes to the store.
func (c *ProfileCache) Invalidate(ctx context.Context, resource, userID string) {
	if c == nil {
		return
	}
	key := CacheKey(resource, userID)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}
