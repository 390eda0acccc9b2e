package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheKeyPrefix is the Redis key prefix for cached data
const CacheKeyPrefix = "cache:"

// Cache is a read-through cache with explicit invalidation. The TTL is a
// safety net only; every write path must Delete the affected key itself.
type Cache interface {
	// Get unmarshals the cached value into dest and reports a hit. A miss
	// is not an error.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// MiningDataKey is the cache key for a user's mining record projection.
func MiningDataKey(userID string) string {
	return "mining:" + userID
}

// RedisCache implements Cache on Redis with a fixed expiry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, CacheKeyPrefix+key).Result()
	if err != nil {
		return false, nil // cache miss, not an error
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CacheKeyPrefix+key, jsonData, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, CacheKeyPrefix+key).Err()
}
