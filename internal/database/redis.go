package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// ConnectRedis connects to the Redis instance backing the mining-data
// cache, the session store, per-IP rate limiting and the event pub/sub.
func ConnectRedis(redisURI string) error {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return err
	}

	// Traffic is dominated by short cache and session lookups from the
	// polling game client, plus one long-lived pub/sub subscriber. Keep
	// a slightly larger pool than the Postgres side and time out fast:
	// the cache and rate limiter fail open, so a slow Redis should shed
	// load rather than stall request handlers.
	opt.PoolSize = 20
	opt.MinIdleConns = 2
	opt.MaxRetries = 2
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 2 * time.Second
	opt.WriteTimeout = 2 * time.Second
	opt.PoolTimeout = 3 * time.Second
	opt.ConnMaxIdleTime = 10 * time.Minute

	RedisClient = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return err
	}

	log.Println("✅ Connected to Redis")
	return nil
}

// DisconnectRedis closes the Redis connection
func DisconnectRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
