package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"propertychat/internal/config"

	"github.com/go-redis/redis/v8"
)

const searchCachePrefix = "propertychat:"

// RedisSearchCache stores encoded search responses in Redis
type RedisSearchCache struct {
	client *redis.Client
}

// NewRedisSearchCache connects to Redis and verifies the connection
func NewRedisSearchCache(ctx context.Context, cfg *config.CacheConfig) (*RedisSearchCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	return &RedisSearchCache{client: client}, nil
}

func (c *RedisSearchCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, searchCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisSearchCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, searchCachePrefix+key, value, ttl).Err()
}

func (c *RedisSearchCache) Close() error {
	return c.client.Close()
}
