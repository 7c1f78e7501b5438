package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs the Cache interface with Redis. The speech pipeline is
// its only current consumer, so values are opaque strings (audio bytes
// round-trip through go-redis as-is).
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects a cache to the given Redis address.
func NewRedisCache(addr string, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		logger: logger,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache ping failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := c.client.Set(ctx, key, value, expiration).Err(); err != nil {
		c.logger.Error("Cache SET failed", "key", key, "error", err)
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Get returns the cached value, or "" without error when the key is absent.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		c.logger.Error("Cache GET failed", "key", key, "error", err)
		return "", fmt.Errorf("cache get failed: %w", err)
	}
	return val, nil
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("Cache DEL failed", "keys", keys, "error", err)
		return fmt.Errorf("cache del failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	n, err := c.client.Exists(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists failed: %w", err)
	}
	return n > 0, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// WaitForConnection polls until Redis answers or the context ends. Startup
// calls this so the API doesn't race its compose dependencies.
func (c *RedisCache) WaitForConnection(ctx context.Context) error {
	const retryDelay = 2 * time.Second
	const maxRetries = 30

	for i := 0; i < maxRetries; i++ {
		if err := c.Ping(ctx); err == nil {
			c.logger.Info("Cache connection established")
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for cache: %w", ctx.Err())
		case <-time.After(retryDelay):
		}
	}
	return fmt.Errorf("cache did not become available after %d attempts", maxRetries)
}
