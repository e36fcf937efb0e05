// Package cache holds the Redis-backed catalog cache and distributed locks.
// Every type has an in-process fallback used when Redis is disabled.
package cache

import (
	"context"
	"fmt"
	"time"

	"go-roastery-api/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects and pings; the caller owns the returned client
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
