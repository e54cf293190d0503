// Package cache opens the Redis connection the queue's Redis driver runs on.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/stockroom/config"
)

// Connect dials REDIS_ADDR and verifies the connection with a ping.
func Connect(ctx context.Context) (*redis.Client, error) {
	return Open(ctx, &redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})
}

// Open dials with opts. The client is closed again if the ping fails.
func Open(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
