package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewCacheClient opens the Redis client that backs OTP sessions and the
// replay cache, verifying connectivity before the server starts taking
// traffic.
func NewCacheClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
