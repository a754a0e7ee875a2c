package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "splitsettle:event:"

// RedisGuard shares processed event ids across server instances.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard connects to redisURL and verifies the connection.
func NewRedisGuard(redisURL string, ttl time.Duration) (*RedisGuard, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	slog.Info("redis connection established", "addr", opt.Addr)
	return &RedisGuard{client: client, ttl: ttl}, nil
}

func (g *RedisGuard) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := g.client.Exists(ctx, keyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event %s: %w", eventID, err)
	}
	return n > 0, nil
}

func (g *RedisGuard) Mark(ctx context.Context, eventID string) error {
	// SetNX keeps the original expiry when an id is marked twice.
	if err := g.client.SetNX(ctx, keyPrefix+eventID, time.Now().Unix(), g.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark event %s: %w", eventID, err)
	}
	return nil
}

// Close closes the Redis connection.
func (g *RedisGuard) Close() error {
	return g.client.Close()
}
