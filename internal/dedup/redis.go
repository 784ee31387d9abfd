package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "observo:dedup:"

// Redis shares seen keys across consumer instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// ConnectRedis dials addr and verifies the connection with PING.
func ConnectRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedis(client, ttl), nil
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Seen(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Mark(ctx context.Context, key string) error {
	if err := r.client.SetNX(ctx, keyPrefix+key, 1, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
