package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"taskapp/internal/core/port"
	"taskapp/pkg/config"
)

const keyPrefix = "rl:"

// RateLimitStore keeps fixed-window counters in Redis using INCR and EXPIRE,
// so limits hold across every API instance sharing the server.
type RateLimitStore struct {
	client *goredis.Client
}

func NewClient(cfg config.RedisConfig) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRateLimitStore pings the server before returning the store.
func NewRateLimitStore(ctx context.Context, client *goredis.Client) (port.RateLimitStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RateLimitStore{client: client}, nil
}

func (s *RateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	key = keyPrefix + key

	count, err := s.client.Incr(ctx, key).Result()

	if err != nil {
		return 0, time.Time{}, err
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, time.Time{}, err
		}

		return count, time.Now().Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, key).Result()

	if err != nil {
		return count, time.Time{}, err
	}

	// A key left without expiry by an earlier failure would never reset.
	if ttl < 0 {
		s.client.Expire(ctx, key, window)
		ttl = window
	}

	return count, time.Now().Add(ttl), nil
}

func (s *RateLimitStore) Close() error {
	return s.client.Close()
}
