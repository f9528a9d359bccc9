package port

import (
	"context"
	"time"
)

// RateLimitStore counts hits per key inside a fixed window.
type RateLimitStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
	Close() error
}
