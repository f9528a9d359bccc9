package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"taskapp/internal/core/port"
)

type rateLimitEntry struct {
	Count     int64
	ResetTime time.Time
}

// RateLimitStore keeps fixed-window counters in process memory.
type RateLimitStore struct {
	cache *cache.Cache
	mutex sync.Mutex
	now   func() time.Time
}

func NewRateLimitStore() port.RateLimitStore {
	return newRateLimitStore(time.Now)
}

func newRateLimitStore(now func() time.Time) *RateLimitStore {
	return &RateLimitStore{
		cache: cache.New(5*time.Minute, 10*time.Minute),
		now:   now,
	}
}

func (s *RateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if item, found := s.cache.Get(key); found {
		entry := item.(rateLimitEntry)

		if now.Before(entry.ResetTime) {
			entry.Count++
			s.cache.Set(key, entry, entry.ResetTime.Sub(now))

			return entry.Count, entry.ResetTime, nil
		}
	}

	entry := rateLimitEntry{Count: 1, ResetTime: now.Add(window)}
	s.cache.Set(key, entry, window)

	return entry.Count, entry.ResetTime, nil
}

func (s *RateLimitStore) ItemCount() int {
	return s.cache.ItemCount()
}

func (s *RateLimitStore) Close() error {
	s.cache.Flush()
	return nil
}
