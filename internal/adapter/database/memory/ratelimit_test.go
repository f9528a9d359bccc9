package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIncrement_CountsWithinWindow(t *testing.T) {
	store := NewRateLimitStore()
	defer store.Close()

	first, reset, err := store.Increment(context.Background(), "k", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, sameReset, _ := store.Increment(context.Background(), "k", time.Minute)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, reset, sameReset)

	other, _, _ := store.Increment(context.Background(), "other", time.Minute)
	assert.Equal(t, int64(1), other)
}

func TestIncrement_ResetsAfterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newRateLimitStore(func() time.Time { return now })

	store.Increment(context.Background(), "k", time.Second)
	store.Increment(context.Background(), "k", time.Second)

	now = now.Add(2 * time.Second)

	count, reset, _ := store.Increment(context.Background(), "k", time.Second)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, now.Add(time.Second), reset)
}

func TestIncrement_Concurrent(t *testing.T) {
	store := newRateLimitStore(time.Now)

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Increment(context.Background(), "k", time.Minute)
		}()
	}

	wg.Wait()

	count, _, _ := store.Increment(context.Background(), "k", time.Minute)
	assert.Equal(t, int64(51), count)
	assert.Equal(t, 1, store.ItemCount())
}
