package book

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func countingFetch(calls *int32, entries []Entry) func(context.Context) ([]Entry, error) {
	return func(context.Context) ([]Entry, error) {
		atomic.AddInt32(calls, 1)
		return entries, nil
	}
}

func TestListingCache_ServesWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewListingCache(DefaultCacheTTL).WithClock(clock.Now)
	var calls int32
	fetch := countingFetch(&calls, []Entry{{Book: Book{ID: 1}}})

	_, err := cache.Get(context.Background(), fetch)
	require.NoError(t, err)
	clock.Advance(9 * time.Second)
	got, err := cache.Get(context.Background(), fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Len(t, got, 1)
}

func TestListingCache_RefetchesAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewListingCache(DefaultCacheTTL).WithClock(clock.Now)
	var calls int32
	fetch := countingFetch(&calls, nil)

	_, _ = cache.Get(context.Background(), fetch)
	clock.Advance(DefaultCacheTTL)
	_, _ = cache.Get(context.Background(), fetch)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestListingCache_InvalidateForcesFetch(t *testing.T) {
	cache := NewListingCache(time.Hour)
	var calls int32
	fetch := countingFetch(&calls, nil)

	_, _ = cache.Get(context.Background(), fetch)
	cache.Invalidate()
	_, _ = cache.Get(context.Background(), fetch)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestListingCache_ErrorIsNotCached(t *testing.T) {
	cache := NewListingCache(time.Hour)
	boom := errors.New("db down")

	_, err := cache.Get(context.Background(), func(context.Context) ([]Entry, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	var calls int32
	_, err = cache.Get(context.Background(), countingFetch(&calls, nil))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestListingCache_CollapsesConcurrentMisses(t *testing.T) {
	cache := NewListingCache(time.Hour)
	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]Entry, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []Entry{{Book: Book{ID: 7}}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.Get(context.Background(), fetch)
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestListingCache_InvalidateDuringFetchDiscardsResult(t *testing.T) {
	cache := NewListingCache(time.Hour)
	started := make(chan struct{})
	release := make(chan struct{})
	stale := func(context.Context) ([]Entry, error) {
		close(started)
		<-release
		return []Entry{{Book: Book{ID: 1}}}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Get(context.Background(), stale)
	}()
	<-started
	cache.Invalidate()
	close(release)
	<-done

	var calls int32
	got, err := cache.Get(context.Background(), countingFetch(&calls, []Entry{{Book: Book{ID: 1}}, {Book: Book{ID: 2}}}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Len(t, got, 2)
}
