package book

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a listing snapshot is served without refetching.
const DefaultCacheTTL = 10 * time.Second

const listingKey = "listing"

// ListingCache is a read-through cache holding one snapshot of the enriched
// listing. Concurrent misses share a single fetch.
type ListingCache struct {
	ttl time.Duration
	now func() time.Time

	mu         sync.RWMutex
	entries    []Entry
	fetchedAt  time.Time
	populated  bool
	generation uint64

	group singleflight.Group
}

func NewListingCache(ttl time.Duration) *ListingCache {
	return &ListingCache{ttl: ttl, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (c *ListingCache) WithClock(now func() time.Time) *ListingCache {
	c.now = now
	return c
}

// Get returns the snapshot if it is younger than the TTL, otherwise calls
// fetch and stores its result. The returned slice must not be modified.
func (c *ListingCache) Get(ctx context.Context, fetch func(context.Context) ([]Entry, error)) ([]Entry, error) {
	if entries, ok := c.fresh(); ok {
		return entries, nil
	}

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	v, err, _ := c.group.Do(listingKey, func() (interface{}, error) {
		entries, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(gen, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Entry), nil
}

// Invalidate drops the snapshot so the next Get refetches. A fetch already
// in flight will not repopulate the cache.
func (c *ListingCache) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.populated = false
	c.generation++
	c.mu.Unlock()
	c.group.Forget(listingKey)
}

func (c *ListingCache) fresh() ([]Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.populated || c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.entries, true
}

func (c *ListingCache) store(gen uint64, entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.entries = entries
	c.fetchedAt = c.now()
	c.populated = true
}
