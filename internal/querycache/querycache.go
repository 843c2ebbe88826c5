// Package querycache is the client-side read cache shared by every view of
// the dashboard API. Reads go through Fetch; a credential change calls
// InvalidateAll so nothing fetched under the old credential survives.
package querycache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Keys for the environment reads.
const (
	KeyMyEnvironments     = "myEnvironments"
	KeyCurrentEnvironment = "currentEnvironment"
)

const DefaultTTL = 5 * time.Minute

// Cache is a read-through TTL cache. Concurrent misses for the same key are
// not coalesced; the last writer wins.
type Cache struct {
	store *gocache.Cache

	mu          sync.Mutex
	generation  uint64
	invalidated int
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: gocache.New(ttl, ttl*2)}
}

// Fetch returns the cached value for key or calls load and caches its result.
// Errors are not cached. A value loaded across an InvalidateAll is returned
// to the caller but not stored.
func Fetch[T any](c *Cache, key string, load func() (T, error)) (T, error) {
	if cached, found := c.store.Get(key); found {
		if v, ok := cached.(T); ok {
			return v, nil
		}
	}

	gen := c.currentGeneration()
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	if gen == c.generation {
		c.store.Set(key, v, gocache.DefaultExpiration)
	}
	c.mu.Unlock()
	return v, nil
}

// Load is the untyped form of Fetch.
func (c *Cache) Load(key string, load func() (any, error)) (any, error) {
	return Fetch(c, key, load)
}

// Invalidate drops a single key.
func (c *Cache) Invalidate(key string) {
	c.store.Delete(key)
}

// InvalidateAll drops every cached read.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.generation++
	c.invalidated++
	c.store.Flush()
	c.mu.Unlock()
}

// Len reports the number of cached entries, expired ones included until the
// janitor runs.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Invalidations reports how many times InvalidateAll ran.
func (c *Cache) Invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated
}

func (c *Cache) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}
