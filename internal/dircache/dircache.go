// Package dircache caches sorted directory listings so directories already
// visited are not re-scanned. The cache is bounded; the least recently used
// listing is evicted when a new entry would exceed capacity.
package dircache

import (
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/scto/Orbit-VFMS/internal/metrics"
	"github.com/scto/Orbit-VFMS/internal/models"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 150

// Cache maps a directory identity to its previously computed sorted
// children. One mutex serializes the foreground expansion path and the
// background prefetch scanner; no entry is ever observed partially written.
type Cache struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, []models.Entry]
}

// New creates a cache bounded to capacity entries.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	entries, err := simplelru.NewLRU[string, []models.Entry](capacity, func(string, []models.Entry) {
		metrics.RecordCacheEviction()
	})
	if err != nil {
		return nil, fmt.Errorf("create directory cache: %w", err)
	}

	return &Cache{entries: entries}, nil
}

// Get returns the cached sorted children for path. The returned slice must
// not be mutated by the caller.
func (c *Cache) Get(path string) ([]models.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	children, ok := c.entries.Get(path)
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return children, ok
}

// Contains reports whether path has a cached listing without updating
// recency or hit counters.
func (c *Cache) Contains(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Contains(path)
}

// Put stores the sorted children for path, evicting the least recently
// used entry if the cache is full. The listing is copied in.
func (c *Cache) Put(path string, children []models.Entry) {
	stored := make([]models.Entry, len(children))
	copy(stored, children)

	c.mu.Lock()
	c.entries.Add(path, stored)
	n := c.entries.Len()
	c.mu.Unlock()

	metrics.SetCacheEntries(n)
}

// Remove drops the cached listing for path, if any.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	c.entries.Remove(path)
	n := c.entries.Len()
	c.mu.Unlock()

	metrics.SetCacheEntries(n)
}

// Reset drops every cached listing.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries.Purge()
	c.mu.Unlock()

	metrics.SetCacheEntries(0)
}

// Len returns the current number of cached listings.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
