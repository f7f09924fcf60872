package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps entries in process memory until they expire
type MemoryCache struct {
	name       string
	defaultTTL time.Duration
	items      *gocache.Cache
}

// NewMemoryCache creates a memory store. Expired entries are swept every cleanupInterval.
func NewMemoryCache(name string, defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		name:       name,
		defaultTTL: defaultTTL,
		items:      gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Name returns the store name
func (c *MemoryCache) Name() string {
	return c.name
}

// Get returns the entry stored for url
func (c *MemoryCache) Get(url string) (Entry, bool) {
	val, found := c.items.Get(key(url))
	if !found {
		return Entry{}, false
	}
	e, ok := val.(Entry)
	return e, ok
}

// Put stores data for url
func (c *MemoryCache) Put(url string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	c.put(newEntry(url, data, ttl, time.Now()))
	return nil
}

// put stores e as is, keeping its timestamps
func (c *MemoryCache) put(e Entry) {
	ttl := gocache.NoExpiration
	if !e.ExpiresAt.IsZero() {
		if ttl = time.Until(e.ExpiresAt); ttl <= 0 {
			return
		}
	}
	c.items.Set(key(e.URL), e, ttl)
}

// Delete removes the entry for url
func (c *MemoryCache) Delete(url string) error {
	c.items.Delete(key(url))
	return nil
}

// Clear removes every entry
func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Entries lists unexpired entries, newest first
func (c *MemoryCache) Entries() ([]Entry, error) {
	items := c.items.Items()
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		if e, ok := item.Object.(Entry); ok {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return out, nil
}
