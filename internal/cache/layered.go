package cache

import "time"

// memorySweep is how often the memory layer drops expired entries
const memorySweep = 10 * time.Minute

// LayeredCache fronts a disk store with a memory store. The disk layer is
// authoritative; the memory layer holds recently used entries.
type LayeredCache struct {
	memory    *MemoryCache
	disk      *DiskCache
	memoryTTL time.Duration
}

// NewLayeredCache creates a layered store persisting under dir
func NewLayeredCache(name string, memoryTTL time.Duration, dir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory:    NewMemoryCache(name, memoryTTL, memorySweep),
		disk:      NewDiskCache(name, dir, diskTTL),
		memoryTTL: memoryTTL,
	}
}

// Name returns the store name
func (c *LayeredCache) Name() string {
	return c.disk.Name()
}

// Get checks memory, then disk. Disk hits are promoted to memory for at most
// the memory TTL and never past their own expiry.
func (c *LayeredCache) Get(url string) (Entry, bool) {
	if e, ok := c.memory.Get(url); ok {
		return e, true
	}

	e, ok := c.disk.Get(url)
	if !ok {
		return Entry{}, false
	}

	promoted := e
	if c.memoryTTL > 0 {
		limit := time.Now().Add(c.memoryTTL)
		if promoted.ExpiresAt.IsZero() || promoted.ExpiresAt.After(limit) {
			promoted.ExpiresAt = limit
		}
	}
	c.memory.put(promoted)
	return e, true
}

// Put writes to disk first so memory never holds an entry disk lacks
func (c *LayeredCache) Put(url string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.disk.defaultTTL
	}
	e := newEntry(url, data, ttl, time.Now())
	if err := c.disk.write(e); err != nil {
		return err
	}

	if c.memoryTTL > 0 && (ttl < 0 || ttl > c.memoryTTL) {
		e.ExpiresAt = e.StoredAt.Add(c.memoryTTL)
	}
	c.memory.put(e)
	return nil
}

// Delete removes url from both layers
func (c *LayeredCache) Delete(url string) error {
	_ = c.memory.Delete(url)
	return c.disk.Delete(url)
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}

// Entries lists the disk layer
func (c *LayeredCache) Entries() ([]Entry, error) {
	return c.disk.Entries()
}
