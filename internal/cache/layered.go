package cache

import "time"

// LayeredCache fronts the disk cache with a memory layer. Within one
// pipeline run repeated lookups of the same diagnosis or prompt hit
// memory; resumed runs in a fresh process warm up from the disk layer
// under the same cache directory.
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache builds a memory layer over a disk layer rooted at
// diskDir.
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// Get checks memory first, then disk. Disk hits are promoted into the
// memory layer with its default TTL so the next lookup stays in process.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set writes through to both layers so a later process sees the entry.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes the entry from both layers.
func (c *LayeredCache) Delete(key string) error {
	c.memory.Delete(key)
	c.disk.Delete(key)
	return nil
}

// Clear empties both layers.
func (c *LayeredCache) Clear() error {
	c.memory.Clear()
	c.disk.Clear()
	return nil
}
