package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the process-local layer, backed by go-cache. It holds
// the embedding vectors and completions touched during the current run;
// nothing survives the process.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache whose entries expire after
// defaultTTL and are swept every cleanupInterval.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns the entry for key, if present and unexpired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores value under key. A zero ttl uses the default TTL.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes the entry for key.
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
