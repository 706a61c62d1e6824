package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps enrichment replies in process memory. Entries expire
// after their TTL and are swept every cleanup interval.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a memory cache whose entries live for defaultTTL
// unless Set is given its own.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	raw, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	reply, ok := raw.([]byte)
	return reply, ok
}

// Set stores value. A ttl of zero or less falls back to the default TTL.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len reports the number of stored entries, including expired ones not yet
// swept.
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
