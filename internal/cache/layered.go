package cache

import (
	"errors"
	"time"
)

// memorySweep is how often expired memory entries are dropped.
const memorySweep = 10 * time.Minute

// LayeredCache serves from memory and falls back to a persistent layer. A
// persistent hit is copied into memory for the rest of the run.
type LayeredCache struct {
	memory     Cache
	persistent Cache
}

// NewLayeredCache creates a layered cache. A nil persistent layer gives a
// memory-only cache.
func NewLayeredCache(memoryTTL time.Duration, persistent Cache) *LayeredCache {
	return &LayeredCache{
		memory:     NewMemoryCache(memoryTTL, memorySweep),
		persistent: persistent,
	}
}

func (c *LayeredCache) layers() []Cache {
	if c.persistent == nil {
		return []Cache{c.memory}
	}
	return []Cache{c.memory, c.persistent}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if reply, ok := c.memory.Get(key); ok {
		return reply, true
	}
	if c.persistent == nil {
		return nil, false
	}
	reply, ok := c.persistent.Get(key)
	if ok {
		_ = c.memory.Set(key, reply, 0)
	}
	return reply, ok
}

// Set writes value to every layer and joins their errors.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, layer := range c.layers() {
		errs = append(errs, layer.Set(key, value, ttl))
	}
	return errors.Join(errs...)
}

func (c *LayeredCache) Delete(key string) error {
	var errs []error
	for _, layer := range c.layers() {
		errs = append(errs, layer.Delete(key))
	}
	return errors.Join(errs...)
}

func (c *LayeredCache) Clear() error {
	var errs []error
	for _, layer := range c.layers() {
		errs = append(errs, layer.Clear())
	}
	return errors.Join(errs...)
}
