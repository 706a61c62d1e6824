package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/spf13/afero"
)

// DiskCache persists enrichment replies across runs, one JSON file per key.
type DiskCache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a disk cache rooted at dir on fs. Entries written
// without their own TTL expire after ttl; zero means never.
func NewDiskCache(fs afero.Fs, dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		fs:  fs,
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
}

type cacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a value. Expired or unreadable entries are removed.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	p := c.path(key)

	data, err := afero.ReadFile(c.fs, p)
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = c.fs.Remove(p)
		return nil, false
	}

	if !entry.ExpiresAt.IsZero() && c.now().After(entry.ExpiresAt) {
		_ = c.fs.Remove(p)
		return nil, false
	}

	return entry.Data, true
}

// Set stores a value. A zero ttl uses the cache default; if that is also zero
// the entry never expires.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	entry := cacheEntry{Data: value}
	if ttl > 0 {
		entry.ExpiresAt = c.now().Add(ttl)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := c.fs.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.path(key), data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	return nil
}

// Delete removes the entry for key. A missing entry is not an error.
func (c *DiskCache) Delete(key string) error {
	if err := c.fs.Remove(c.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes the cache directory.
func (c *DiskCache) Clear() error {
	return c.fs.RemoveAll(c.dir)
}

// path maps a key to a file name. Keys carry ':' which some filesystems reject.
func (c *DiskCache) path(key string) string {
	name := []byte(key)
	for i, b := range name {
		if b == ':' {
			name[i] = '_'
		}
	}
	return path.Join(c.dir, string(name)+".cache")
}
