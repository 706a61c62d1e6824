package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k := Key("model", "prompt", "chunk")

	assert.True(t, strings.HasPrefix(k, "ftz2ged:v1:"))
	assert.Len(t, k, len("ftz2ged:v1:")+64)
	assert.Equal(t, k, Key("model", "prompt", "chunk"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)

	c := NewDiskCache(fs, "/cache", time.Hour)
	c.now = func() time.Time { return now }

	key := Key("x")
	require.NoError(t, c.Set(key, []byte(`[{"_PDEF":"@I0001@"}]`), 0))

	exists, err := afero.Exists(fs, "/cache/"+strings.ReplaceAll(key, ":", "_")+".cache")
	require.NoError(t, err)
	assert.True(t, exists)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, `[{"_PDEF":"@I0001@"}]`, string(got))

	now = now.Add(2 * time.Hour)
	_, ok = c.Get(key)
	assert.False(t, ok)

	exists, _ = afero.Exists(fs, "/cache/"+strings.ReplaceAll(key, ":", "_")+".cache")
	assert.False(t, exists)
}

func TestDiskCache_NoExpiry(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := NewDiskCache(fs, "/cache", 0)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	c.now = func() time.Time { return time.Now().Add(1000 * time.Hour) }

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := NewDiskCache(fs, "/cache", time.Hour)

	require.NoError(t, afero.WriteFile(fs, "/cache/k.cache", []byte("not json"), 0644))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache_Clear(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := NewDiskCache(fs, "/cache", time.Hour)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	require.NoError(t, c.Clear())

	exists, _ := afero.DirExists(fs, "/cache")
	assert.False(t, exists)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	fs := afero.NewMemMapFs()
	disk := NewDiskCache(fs, "/cache", time.Hour)
	require.NoError(t, disk.Set("k", []byte("v"), 0))

	c := NewLayeredCache(time.Minute, disk)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	require.NoError(t, disk.Clear())
	got, ok = c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))
}

func TestLayeredCache_MemoryOnly(t *testing.T) {
	c := NewLayeredCache(time.Minute, nil)

	_, ok := c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	require.NoError(t, c.Delete("k"))
	require.NoError(t, c.Clear())
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestLayeredCache_SetWritesThrough(t *testing.T) {
	fs := afero.NewMemMapFs()
	disk := NewDiskCache(fs, "/cache", time.Hour)
	c := NewLayeredCache(time.Minute, disk)

	require.NoError(t, c.Set("k", []byte("v"), 0))

	got, ok := disk.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))
}
