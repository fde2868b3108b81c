package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_SeparatesKinds(t *testing.T) {
	a := Key("html", "https://shop.example.com/")
	b := Key("api", "https://shop.example.com/")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "reviewharvest:v1:html:"))
	assert.Equal(t, a, Key("html", "https://shop.example.com/"))
}

func TestMemoryCache_CopiesBodies(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	body := []byte("hello")
	require.NoError(t, c.Set("k", body, 0))
	body[0] = 'j'

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "hello", string(got))
	assert.Equal(t, 1, c.Len())
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("api", "https://judge.me/api/v1/reviews")
	require.NoError(t, c.Set(key, []byte(`{"reviews":[]}`), 0))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"reviews":[]}`, string(got))

	require.NoError(t, c.Set(key, []byte("stale"), time.Nanosecond))
	time.Sleep(2 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "expired entry should be removed")
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("html", "https://example.com")
	require.NoError(t, os.WriteFile(filepath.Join(dir, strings.ReplaceAll(key, ":", "_")+".json"), []byte("{"), 0644))

	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.NoError(t, c.Delete(key))
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)
	require.NoError(t, c.Set("k", []byte("v"), 0))

	// A fresh layered cache over the same dir sees the disk entry
	c2 := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := c2.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	_, ok = c2.memory.Get("k")
	assert.True(t, ok)

	require.NoError(t, c2.Clear())
	_, ok = c2.Get("k")
	assert.False(t, ok)
}

func TestNew_Disabled(t *testing.T) {
	c := New(model.CacheConfig{Enabled: false})
	require.NoError(t, c.Set("k", []byte("v"), 0))
	_, ok := c.Get("k")
	assert.False(t, ok)
}
