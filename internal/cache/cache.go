package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/reviewharvest/internal/model"
)

// Cache defines the interface for response caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key for a response. kind separates HTML pages from
// API payloads fetched from the same URL.
func Key(kind, url string) string {
	hash := sha256.Sum256([]byte(kind + "\x00" + url))
	return "reviewharvest:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg: memory in front of disk, or a
// no-op cache when caching is disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Noop{}
	}
	memTTL := cfg.TTL
	if memTTL <= 0 || memTTL > 30*time.Minute {
		memTTL = 30 * time.Minute
	}
	return NewLayeredCache(memTTL, cfg.Dir, cfg.TTL)
}

// Noop is a Cache that stores nothing
type Noop struct{}

func (Noop) Get(string) ([]byte, bool) { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
func (Noop) Delete(string) error { return nil }
func (Noop) Clear() error { return nil }
