package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/flowbridge/flowbridge-mcp/pkg/config"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// DocumentCache keeps values derived from document bytes, keyed by a content
// hash. A nil *DocumentCache is valid and caches nothing.
type DocumentCache[V any] struct {
	ttl        time.Duration
	maxEntries int
	logger     *slog.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry[V]

	stop chan struct{}
	once sync.Once
	now  func() time.Time
}

// NewDocumentCache returns nil when caching is disabled.
func NewDocumentCache[V any](cfg config.CacheConfig, logger *slog.Logger) *DocumentCache[V] {
	if !cfg.Enabled || cfg.TTL <= 0 {
		return nil
	}

	c := &DocumentCache[V]{
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		logger:     logger,
		entries:    make(map[string]cacheEntry[V]),
		stop:       make(chan struct{}),
		now:        time.Now,
	}
	go c.runCleanup(cfg.TTL / 2)

	logger.Debug("Document cache initialized",
		"ttl", cfg.TTL,
		"max_entries", cfg.MaxEntries)
	return c
}

// Get returns the value stored for kind and data if it has not expired.
func (c *DocumentCache[V]) Get(kind string, data []byte) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}

	key := Key(kind, data)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return zero, false
	}
	c.logger.Debug("Document cache hit", "kind", kind, "key", key)
	return entry.value, true
}

// Set stores value for kind and data. When the cache is full the entry
// closest to expiry is evicted.
func (c *DocumentCache[V]) Set(kind string, data []byte, value V) {
	if c == nil {
		return
	}

	key := Key(kind, data)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Len counts stored entries, expired ones included until the next cleanup.
func (c *DocumentCache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Invalidate clears all cached entries
func (c *DocumentCache[V]) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry[V])
	c.logger.Debug("Document cache invalidated")
}

// Stop ends the background cleanup. It is safe to call more than once.
func (c *DocumentCache[V]) Stop() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

// Key is the hex SHA-256 of kind and data, kept whole so distinct documents
// never share an entry.
func Key(kind string, data []byte) string {
	hasher := sha256.New()
	hasher.Write([]byte(kind))
	hasher.Write([]byte{0})
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

func (c *DocumentCache[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func (c *DocumentCache[V]) runCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

// cleanupExpired removes expired cache entries
func (c *DocumentCache[V]) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	cleaned := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			cleaned++
		}
	}
	if cleaned > 0 {
		c.logger.Debug("Cleaned expired document cache entries", "count", cleaned)
	}
}
