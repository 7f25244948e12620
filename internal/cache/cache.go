package cache

import (
	"strings"
	"sync"
	"time"
)

// entry is a fully populated cache record. Entries are immutable once
// stored; a write replaces the whole entry under the lock, so readers never
// observe a partially constructed payload.
type entry struct {
	payload   interface{}
	createdAt time.Time
	ttl       time.Duration
	version   uint64
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) >= e.ttl
}

// Cache is an in-memory TTL cache keyed by operation and parameters. It is
// explicitly constructed and passed, never a package singleton, so tests can
// run against independent instances.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	version uint64

	now func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key builds a cache key from an operation name and its parameters.
func Key(op string, params ...string) string {
	return op + ":" + strings.Join(params, ":")
}

// Get returns the payload for key if present and inside its TTL. An expired
// entry counts as a miss and is evicted lazily.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		c.mu.Lock()
		// Re-check under the write lock; a fresh Put may have raced.
		if cur, ok := c.entries[key]; ok && cur.version == e.version {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.payload, true
}

// Put stores payload under key with the caller-specified TTL. The entry
// becomes visible to readers only once fully populated.
func (c *Cache) Put(key string, payload interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.version++
	c.entries[key] = entry{
		payload:   payload,
		createdAt: c.now(),
		ttl:       ttl,
		version:   c.version,
	}
	c.mu.Unlock()
}

// Invalidate removes every entry whose key starts with prefix and returns
// the number removed.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// ClearAll drops every entry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Cleanup evicts expired entries eagerly and returns the number evicted.
// The cache works without it; it exists for long-running processes that
// want to bound memory between accesses.
func (c *Cache) Cleanup() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats summarizes cache occupancy.
type Stats struct {
	TotalEntries   int `json:"total_entries"`
	ExpiredEntries int `json:"expired_entries"`
}

// GetStats counts live and expired entries without evicting.
func (c *Cache) GetStats() Stats {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{TotalEntries: len(c.entries)}
	for _, e := range c.entries {
		if e.expired(now) {
			stats.ExpiredEntries++
		}
	}
	return stats
}
