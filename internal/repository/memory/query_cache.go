package memory

import (
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// QueryCache stores API results keyed by query key. Entries older than
// staleAfter are treated as missing so the next read refetches; a zero
// staleAfter keeps entries until they are invalidated.
type QueryCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	staleAfter time.Duration
}

func NewQueryCache(staleAfter time.Duration) *QueryCache {
	return &QueryCache{
		entries:    make(map[string]cacheEntry),
		staleAfter: staleAfter,
	}
}

func (c *QueryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if c.staleAfter > 0 && time.Since(entry.storedAt) > c.staleAfter {
		return nil, false
	}
	return entry.value, true
}

func (c *QueryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{value: value, storedAt: time.Now()}
}

// InvalidatePrefix drops every entry whose key starts with one of the
// prefixes and reports how many were removed.
func (c *QueryCache) InvalidatePrefix(prefixes ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	return removed
}
