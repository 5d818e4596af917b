package balance

import (
	"sync"
	"time"
)

// cache is a lazy TTL map of address to balance so repeated lookups in
// a short window do not hammer the explorer. Expired entries are
// pruned at access time; there is no background worker.
type cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	balance *Balance
	expiry  time.Time
}

func newCache(ttl time.Duration) *cache {
	return &cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *cache) get(address string) (*Balance, bool) {
	c.mu.RLock()
	entry, ok := c.entries[address]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiry) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent put may have
		// refreshed the entry.
		if cur, ok := c.entries[address]; ok && cur.expiry.Equal(entry.expiry) {
			delete(c.entries, address)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.balance, true
}

func (c *cache) put(address string, b *Balance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[address] = cacheEntry{
		balance: b,
		expiry:  time.Now().Add(c.ttl),
	}
}
