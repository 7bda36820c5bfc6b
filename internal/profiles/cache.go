package profiles

import (
	"sync"
	"time"
)

type cacheEntry struct {
	profile   Profile
	expiresAt time.Time
}

// profileCache is a TTL cache in front of a remote registry
type profileCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newProfileCache(ttl time.Duration) *profileCache {
	return &profileCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *profileCache) get(backpack string) (*Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[backpack]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	p := e.profile
	return &p, true
}

func (c *profileCache) set(p Profile) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.Backpack] = cacheEntry{profile: p, expiresAt: c.now().Add(c.ttl)}
}

func (c *profileCache) delete(backpack string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, backpack)
}

// sweep drops expired entries and returns how many
func (c *profileCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *profileCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
