package mojang

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type cacheEntry struct {
	id      uuid.UUID
	ok      bool
	expires time.Time
}

// lookupCache remembers name lookups until they expire.
type lookupCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newLookupCache(ttl time.Duration) *lookupCache {
	return &lookupCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *lookupCache) get(name string) (id uuid.UUID, ok, hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[name]
	if !found {
		return uuid.Nil, false, false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, name)
		return uuid.Nil, false, false
	}
	return entry.id, entry.ok, true
}

func (c *lookupCache) put(name string, id uuid.UUID, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
		}
	}
	c.entries[name] = cacheEntry{id: id, ok: ok, expires: now.Add(c.ttl)}
}
