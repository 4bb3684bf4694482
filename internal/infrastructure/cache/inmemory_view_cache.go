package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryViewCache implements shared.ViewCache inside one process.
// Suitable for single-instance deployments and tests; entries are not
// shared across instances unless a ViewInvalidationSubscriber drops them.
type InMemoryViewCache struct {
	mu      sync.RWMutex
	views   map[string]map[string]memoryEntry
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewInMemoryViewCache creates a cache whose entries live for ttl. A zero
// ttl keeps entries until their view is invalidated.
func NewInMemoryViewCache(ttl time.Duration) *InMemoryViewCache {
	return &InMemoryViewCache{
		views:   make(map[string]map[string]memoryEntry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Get returns the cached value of key under view
func (c *InMemoryViewCache) Get(_ context.Context, view, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.views[view][key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !c.nowFunc().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.views[view][key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.views[view], key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Set stores value under view and key
func (c *InMemoryViewCache) Set(_ context.Context, view, key string, value []byte) {
	entry := memoryEntry{value: value}
	if c.ttl > 0 {
		entry.expiresAt = c.nowFunc().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	keys, ok := c.views[view]
	if !ok {
		keys = make(map[string]memoryEntry)
		c.views[view] = keys
	}
	keys[key] = entry
}

// Invalidate drops every entry of view
func (c *InMemoryViewCache) Invalidate(_ context.Context, view string) {
	c.Drop(view)
}

// Drop removes every entry of view without notifying anyone
func (c *InMemoryViewCache) Drop(view string) {
	c.mu.Lock()
	delete(c.views, view)
	c.mu.Unlock()
}

// DropAll removes every entry of every view
func (c *InMemoryViewCache) DropAll() {
	c.mu.Lock()
	c.views = make(map[string]map[string]memoryEntry)
	c.mu.Unlock()
}

// Len returns the number of live and expired entries held for view
func (c *InMemoryViewCache) Len(view string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.views[view])
}
