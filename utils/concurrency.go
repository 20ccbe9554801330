package utils

import (
	"sync"
	"time"
)

// ExpiryCache maps keys to an expiry time. A key is reserved until its expiry passes.
// It backs both the in-flight restoration markers and the per-user command cooldowns.
type ExpiryCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewExpiryCache creates an empty cache using the wall clock.
func NewExpiryCache() *ExpiryCache {
	return NewExpiryCacheWithClock(time.Now)
}

// NewExpiryCacheWithClock creates an empty cache reading time from now.
func NewExpiryCacheWithClock(now func() time.Time) *ExpiryCache {
	return &ExpiryCache{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

// Reserve sets key to expire after ttl if it is not currently reserved.
// It returns false, leaving the existing expiry untouched, if the key is held.
func (c *ExpiryCache) Reserve(key string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if expiry, ok := c.entries[key]; ok && now.Before(expiry) {
		return false
	}

	c.entries[key] = now.Add(ttl)
	return true
}

// Extend moves the expiry of key to ttl from now, reserving it if absent.
func (c *ExpiryCache) Extend(key string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = c.now().Add(ttl)
}

// IsReserved reports whether key is held and not yet expired.
func (c *ExpiryCache) IsReserved(key string) bool {
	return c.Remaining(key) > 0
}

// Remaining returns how long key stays reserved, or zero.
func (c *ExpiryCache) Remaining(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, ok := c.entries[key]
	if !ok {
		return 0
	}
	left := expiry.Sub(c.now())
	if left <= 0 {
		delete(c.entries, key)
		return 0
	}
	return left
}

// Release drops key immediately.
func (c *ExpiryCache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Sweep removes every expired key and returns how many were dropped.
func (c *ExpiryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, expiry := range c.entries {
		if !now.Before(expiry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of keys held, expired or not.
func (c *ExpiryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
