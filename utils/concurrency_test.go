package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestExpiryCacheReserve(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cache := NewExpiryCacheWithClock(clock.Now)

	assert.True(t, cache.Reserve("u-r", 5*time.Second))
	assert.False(t, cache.Reserve("u-r", 5*time.Second), "held key must not be reserved twice")
	assert.True(t, cache.IsReserved("u-r"))

	clock.Advance(5 * time.Second)
	assert.False(t, cache.IsReserved("u-r"))
	assert.True(t, cache.Reserve("u-r", time.Second), "expired key can be reserved again")
}

func TestExpiryCacheExtendAndRelease(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cache := NewExpiryCacheWithClock(clock.Now)

	cache.Extend("k", 2*time.Second)
	assert.Equal(t, 2*time.Second, cache.Remaining("k"))

	clock.Advance(time.Second)
	cache.Extend("k", 5*time.Second)
	assert.Equal(t, 5*time.Second, cache.Remaining("k"))

	cache.Release("k")
	assert.False(t, cache.IsReserved("k"))
	assert.Equal(t, time.Duration(0), cache.Remaining("k"))
}

func TestExpiryCacheSweep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cache := NewExpiryCacheWithClock(clock.Now)

	cache.Reserve("short", time.Second)
	cache.Reserve("long", time.Minute)

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, cache.Sweep())
	assert.Equal(t, 1, cache.Len())
	assert.True(t, cache.IsReserved("long"))
}

func TestExpiryCacheConcurrentReserve(t *testing.T) {
	cache := NewExpiryCache()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cache.Reserve("same", time.Minute) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
