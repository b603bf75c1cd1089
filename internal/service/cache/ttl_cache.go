package cache

import (
	"sync"
	"time"
)

type entry struct {
	b   []byte
	exp time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

// TTLCache is an in-process byte cache for fetched curve windows. Entries
// expire lazily on read, with a periodic sweep keeping the map from growing
// across long refresh gaps.
type TTLCache struct {
	mu        sync.RWMutex
	m         map[string]entry
	lastSweep time.Time
}

const sweepInterval = 10 * time.Minute

func NewTTLCache() *TTLCache {
	return &TTLCache{m: make(map[string]entry), lastSweep: time.Now()}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(now) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.b, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{b: value, exp: exp}
	c.sweepLocked()
	c.mu.Unlock()
	return nil
}

func (c *TTLCache) sweepLocked() {
	now := time.Now()
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	for k, e := range c.m {
		if e.expired(now) {
			delete(c.m, k)
		}
	}
	c.lastSweep = now
}

var _ BytesCache = (*TTLCache)(nil)
