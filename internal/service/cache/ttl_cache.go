package cache

import (
	"sync"
	"time"
)

const defaultMaxEntries = 4096

type bytesEntry struct {
	b   []byte
	exp time.Time
}

// TTLCache is a process-local BytesCache. Expired entries are dropped lazily
// on read and swept whenever the map crosses its size bound, so a burst of
// one-off keys cannot grow it without limit.
type TTLCache struct {
	mu         sync.RWMutex
	m          map[string]bytesEntry
	maxEntries int
}

func NewTTLCache() *TTLCache {
	return &TTLCache{
		m:          make(map[string]bytesEntry),
		maxEntries: defaultMaxEntries,
	}
}

var _ BytesCache = (*TTLCache)(nil)

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
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
	if len(c.m) >= c.maxEntries {
		c.sweepLocked()
	}
	c.m[key] = bytesEntry{b: value, exp: exp}
	c.mu.Unlock()
	return nil
}

// sweepLocked drops expired entries. If everything is still live the whole
// map is reset; stale report payloads are cheaper to recompute than to keep.
func (c *TTLCache) sweepLocked() {
	now := time.Now()
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
		}
	}
	if len(c.m) >= c.maxEntries {
		c.m = make(map[string]bytesEntry)
	}
}
