package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type cacheItem[T any] struct {
	data      T
	expiresAt time.Time
}

// LRUCache bounds entries by count and drops them after ttl.
type LRUCache[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items *lru.Cache
}

// NewLRUCache creates a cache holding at most maxSize entries.
func NewLRUCache[T any](maxSize int, ttl time.Duration) (*LRUCache[T], error) {
	items, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRUCache[T]{ttl: ttl, now: time.Now, items: items}, nil
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	v, ok := c.items.Get(key)
	if !ok {
		return zero, false
	}
	item := v.(cacheItem[T])
	if c.now().After(item.expiresAt) {
		c.items.Remove(key)
		return zero, false
	}
	return item.data, true
}

func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Add(key, cacheItem[T]{data: data, expiresAt: c.now().Add(c.ttl)})
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Remove(key)
}

func (c *LRUCache[T]) Size() int {
	return c.items.Len()
}

// CleanExpired removes expired entries and reports how many it dropped.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, k := range c.items.Keys() {
		v, ok := c.items.Peek(k)
		if !ok {
			continue
		}
		if now.After(v.(cacheItem[T]).expiresAt) {
			c.items.Remove(k)
			removed++
		}
	}
	return removed
}
