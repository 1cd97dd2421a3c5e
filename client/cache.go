package client

import (
	"container/list"
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// ttlCache is a small LRU cache with per-entry expiry. It keeps recently
// fetched reads warm between navigations without ever serving stale data
// past its TTL.
type ttlCache[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	entries  map[string]*list.Element
}

func newTTLCache[T any](capacity int, ttl time.Duration) *ttlCache[T] {
	return &ttlCache[T]{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *ttlCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	entry := el.Value.(*cacheEntry[T])
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		return zero, false
	}

	c.order.MoveToFront(el)
	return entry.value, true
}

func (c *ttlCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry[T])
		entry.value = value
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry[T]).key)
		}
	}

	el := c.order.PushFront(&cacheEntry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)})
	c.entries[key] = el
}

func (c *ttlCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

func (c *ttlCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element)
}
