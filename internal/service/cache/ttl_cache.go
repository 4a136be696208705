package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

type entry struct {
	key string
	v   []byte
	exp time.Time
}

// TTLCache is a bounded in-process BytesCache with per-entry TTL and
// least-recently-used eviction.
type TTLCache struct {
	mu    sync.Mutex
	max   int
	ll    *list.List
	items map[string]*list.Element
}

var _ BytesCache = (*TTLCache)(nil)

// NewTTLCache builds a cache holding at most maxEntries values.
func NewTTLCache(maxEntries int) *TTLCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &TTLCache{max: maxEntries, ll: list.New(), items: make(map[string]*list.Element)}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.removeElement(el)
		return nil, false, nil
	}
	c.ll.MoveToFront(el)
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value = &entry{key: key, v: value, exp: exp}
		c.ll.MoveToFront(el)
		return nil
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, v: value, exp: exp})
	for c.ll.Len() > c.max {
		c.removeElement(c.ll.Back())
	}
	return nil
}

// Invalidate drops every key starting with prefix.
func (c *TTLCache) Invalidate(prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(el)
		}
	}
	return nil
}

// Len returns the number of cached entries.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *TTLCache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
