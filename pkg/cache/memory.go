package cache

import (
	"container/list"
	"context"
	"path"
	"sync"
	"time"
)

type MemoryOption func(*MemoryConfig)

type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration // how often expired entries are swept
	DefaultTTL      time.Duration // used when Set gets a non-positive expiration
}

func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) { c.MaxSize = size }
}

func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if interval > 0 {
			c.CleanupInterval = interval
		}
	}
}

func WithMemoryDefaultTTL(ttl time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if ttl > 0 {
			c.DefaultTTL = ttl
		}
	}
}

type memoryEntry struct {
	key      string
	data     []byte
	expireAt time.Time
	lock     bool
}

// MemoryCache is a size-bounded LRU with per-entry expiry. Locks live in
// the same keyspace as values, like they do in Redis.
type MemoryCache struct {
	mu      sync.Mutex
	ll      *list.List // front is most recently used
	index   map[string]*list.Element
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: time.Minute,
		DefaultTTL:      24 * time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize < 1 {
		cfg.MaxSize = 1
	}

	mc := &MemoryCache{
		ll:      list.New(),
		index:   make(map[string]*list.Element, cfg.MaxSize),
		maxSize: cfg.MaxSize,
		ttl:     cfg.DefaultTTL,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go mc.sweep(cfg.CleanupInterval)
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = mc.ttl
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.put(&memoryEntry{key: key, data: data, expireAt: mc.now().Add(expiration)})
	return nil
}

// put inserts or replaces e as most recent and evicts from the back.
func (mc *MemoryCache) put(e *memoryEntry) {
	if el, ok := mc.index[e.key]; ok {
		el.Value = e
		mc.ll.MoveToFront(el)
		return
	}
	mc.index[e.key] = mc.ll.PushFront(e)
	for mc.ll.Len() > mc.maxSize {
		mc.removeElement(mc.ll.Back())
	}
}

// live returns the entry for key, dropping it when expired.
func (mc *MemoryCache) live(key string) (*list.Element, bool) {
	el, ok := mc.index[key]
	if !ok {
		return nil, false
	}
	if mc.now().After(el.Value.(*memoryEntry).expireAt) {
		mc.removeElement(el)
		return nil, false
	}
	return el, true
}

func (mc *MemoryCache) removeElement(el *list.Element) {
	mc.ll.Remove(el)
	delete(mc.index, el.Value.(*memoryEntry).key)
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	el, ok := mc.live(key)
	if !ok || el.Value.(*memoryEntry).lock {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	mc.ll.MoveToFront(el)
	data := el.Value.(*memoryEntry).data
	mc.mu.Unlock()

	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		if el, ok := mc.index[k]; ok {
			mc.removeElement(el)
		}
	}
	return nil
}

// DeleteByPattern matches keys with path.Match, which treats "*" the way
// Redis SCAN MATCH does for keys without slashes.
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for el := mc.ll.Front(); el != nil; {
		next := el.Next()
		if ok, _ := path.Match(pattern, el.Value.(*memoryEntry).key); ok {
			mc.removeElement(el)
		}
		el = next
	}
	return nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, held := mc.live(key); held {
		return false, nil
	}
	mc.put(&memoryEntry{key: key, expireAt: mc.now().Add(ttl), lock: true})
	return true, nil
}

func (mc *MemoryCache) Unlock(_ context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if el, ok := mc.index[key]; ok && el.Value.(*memoryEntry).lock {
		mc.removeElement(el)
	}
	return nil
}

// Len counts stored entries, including expired ones not yet swept.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.ll.Len()
}

func (mc *MemoryCache) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-t.C:
			mc.mu.Lock()
			now := mc.now()
			for el := mc.ll.Back(); el != nil; {
				prev := el.Prev()
				if now.After(el.Value.(*memoryEntry).expireAt) {
					mc.removeElement(el)
				}
				el = prev
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the sweeper. The cache stays usable afterwards.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() { close(mc.stop) })
	return nil
}
