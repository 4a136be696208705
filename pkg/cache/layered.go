package cache

import (
	"context"
	"time"
)

type LayeredOption func(*LayeredConfig)

type LayeredConfig struct {
	L1Size int
	L1TTL  time.Duration // upper bound on how stale an L1 hit may be
}

func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		if size > 0 {
			c.L1Size = size
		}
	}
}

func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		if ttl > 0 {
			c.L1TTL = ttl
		}
	}
}

// LayeredCache puts a small in-process LRU (L1) in front of a shared cache
// (L2, normally Redis). Writes go to L2 first; reads fill L1 on an L2 hit.
// Locks always go to L2 so they are shared between replicas.
type LayeredCache struct {
	l1    *MemoryCache
	l2    Service
	l1TTL time.Duration
}

func NewLayeredCache(l2 Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{L1Size: 1000, L1TTL: 30 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		l1:    NewMemoryCache(WithMemoryMaxSize(cfg.L1Size), WithMemoryDefaultTTL(cfg.L1TTL)),
		l2:    l2,
		l1TTL: cfg.L1TTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.l2.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	ttl := lc.l1TTL
	if expiration > 0 && expiration < ttl {
		ttl = expiration
	}
	return lc.l1.Set(ctx, key, value, ttl)
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if lc.l1.Get(ctx, key, dest) == nil {
		return nil
	}
	if err := lc.l2.Get(ctx, key, dest); err != nil {
		return err
	}
	// dest holds the decoded value; strings and bytes go back verbatim
	var fill interface{} = dest
	switch d := dest.(type) {
	case *string:
		fill = *d
	case *[]byte:
		fill = *d
	}
	_ = lc.l1.Set(ctx, key, fill, lc.l1TTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

// DeleteByPattern clears the local layer too. Other replicas keep their L1
// copies until L1TTL runs out.
func (lc *LayeredCache) DeleteByPattern(ctx context.Context, pattern string) error {
	_ = lc.l1.DeleteByPattern(ctx, pattern)
	return lc.l2.DeleteByPattern(ctx, pattern)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.l2.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.l2.Unlock(ctx, key)
}

// Close stops L1 and closes L2.
func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}
