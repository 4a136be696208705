// Package cache provides key/value caches shared by the API and the
// ingestion path: an in-process LRU, a Redis-backed cache and a two-level
// cache combining them. Values are JSON encoded; strings and byte slices
// are stored as-is.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern removes keys matching a glob ("trend:ipca:*").
	DeleteByPattern(ctx context.Context, pattern string) error
	// TryLock takes key for ttl. It reports false when someone else holds it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock releases a lock taken by this instance; foreign locks are left alone.
	Unlock(ctx context.Context, key string) error
	Close() error
}

var (
	_ Service = (*MemoryCache)(nil)
	_ Service = (*RedisCache)(nil)
	_ Service = (*LayeredCache)(nil)
)
