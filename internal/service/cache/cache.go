package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL. The API
// handler keeps encoded analysis responses here.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
	Invalidate(prefix string) error
}
