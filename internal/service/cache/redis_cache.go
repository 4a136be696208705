package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "TrendPulse/pkg/cache"
)

// SharedCache adapts a pkg/cache.Service (Redis or layered) to BytesCache so
// several API replicas share computed responses.
type SharedCache struct {
	svc     pkgcache.Service
	timeout time.Duration
}

var _ BytesCache = (*SharedCache)(nil)

func NewSharedCache(svc pkgcache.Service) *SharedCache {
	return &SharedCache{svc: svc, timeout: 500 * time.Millisecond}
}

func (s *SharedCache) GetBytes(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var b []byte
	if err := s.svc.Get(ctx, key, &b); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s *SharedCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.svc.Set(ctx, key, value, ttl)
}

func (s *SharedCache) Invalidate(prefix string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.svc.DeleteByPattern(ctx, pkgcache.BuildPattern(prefix))
}
