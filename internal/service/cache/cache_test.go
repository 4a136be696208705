package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgcache "TrendPulse/pkg/cache"
)

func TestTTLCacheBounded(t *testing.T) {
	c := NewTTLCache(2)
	require.NoError(t, c.SetBytes("a", []byte("1"), time.Minute))
	require.NoError(t, c.SetBytes("b", []byte("2"), time.Minute))
	_, ok, _ := c.GetBytes("a")
	require.True(t, ok)
	require.NoError(t, c.SetBytes("c", []byte("3"), time.Minute))

	assert.Equal(t, 2, c.Len())
	_, ok, _ = c.GetBytes("b")
	assert.False(t, ok)
	v, ok, _ := c.GetBytes("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache(10)
	require.NoError(t, c.SetBytes("k", []byte("v"), 5*time.Millisecond))
	time.Sleep(15 * time.Millisecond)
	_, ok, err := c.GetBytes("k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestTTLCacheInvalidate(t *testing.T) {
	c := NewTTLCache(10)
	_ = c.SetBytes("trend:ipca:sts", []byte("x"), 0)
	_ = c.SetBytes("trend:ipca:simple", []byte("x"), 0)
	_ = c.SetBytes("trend:selic:sts", []byte("x"), 0)
	require.NoError(t, c.Invalidate("trend:ipca:"))
	assert.Equal(t, 1, c.Len())
}

func TestSharedCache(t *testing.T) {
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	s := NewSharedCache(mem)

	_, ok, err := s.GetBytes("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetBytes("trend:ipca", []byte(`{"level":1}`), time.Minute))
	v, ok, err := s.GetBytes("trend:ipca")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"level":1}`, string(v))

	require.NoError(t, s.Invalidate("trend:"))
	_, ok, _ = s.GetBytes("trend:ipca")
	assert.False(t, ok)
}
