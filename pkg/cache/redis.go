package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisOption func(*RedisConfig)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	Prefix       string // prepended to every key as "<prefix>:"
	PingTimeout  time.Duration
}

func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) { c.Addr = addr }
}

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) { c.DB = db }
}

// WithRedisPool sizes the connection pool; zero values keep the defaults.
func WithRedisPool(size, minIdle int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if size > 0 {
			c.PoolSize = size
		}
		if minIdle > 0 {
			c.MinIdleConns = minIdle
		}
		if timeout > 0 {
			c.PoolTimeout = timeout
		}
	}
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = strings.TrimSuffix(prefix, ":") }
}

// unlockScript deletes the lock only while it still carries our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

const scanBatch = 200

// RedisCache stores entries in Redis. It owns its client: Close releases
// the connection pool.
type RedisCache struct {
	client *redis.Client
	prefix string
	tokens sync.Map // prefixed lock key -> token
}

// NewRedisCache connects and pings Redis; an unreachable server is an error.
func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	cfg := &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  30 * time.Second,
		Prefix:       "trendpulse",
		PingTimeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		PoolTimeout:  cfg.PoolTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisCache{client: client, prefix: cfg.Prefix}, nil
}

// Client exposes the connection for components that speak Redis directly,
// such as the job queue.
func (c *RedisCache) Client() *redis.Client { return c.client }

func (c *RedisCache) Close() error { return c.client.Close() }

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *RedisCache) keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = c.key(k)
	}
	return out
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.client.Set(ctx, c.key(key), data, expiration).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return err
	}
	return decode(data, dest)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Unlink(ctx, c.keys(keys)...).Err()
}

// DeleteByPattern walks the keyspace with SCAN and unlinks matches in
// batches, so it never blocks the server like KEYS would.
func (c *RedisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, c.key(pattern), scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.client.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}

// TryLock sets key with a random token via SET NX. The token is remembered
// so Unlock only removes a lock this instance still holds.
func (c *RedisCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	k := c.key(key)
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, k, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	c.tokens.Store(k, token)
	return true, nil
}

func (c *RedisCache) Unlock(ctx context.Context, key string) error {
	k := c.key(key)
	token, ok := c.tokens.LoadAndDelete(k)
	if !ok {
		return nil
	}
	return unlockScript.Run(ctx, c.client, []string{k}, token).Err()
}
