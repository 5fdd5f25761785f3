// Package cache stores scan reports for a limited time.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

// Store is a byte cache with per-entry TTL. A miss is reported as ok == false, not as an error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DefaultKeyPrefix namespaces keys in a shared Redis.
const DefaultKeyPrefix = "sentinell:"

// RedisStore keeps entries in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to addr and verifies the connection with PING.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect redis", goerr.V("addr", addr))
	}
	return &RedisStore{client: client, prefix: DefaultKeyPrefix}, nil
}

// Get implements Store.
func (x *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := x.client.Get(ctx, x.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to get cache entry", goerr.V("key", key))
	}
	return v, true, nil
}

// Set implements Store.
func (x *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := x.client.Set(ctx, x.prefix+key, value, ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to set cache entry", goerr.V("key", key))
	}
	return nil
}

// Close closes the Redis connection pool.
func (x *RedisStore) Close() error {
	return x.client.Close()
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore keeps entries in process memory. Expired entries are dropped on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Store.
func (x *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	e, ok := x.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !x.now().Before(e.expires) {
		delete(x.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set implements Store. A ttl of zero keeps the entry forever.
func (x *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = x.now().Add(ttl)
	}
	x.entries[key] = e
	return nil
}
