package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores auxiliary Jira metadata (project issue types, board ids)
// with a TTL. The issue read path never goes through here.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Delete(key string)
}

// entry holds a cached value with its expiration.
type entry struct {
	value      string
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory TTL cache, the default backend.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]entry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]entry)}
}

// Get retrieves a value if it exists and has not expired.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiration) {
		return "", false
	}
	return item.value, true
}

// Set stores a value with the given TTL.
func (c *MemoryCache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry{value: value, expiration: time.Now().Add(ttl)}
}

// Delete removes a key.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// RedisCache backs the metadata cache with Redis so several service
// replicas share lookups.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis from a REDIS_URL-style connection string.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// Get retrieves a value; a miss or a Redis error both read as absent.
func (c *RedisCache) Get(key string) (string, bool) {
	value, err := c.client.Get(context.Background(), key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores a value with the given TTL. Failures are silent; the cache is
// an optimization, not a store of record.
func (c *RedisCache) Set(key, value string, ttl time.Duration) {
	_ = c.client.Set(context.Background(), key, value, ttl).Err()
}

// Delete removes a key.
func (c *RedisCache) Delete(key string) {
	_ = c.client.Del(context.Background(), key).Err()
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
