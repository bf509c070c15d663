package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error matching
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// GenerationTTL keeps commit counters well past any cached history
const GenerationTTL = 24 * time.Hour

// GetCounter reads an integer key, 0 when it does not exist
func GetCounter(ctx context.Context, rdb *redis.Client, key string) (int64, error) {
	n, err := rdb.Get(ctx, key).Int64() // Get counter from Redis
	if errors.Is(err, redis.Nil) {
		return 0, nil // Counter never bumped or expired
	}
	return n, err
}

// IncrCounter increments key and refreshes its TTL in one MULTI/EXEC
func IncrCounter(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) error {
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)        // Bump counter
		pipe.Expire(ctx, key, ttl) // Keep it bounded
		return nil
	})
	return err
}

// RedisCache adapts the helpers above to the order history cache. A nil
// client turns every call into a miss.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps rdb
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil // Caching disabled
	}
	return GetCache(ctx, c.rdb, key, dest)
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil // Caching disabled
	}
	return SetCache(ctx, c.rdb, key, value, ttl)
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c == nil || c.rdb == nil {
		return nil // Caching disabled
	}
	return DeleteCache(ctx, c.rdb, key)
}

func (c *RedisCache) Generation(ctx context.Context, key string) (int64, error) {
	if c == nil || c.rdb == nil {
		return 0, nil // Caching disabled
	}
	return GetCounter(ctx, c.rdb, key)
}

func (c *RedisCache) Bump(ctx context.Context, key string) error {
	if c == nil || c.rdb == nil {
		return nil // Caching disabled
	}
	return IncrCounter(ctx, c.rdb, key, GenerationTTL)
}
