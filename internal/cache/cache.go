package cache

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error inspection
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache stores JSON values and single-use strings in Redis
type Cache struct {
	rdb *redis.Client
}

// New wraps a Redis client
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// GetJSON retrieves a value and unmarshals it into dest; found is false on a miss
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// SetJSON stores value as JSON with a TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// SetString stores a raw string with a TTL
func (c *Cache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// GetString reads a raw string; found is false if the key is absent
func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result() // Read without consuming
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Take atomically reads and deletes a string; found is false if the key is absent
func (c *Cache) Take(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.GetDel(ctx, key).Result() // GETDEL, so only one caller sees the value
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Delete removes keys from Redis
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// NFTKey is the cache key of an NFT detail view
func NFTKey(id string) string {
	return "nft:detail:" + id
}

// NonceKey is the cache key of a pending wallet-login nonce; the value is the wallet address
func NonceKey(nonce string) string {
	return "wallet:nonce:" + nonce
}
