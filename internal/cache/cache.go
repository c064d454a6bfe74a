package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores JSON-encoded values with a TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache is a Redis-backed implementation of Cache.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewRedisCache namespaces keys under prefix.
func NewRedisCache(client redis.UniversalClient, prefix string, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, logger: logger}
}

// GetJSON decodes the cached value into dst. It reports false on a miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return false, nil
	}
	return true, nil
}

// SetJSON encodes val and stores it for ttl.
func (c *RedisCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

// Denylist remembers revoked token IDs until they would have expired.
type Denylist struct {
	client redis.UniversalClient
	prefix string
}

// NewDenylist builds a Denylist.
func NewDenylist(client redis.UniversalClient, prefix string) *Denylist {
	return &Denylist{client: client, prefix: prefix}
}

// Revoke stores id until expiresAt. Already-expired tokens are ignored.
func (d *Denylist) Revoke(ctx context.Context, id string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.prefix+id, "1", ttl).Err()
}

// IsRevoked reports whether id was revoked.
func (d *Denylist) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
