package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/config"
)

const redisPingTimeout = 2 * time.Second

// Redis wraps the go-redis client. Every key the service writes lives under
// one prefix.
type Redis struct {
	Client *redis.Client
	prefix string
}

// NewRedis builds the client. An unreachable server is logged rather than
// fatal; readiness reports it until it recovers.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client, prefix: cfg.KeyPrefix}
}

// Prefix is the root namespace for all keys.
func (r *Redis) Prefix() string {
	return r.prefix
}

// Namespace returns the key prefix for one feature, e.g. "staff:revoked:".
func (r *Redis) Namespace(name string) string {
	return r.prefix + name + ":"
}

// LimiterStorage returns the fiber.Storage used by the login rate limiter.
func (r *Redis) LimiterStorage() *RedisStorage {
	return NewRedisStorage(r.Client, r.Namespace("limiter"))
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
