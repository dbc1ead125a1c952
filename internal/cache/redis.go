package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "linkforge:code:"

// Redis shares cached lookups between server instances.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to redisURL and pings it once.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisFromClient(client, ttl, logger), nil
}

func NewRedisFromClient(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, code string) (string, bool) {
	val, err := r.client.Get(ctx, keyPrefix+code).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", zap.String("code", code), zap.Error(err))
		}
		return "", false
	}
	if val == tombstone {
		return "", false
	}
	return val, true
}

// Add uses SET NX so a fill never overwrites a tombstone written by another
// instance.
func (r *Redis) Add(ctx context.Context, code, originalURL string) bool {
	ok, err := r.client.SetNX(ctx, keyPrefix+code, originalURL, r.ttl).Result()
	if err != nil {
		r.logger.Warn("redis set failed", zap.String("code", code), zap.Error(err))
		return false
	}
	return ok
}

func (r *Redis) Invalidate(ctx context.Context, code string) {
	if err := r.client.Set(ctx, keyPrefix+code, tombstone, r.ttl).Err(); err != nil {
		r.logger.Warn("redis invalidate failed", zap.String("code", code), zap.Error(err))
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
