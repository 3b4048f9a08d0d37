package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/pcbuild/internal/core/port"
	"github.com/redis/go-redis/v9"
)

var _ port.ConfigurationCache = (*RedisCache)(nil)

const (
	keyPrefix = "pcbuild:"
	scanCount = 100
)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	const op = "NewRedisCache"
	log := slog.With("op", op)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	log.Info("redis is available", "addr", addr)

	return &RedisCache{client: rdb, ttl: ttl}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "RedisCache.Get"

	val, err := r.client.Get(ctx, prefixed(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	const op = "RedisCache.Set"

	if err := r.client.Set(ctx, prefixed(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Purge deletes every key of the service. Keys of other tenants of the
// same redis database stay.
func (r *RedisCache) Purge(ctx context.Context) error {
	const op = "RedisCache.Purge"

	var keys []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *RedisCache) Close() {
	const op = "RedisCache.Close"
	log := slog.With("op", op)

	log.Info("closing redis client...")
	if err := r.client.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("redis client is closed")
}

func prefixed(key string) string {
	return keyPrefix + key
}
