package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a Redis-backed store. Unlike a cache layer it does not fail
// soft: connection problems are returned to the caller, because a dropped
// write would lose the only copy of a demoted entry.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis creates a Redis store. Keys are namespaced with prefix.
func NewRedis(addr, password string, db int, prefix string) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{rdb: rdb, prefix: prefix}
}

// Read returns the value under key. redis.Nil is reported as a miss.
func (r *Redis) Read(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

// Write stores val under key without expiration.
func (r *Redis) Write(ctx context.Context, key string, val []byte) error {
	if err := r.rdb.Set(ctx, r.prefix+key, val, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
