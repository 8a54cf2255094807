package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis server. All keys are namespaced
// with a configurable prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis store and verifies connectivity with a ping.
func NewRedis(opts ...RedisOption) (*Redis, error) {
	cfg := &RedisConfig{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		Prefix:       "coinpulse",
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
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

var _ Store = (*Redis)(nil)

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.wrap(key), value, ttl).Err()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.wrap(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return data, nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	wrapped := make([]string, len(keys))
	for i, key := range keys {
		wrapped[i] = r.wrap(key)
	}
	return r.client.Unlink(ctx, wrapped...).Err()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.wrap(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Client exposes the underlying client for callers that need raw commands.
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) wrap(key string) string {
	return r.prefix + ":" + key
}
