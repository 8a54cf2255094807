package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrMiss = errors.New("cache: key not found")
)

// Store defines the cache backend operations.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Loader wraps a Store with request coalescing so that concurrent misses
// on the same key trigger a single backend computation.
type Loader struct {
	store Store
	group singleflight.Group
}

// NewLoader creates a loader backed by the given store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Store returns the underlying store.
func (l *Loader) Store() Store {
	return l.store
}

// Do returns the cached bytes for key, or runs compute once and caches
// the result for ttl. Concurrent callers for the same key share one call.
func (l *Loader) Do(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if data, err := l.store.Get(ctx, key); err == nil {
		return data, nil
	} else if !errors.Is(err, ErrMiss) {
		return nil, err
	}

	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have filled the key
		// between our miss and the group admitting us.
		if data, err := l.store.Get(ctx, key); err == nil {
			return data, nil
		}

		data, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if setErr := l.store.Set(ctx, key, data, ttl); setErr != nil {
			return nil, fmt.Errorf("cache set %q: %w", key, setErr)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Through is a typed read-through: JSON cached values, single computation
// per key across concurrent callers.
func Through[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	data, err := l.Do(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("cache decode %q: %w", key, err)
	}
	return out, nil
}

// SetJSON marshals value and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data, ttl)
}

// GetJSON retrieves key and unmarshals it into a value of type T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var out T
	data, err := s.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
