package cache

import (
	"context"
	"errors"
	"time"
)

// Layered is a two-level Store: a small in-process layer in front of
// Redis. Reads fill the memory layer on a Redis hit; writes go through
// both layers.
type Layered struct {
	l1 *Memory
	l2 Store
}

// NewLayered creates a layered store over the given second-level store.
func NewLayered(l2 Store, opts ...MemoryOption) *Layered {
	return &Layered{
		l1: NewMemory(opts...),
		l2: l2,
	}
}

var _ Store = (*Layered)(nil)

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := l.l2.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	_ = l.l1.Set(ctx, key, value, ttl)
	return nil
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, error) {
	if data, err := l.l1.Get(ctx, key); err == nil {
		return data, nil
	}

	data, err := l.l2.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	_ = l.l1.Set(ctx, key, data, 0)
	return data, nil
}

func (l *Layered) Delete(ctx context.Context, keys ...string) error {
	_ = l.l1.Delete(ctx, keys...)
	return l.l2.Delete(ctx, keys...)
}

func (l *Layered) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := l.l1.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	return l.l2.Exists(ctx, key)
}

// Close closes both layers, returning the first error seen.
func (l *Layered) Close() error {
	err1 := l.l1.Close()
	err2 := l.l2.Close()
	return errors.Join(err1, err2)
}
