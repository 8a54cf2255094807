package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data     []byte
	expireAt time.Time
	accessed time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// Memory is an in-process Store with TTL expiry and LRU eviction.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	maxSize    int
	defaultTTL time.Duration
	janitor    *time.Ticker
	done       chan struct{}
}

// NewMemory creates an in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	cfg := &MemoryConfig{
		MaxSize:       1024,
		SweepInterval: time.Minute,
		DefaultTTL:    5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Memory{
		entries:    make(map[string]*memoryEntry),
		maxSize:    cfg.MaxSize,
		defaultTTL: cfg.DefaultTTL,
		janitor:    time.NewTicker(cfg.SweepInterval),
		done:       make(chan struct{}),
	}

	go m.sweep()
	return m
}

var _ Store = (*Memory)(nil)

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxSize {
		m.evictOldest()
	}

	now := time.Now()
	m.entries[key] = &memoryEntry{
		data:     append([]byte(nil), value...),
		expireAt: now.Add(ttl),
		accessed: now,
	}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	now := time.Now()
	if entry.expired(now) {
		delete(m.entries, key)
		return nil, ErrMiss
	}

	entry.accessed = now
	return append([]byte(nil), entry.data...), nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || entry.expired(time.Now()) {
		return false, nil
	}
	return true, nil
}

// Close stops the background sweeper.
func (m *Memory) Close() error {
	m.janitor.Stop()
	close(m.done)
	return nil
}

func (m *Memory) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range m.entries {
		if oldestKey == "" || entry.accessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.accessed
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) sweep() {
	for {
		select {
		case <-m.done:
			return
		case <-m.janitor.C:
			m.mu.Lock()
			now := time.Now()
			for key, entry := range m.entries {
				if entry.expired(now) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
