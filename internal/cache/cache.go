// Package cache stores encoded search results keyed by the encoded filter
// that produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Store is a byte-oriented TTL cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key derives a cache key from a request kind and its encoded filter.
func Key(kind, encodedFilter string) string {
	sum := sha256.Sum256([]byte(encodedFilter))
	return "fli:" + kind + ":" + hex.EncodeToString(sum[:])
}

// GetJSON loads and decodes a cached value.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var value T
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return value, false, err
	}
	if err := json.Unmarshal(b, &value); err != nil {
		return value, false, fmt.Errorf("error decoding cached %s: %w", key, err)
	}
	return value, true, nil
}

// SetJSON encodes and stores value.
func SetJSON[T any](ctx context.Context, s Store, key string, value T, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding cache value for %s: %w", key, err)
	}
	return s.Set(ctx, key, b, ttl)
}

type entry struct {
	value  []byte
	expiry time.Time
}

// sweepInterval is how often a Memory store drops expired entries.
const sweepInterval = time.Minute

// Memory is an in-process Store. Expired entries are dropped on read and by
// a periodic sweep; Close stops the sweep.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]entry
	now      func() time.Time
	sweep    *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
		sweep:   time.NewTicker(sweepInterval),
		done:    make(chan struct{}),
	}
	go m.janitor()
	return m
}

func (m *Memory) janitor() {
	for {
		select {
		case <-m.done:
			return
		case <-m.sweep.C:
			m.DeleteExpired()
		}
	}
}

// DeleteExpired removes every entry whose TTL has passed and reports how
// many were removed.
func (m *Memory) DeleteExpired() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, e := range m.entries {
		if now.After(e.expiry) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Close stops the sweep. Stored entries stay readable.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() {
		m.sweep.Stop()
		close(m.done)
	})
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expiry) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expiry.Equal(e.expiry) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return clone(e.value), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	m.entries[key] = entry{value: clone(value), expiry: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Len counts stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
