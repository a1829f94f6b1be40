package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// MemoryStore is an in-process counter store for development and tests.
// Counters are per-instance, so limits are enforced per process rather than
// across the fleet.
type MemoryStore struct {
	clock clock.Clock

	mu       sync.Mutex
	counters map[string]memCounter
}

type memCounter struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryStore creates an in-process counter store.
func NewMemoryStore(c clock.Clock) *MemoryStore {
	if c == nil {
		c = clock.New()
	}
	return &MemoryStore{clock: c, counters: make(map[string]memCounter)}
}

func (m *MemoryStore) Counts(_ context.Context, currentKey, previousKey string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value(currentKey), m.value(previousKey), nil
}

// value must be called with the lock held.
func (m *MemoryStore) value(key string) int64 {
	c, ok := m.counters[key]
	if !ok {
		return 0
	}
	if m.clock.Now().After(c.expiresAt) {
		delete(m.counters, key)
		return 0
	}
	return c.count
}

func (m *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := m.value(key) + 1
	m.counters[key] = memCounter{count: count, expiresAt: m.clock.Now().Add(ttl)}
	return count, nil
}

var _ CounterStore = (*MemoryStore)(nil)
