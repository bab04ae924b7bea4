package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// sweepEvery is how many writes pass between sweeps of expired entries.
const sweepEvery = 256

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Cache. Expired entries are missed on read and
// swept once every sweepEvery writes.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	now        func() time.Time
	writes     int
	sweepEvery int
}

func NewMemory() *Memory {
	return &Memory{
		entries:    make(map[string]entry),
		now:        time.Now,
		sweepEvery: sweepEvery,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expiresAt) {
		return nil, ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores value. A non-positive ttl is a no-op.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.writes++
	if m.writes >= m.sweepEvery {
		m.writes = 0
		m.sweepLocked(now)
	}
	m.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: now.Add(ttl)}
	return nil
}

func (m *Memory) sweepLocked(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
