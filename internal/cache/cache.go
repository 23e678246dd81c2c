package cache

import (
	"sync"
	"time"

	"github.com/octobees/leads-extractor/internal/metrics"
)

// DefaultMaxEntries bounds the number of live entries before a sweep is attempted.
const DefaultMaxEntries = 1000

// Cache stores values keyed by string with a per-entry time-to-live.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Cleanup() int
	Clear()
	Len() int
}

type entry struct {
	data      any
	timestamp time.Time
	ttl       time.Duration
}

// Memory is a process-local Cache guarded by a read/write mutex.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
	metrics    *metrics.Metrics
}

// Option configures a Memory cache.
type Option func(*Memory)

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMaxEntries overrides the entry count that triggers a sweep.
func WithMaxEntries(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// WithMetrics records hits, misses and evictions.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Memory) {
		m.metrics = mt
	}
}

// NewMemory builds an empty in-memory cache.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		entries:    make(map[string]entry),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the value stored under key while it is fresh. Expired entries are
// removed on read.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		m.metrics.IncCacheMiss()
		return nil, false
	}

	now := m.now()
	if now.Sub(e.timestamp) <= e.ttl {
		m.metrics.IncCacheHit()
		return e.data, true
	}

	m.mu.Lock()
	// another writer may have refreshed the entry in between
	if cur, ok := m.entries[key]; ok && cur.timestamp.Equal(e.timestamp) {
		delete(m.entries, key)
		m.metrics.AddCacheEvictions(1)
	}
	m.mu.Unlock()
	m.metrics.IncCacheMiss()
	return nil, false
}

// Set stores value under key. When the cache is at capacity, expired entries are
// swept first; fresh entries are never evicted, so the cap can be exceeded.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.metrics.AddCacheEvictions(m.sweepLocked())
	}
	m.entries[key] = entry{data: value, timestamp: m.now(), ttl: ttl}
}

// Cleanup removes every expired entry and reports how many were dropped.
func (m *Memory) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.sweepLocked()
	m.metrics.AddCacheEvictions(removed)
	return removed
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) sweepLocked() int {
	now := m.now()
	removed := 0
	for key, e := range m.entries {
		if now.Sub(e.timestamp) > e.ttl {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// GetAs fetches key and asserts the stored value to T. A type mismatch is a miss.
func GetAs[T any](c Cache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
