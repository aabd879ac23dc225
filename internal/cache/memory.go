package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a concurrent-safe LRU cache with TTL expiration.
type Memory struct {
	lru        *expirable.LRU[string, []byte]
	maxEntries int
	hits       atomic.Int64
	misses     atomic.Int64
}

// NewMemory creates a Memory cache with the given capacity and TTL.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &Memory{
		lru:        expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
		maxEntries: maxEntries,
	}
}

// Get returns the cached payload. Expired entries count as misses.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, ok := m.lru.Get(key)
	if !ok {
		m.misses.Add(1)
		return nil, false, nil
	}
	m.hits.Add(1)
	return data, true, nil
}

// Set stores a payload, evicting the least recently used entry at capacity.
func (m *Memory) Set(_ context.Context, key string, data []byte) error {
	m.lru.Add(key, data)
	return nil
}

// Stats returns cache performance statistics.
func (m *Memory) Stats() Stats {
	hits := m.hits.Load()
	misses := m.misses.Load()
	return Stats{
		Driver:     "memory",
		Entries:    m.lru.Len(),
		MaxEntries: m.maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate(hits, misses),
	}
}

// Close drops every entry.
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
