package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It backs single-process deployments
// and unit tests; entries do not survive a restart, so production
// setups should prefer the Redis backend.
type Memory struct {
	mu          sync.RWMutex
	generations map[string]map[string]*Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		generations: make(map[string]map[string]*Entry),
	}
}

// Put stores a copy of the entry, overwriting any prior entry for the key.
func (m *Memory) Put(_ context.Context, generation string, key Key, entry *Entry) error {
	if entry == nil {
		CacheErrors.WithLabelValues("put").Inc()
		return ErrInvalidEntry
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	gen, ok := m.generations[generation]
	if !ok {
		gen = make(map[string]*Entry)
		m.generations[generation] = gen
	}
	gen[key.String()] = entry.Clone()
	return nil
}

// Match returns a copy of the stored entry, or ErrCacheMiss.
func (m *Memory) Match(_ context.Context, generation string, key Key) (*Entry, error) {
	m.mu.RLock()
	entry, ok := m.generations[generation][key.String()]
	m.mu.RUnlock()

	if !ok {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return entry.Clone(), nil
}

// Generations lists generations that hold at least one entry.
func (m *Memory) Generations(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.generations))
	for name, entries := range m.generations {
		if len(entries) > 0 {
			names = append(names, name)
		}
	}
	return names, nil
}

// DeleteGeneration drops the named generation.
func (m *Memory) DeleteGeneration(_ context.Context, generation string) error {
	m.mu.Lock()
	_, existed := m.generations[generation]
	delete(m.generations, generation)
	m.mu.Unlock()

	if existed {
		GenerationsDeleted.Inc()
	}
	return nil
}

// Close is a no-op for the in-memory backend.
func (m *Memory) Close() error {
	return nil
}
