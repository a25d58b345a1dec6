package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	data      string
	expiresAt time.Time
}

// Memory is the fast volatile cache tier. Entries expire per their own TTL
// and are evicted lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func memoryKey(table, key string) string {
	return table + ":" + key
}

// Get returns the cached value for key in table, if present and fresh.
func (m *Memory) Get(table, key string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[memoryKey(table, key)]
	m.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, memoryKey(table, key))
		m.mu.Unlock()
		return "", false, nil
	}
	return entry.data, true, nil
}

// Set stores a value for key in table with the given TTL.
func (m *Memory) Set(table, key, data string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memoryKey(table, key)] = memoryEntry{
		data:      data,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Len returns the number of live entries, counting expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
