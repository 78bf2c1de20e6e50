package kv

import (
	"context"
	"sync"
)

// MemoryStorage keeps entries in process memory.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]string)}
}

func (m *MemoryStorage) Get(ctx context.Context, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[name]
	return v, ok, nil
}

func (m *MemoryStorage) Set(ctx context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = value
	return nil
}

func (m *MemoryStorage) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
	return nil
}
