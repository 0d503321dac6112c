package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Store implementation for tests and ephemeral
// stores. Thread-safe for concurrent reads and writes.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string][]byte),
	}
}

// Get returns the full content of the named object.
func (m *Memory) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[name]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy to prevent external mutation.
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Put atomically replaces the named object.
func (m *Memory) Put(_ context.Context, name string, data []byte) error {
	copied := make([]byte, len(data))
	copy(copied, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = copied
	return nil
}

// Stat returns the size of the object.
func (m *Memory) Stat(_ context.Context, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[name]
	if !ok {
		return 0, ErrNotFound
	}
	return int64(len(data)), nil
}

// Delete removes the object; absence is not an error.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, name)
	return nil
}

// List returns the names of objects with the given prefix, sorted.
func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
