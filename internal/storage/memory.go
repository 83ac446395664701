package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStorage keeps blobs in process memory. It is used when no storage
// account is configured.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// Ensure MemoryStorage implements StorageInterface
var _ StorageInterface = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Store saves a copy of data under filename
func (m *MemoryStorage) Store(filename string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[filename] = append([]byte(nil), data...)
	return nil
}

// Retrieve returns a copy of the data stored under filename
func (m *MemoryStorage) Retrieve(filename string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[filename]
	if !ok {
		return nil, fmt.Errorf("failed to read %s: %w", filename, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// List returns the sorted names starting with prefix
func (m *MemoryStorage) List(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.data {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes filename; deleting a missing name is not an error
func (m *MemoryStorage) Delete(filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, filename)
	return nil
}
