package blob

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemBackend keeps objects in memory. It backs mem:// URIs and tests.
type MemBackend struct {
	mu      sync.RWMutex
	objects map[string]map[string][]byte
}

// NewMemBackend creates an empty MemBackend.
func NewMemBackend() *MemBackend {
	return &MemBackend{objects: make(map[string]map[string][]byte)}
}

func (m *MemBackend) List(_ context.Context, bucket, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.objects[bucket] {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemBackend) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[bucket][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemBackend) Put(_ context.Context, bucket, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.objects[bucket] == nil {
		m.objects[bucket] = make(map[string][]byte)
	}
	m.objects[bucket][key] = append([]byte(nil), data...)
	return nil
}
