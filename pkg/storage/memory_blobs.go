package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryBlobs keeps objects in-process for tests. FailPut, when set, makes
// every Put fail with that error before anything is stored.
type MemoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte

	FailPut error
}

// NewMemoryBlobs initializes an empty in-memory blob store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{objects: make(map[string][]byte)}
}

// Put stores the object bytes and returns its synthetic public URL.
func (m *MemoryBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if m.FailPut != nil {
		return "", m.FailPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read object: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return m.PublicURL(key), nil
}

// PublicURL returns a synthetic address for a stored object.
func (m *MemoryBlobs) PublicURL(key string) string {
	return "mem://" + key
}

// Len reports how many objects are stored.
func (m *MemoryBlobs) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
