package blobstore

import (
	"context"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps corpora in memory. It backs the "memory" storage kind
// and fetcher tests; Put copies its input.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memoryObject
}

type memoryObject struct {
	data  view
	opens int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]*memoryObject)}
}

func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[name]
	if !ok {
		return nil, ErrNotFound
	}
	obj.opens++
	return memoryBlob{obj.data}, nil
}

// Opens reports how many times name has been opened, so callers can check
// that a cached corpus is not downloaded twice.
func (m *MemoryStore) Opens(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if obj, ok := m.objects[name]; ok {
		return obj.opens
	}
	return 0
}

func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[name]
	if !ok {
		obj = &memoryObject{}
		m.objects[name] = obj
	}
	obj.data = slices.Clone(data)
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := slices.Sorted(maps.Keys(m.objects))
	return slices.DeleteFunc(names, func(n string) bool {
		return !strings.HasPrefix(n, prefix)
	}), nil
}

// memoryBlob shares the stored slice; Put swaps in a new one instead of
// writing to it.
type memoryBlob struct{ v view }

func (b memoryBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return b.v.readAt(p, off)
}

func (b memoryBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	return b.v.section(off, length), nil
}

func (b memoryBlob) Size() int64  { return int64(len(b.v)) }
func (b memoryBlob) Close() error { return nil }
