package store

import (
	"context"
	"sync"

	"github.com/serroba/namecdn/internal/entry"
)

// MemoryStore is an in-memory implementation of entry.Records and entry.Blobs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry.Entry
	blobs   map[string][]byte
}

// NewMemoryStore creates a new in-memory entry store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry.Entry),
		blobs:   make(map[string][]byte),
	}
}

func (m *MemoryStore) Get(_ context.Context, name string) (*entry.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[name]
	if !ok {
		return nil, entry.ErrNotFound
	}

	return &e, nil
}

func (m *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[name]

	return ok, nil
}

// Insert acts like a primary key: a taken name yields entry.ErrDuplicateName.
func (m *MemoryStore) Insert(_ context.Context, e *entry.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[e.Name]; ok {
		return entry.ErrDuplicateName
	}

	m.entries[e.Name] = *e

	return nil
}

func (m *MemoryStore) DeleteRecord(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[name]; !ok {
		return false, nil
	}

	delete(m.entries, name)

	return true, nil
}

func (m *MemoryStore) ReadBlob(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, entry.ErrNotFound
	}

	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) WriteBlob(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[name] = append([]byte(nil), data...)

	return nil
}

func (m *MemoryStore) RemoveBlob(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[name]; !ok {
		return entry.ErrNotFound
	}

	delete(m.blobs, name)

	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

var (
	_ entry.Records = (*MemoryStore)(nil)
	_ entry.Blobs   = (*MemoryStore)(nil)
)
