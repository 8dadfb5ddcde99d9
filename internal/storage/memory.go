package storage

import (
	"context"
	"sync"
)

// Memory keeps the blob in process memory. Useful for tests.
type Memory struct {
	mu   sync.Mutex
	blob []byte
	ok   bool
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{}
}

// ReadAll implements Adapter.
func (m *Memory) ReadAll(ctx context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok {
		return nil, false, nil
	}
	return append([]byte{}, m.blob...), true, nil
}

// WriteAll implements Adapter.
func (m *Memory) WriteAll(ctx context.Context, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = append([]byte{}, blob...)
	m.ok = true
	return nil
}

// Close implements Adapter.
func (m *Memory) Close() error { return nil }
