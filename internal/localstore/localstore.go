// Package localstore is flat key-value persisted text for client-side state,
// the way a browser keeps localStorage: values are read and written wholesale.
package localstore

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get for a key that holds no value.
var ErrNotFound = errors.New("localstore: key not found")

// Storage persists opaque values under string keys.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Memory is a process-local Storage.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ Storage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
