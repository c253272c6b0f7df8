package kv

import (
	"context"
	"sync"
)

// Memory keeps slots in process memory. Values are lost on restart.
type Memory struct {
	mu    sync.RWMutex
	slots map[string]string
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.slots[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
