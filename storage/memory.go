package storage

import (
	"context"
	"fmt"
	"sync"
)

var _ Storage = (*Memory)(nil)

// Memory is an in-memory implementation of Storage
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]string),
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key) // Already absent is fine
	return nil
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
