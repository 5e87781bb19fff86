package config

import (
	"context"
	"sync"
)

// MemoryStore is a Store held entirely in memory. It backs --ephemeral runs
// and tests, and can be told to fail loads or saves.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
	saves   []SavedEntry

	loadErr error
	saveErr error
}

// SavedEntry records one successful Save call.
type SavedEntry struct {
	Key   string
	Value string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// Load returns the value saved under key.
func (m *MemoryStore) Load(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return "", false, m.loadErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

// Save stores value under key.
func (m *MemoryStore) Save(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[key] = value
	m.saves = append(m.saves, SavedEntry{Key: key, Value: value})
	return nil
}

// Put seeds a value without recording a save.
func (m *MemoryStore) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// FailLoads makes subsequent Load calls return err (nil clears it).
func (m *MemoryStore) FailLoads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// FailSaves makes subsequent Save calls return err (nil clears it).
func (m *MemoryStore) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Saves returns the successful saves in the order they happened.
func (m *MemoryStore) Saves() []SavedEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SavedEntry, len(m.saves))
	copy(out, m.saves)
	return out
}
