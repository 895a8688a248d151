// Package lockstore holds the durable snapshots of locked generation
// parameters. Every store is keyed by user and parameter name.
package lockstore

import (
	"context"
	"sync"

	"github.com/maheshrc27/storepost/internal/composer"
)

type Memory struct {
	mu     sync.RWMutex
	values map[int64]map[string]composer.StoredParameter
}

func NewMemory() *Memory {
	return &Memory{values: make(map[int64]map[string]composer.StoredParameter)}
}

func (m *Memory) Load(_ context.Context, userID int64) (map[string]composer.StoredParameter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]composer.StoredParameter, len(m.values[userID]))
	for name, p := range m.values[userID] {
		out[name] = p
	}
	return out, nil
}

func (m *Memory) Save(_ context.Context, userID int64, name string, p composer.StoredParameter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values[userID] == nil {
		m.values[userID] = make(map[string]composer.StoredParameter)
	}
	m.values[userID][name] = p
	return nil
}
