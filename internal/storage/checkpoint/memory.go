package checkpoint

import (
	"context"
	"sync"

	"github.com/harlowe/vigil/internal/core"
)

// MemoryStore is an in-memory checkpoint store. It is the reference Store
// used by tests and single-process runs.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string][]byte),
	}
}

// Save writes or replaces the checkpoint for a run.
func (m *MemoryStore) Save(ctx context.Context, runID string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(state))
	copy(cp, state)
	m.states[runID] = cp
	return nil
}

// Load returns the checkpoint for a run.
func (m *MemoryStore) Load(ctx context.Context, runID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[runID]
	if !ok {
		return nil, core.ErrCheckpointNotFound
	}
	cp := make([]byte, len(state))
	copy(cp, state)
	return cp, nil
}

// Delete removes the checkpoint for a run.
func (m *MemoryStore) Delete(ctx context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, runID)
	return nil
}

// List returns the run ids with a stored checkpoint.
func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	return ids, nil
}
