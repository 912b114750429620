package run

import (
	"context"
	"sync"

	"github.com/mapbook/mapbook/internal/domain"
)

// Compile-time check: Memory implements Repository.
var _ Repository = (*Memory)(nil)

// Memory is the in-process run store. Runs vanish on restart; it is the
// default driver for single-node and CLI use.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]domain.Run
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string]domain.Run)}
}

// Save stores or replaces a run.
func (m *Memory) Save(_ context.Context, r domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID] = r
	return nil
}

// Get retrieves a run by ID.
func (m *Memory) Get(_ context.Context, id string) (domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return domain.Run{}, domain.ErrRunNotFound
	}
	return r, nil
}

// Delete removes a run by ID.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return domain.ErrRunNotFound
	}
	delete(m.runs, id)
	return nil
}
