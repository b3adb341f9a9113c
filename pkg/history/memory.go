package history

import (
	"context"
	"sync"
)

// MemoryStore holds the history in process memory. Used by tests and by
// deployments that do not need counts to survive a restart.
type MemoryStore struct {
	mu    sync.Mutex
	data  History
	saves int
}

// NewMemoryStore returns a store seeded with a copy of initial (may be nil).
func NewMemoryStore(initial History) *MemoryStore {
	if initial == nil {
		initial = History{}
	}
	return &MemoryStore{data: initial.Clone()}
}

func (s *MemoryStore) Load(_ context.Context) (History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, h History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = h.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
