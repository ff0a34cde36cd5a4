package tokenstore

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is a process-local Store for tests and one-shot CLI runs.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]string)}
}

func (s *MemoryStore) Get(_ context.Context, workID string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[workID]
	return slices.Clone(t), ok, nil
}

func (s *MemoryStore) Put(_ context.Context, workID string, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[workID] = slices.Clone(tokens)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, workID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, workID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
