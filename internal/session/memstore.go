package session

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store for tests and the memory backend.
type MemStore struct {
	mu   sync.Mutex
	vals map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{vals: make(map[string]string)}
}

func (s *MemStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals[key], nil
}

func (s *MemStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key] = value
	return nil
}

func (s *MemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vals, key)
	return nil
}
