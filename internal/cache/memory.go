package cache

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for tests and ephemeral runs.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, prompt string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.m[Key(prompt)]
	if !ok {
		return "", ErrMiss
	}
	return resp, nil
}

func (s *MemoryStore) Set(_ context.Context, prompt, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[Key(prompt)] = response
	return nil
}

// Len reports the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
