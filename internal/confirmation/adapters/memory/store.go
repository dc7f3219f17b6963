package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
)

// Store keeps session partitions in process memory. Useful for local development and tests.
type Store struct {
	mu    sync.Mutex
	items map[ports.Scope]map[string][]byte
}

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{items: make(map[ports.Scope]map[string][]byte)}
}

// Set stores or overwrites the value for key.
func (s *Store) Set(_ context.Context, scope ports.Scope, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	partition, ok := s.items[scope]
	if !ok {
		partition = make(map[string][]byte)
		s.items[scope] = partition
	}
	partition[key] = bytes.Clone(value)
	return nil
}

// Get returns a copy of the value for key if present.
func (s *Store) Get(_ context.Context, scope ports.Scope, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.items[scope][key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(value), true, nil
}

// Clear removes key from the partition.
func (s *Store) Clear(_ context.Context, scope ports.Scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(scope, key)
	return nil
}

// ClearAll drops the whole partition.
func (s *Store) ClearAll(_ context.Context, scope ports.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, scope)
	return nil
}

// Take returns and removes the value for key under a single lock.
func (s *Store) Take(_ context.Context, scope ports.Scope, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.items[scope][key]
	if !ok {
		return nil, false, nil
	}
	s.deleteLocked(scope, key)
	return value, true, nil
}

func (s *Store) deleteLocked(scope ports.Scope, key string) {
	partition, ok := s.items[scope]
	if !ok {
		return
	}
	delete(partition, key)
	if len(partition) == 0 {
		delete(s.items, scope)
	}
}
