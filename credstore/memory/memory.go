// Package memory provides a thread-safe in-memory credstore.Store.
package memory

import (
	"context"
	"sync"

	"github.com/devprozorov/unicorn/credstore"
)

// Store is an in-memory credential slot. Suitable for tests and for
// sessions that should never outlive the process.
type Store struct {
	mu      sync.RWMutex
	token   string
	present bool
}

var _ credstore.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

func (s *Store) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.present {
		return "", credstore.ErrNotFound
	}
	return s.token, nil
}

func (s *Store) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.present = true
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.present = false
	return nil
}
