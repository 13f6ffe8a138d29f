// Package memory is an in-process store used when no durable backend is
// configured, and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	state    core.State
	saved    bool
	exported map[string]time.Time
	saves    int
}

func NewStore() *Store {
	return &Store{
		state:    core.InitialState(),
		exported: make(map[string]time.Time),
	}
}

func (s *Store) LoadFamily(_ context.Context) (*core.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Family, nil
}

func (s *Store) SaveFamily(_ context.Context, f core.Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Family = &f
	s.saved = true
	s.saves++
	return nil
}

func (s *Store) LoadState(_ context.Context) (core.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *Store) SaveState(_ context.Context, st core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.saved = true
	s.saves++
	return nil
}

func (s *Store) PendingLedger(_ context.Context, limit int) ([]storage.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storage.PendingFromFamily(s.state.Family, s.exported, limit), nil
}

func (s *Store) MarkExported(_ context.Context, txIDs []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range txIDs {
		s.exported[id] = at
	}
	return nil
}

// Saves reports how many times the store has been written.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
