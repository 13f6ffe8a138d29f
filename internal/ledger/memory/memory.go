// Package memory keeps exported ledger rows in process. It backs the ledger
// worker when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"wealthwarriors/internal/ledger"
	"wealthwarriors/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	entries []storage.LedgerEntry
}

var _ ledger.Writer = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendEntries stores the entries and returns a synthetic row range.
func (s *Store) AppendEntries(_ context.Context, entries []storage.LedgerEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := len(s.entries) + 1
	s.entries = append(s.entries, entries...)
	return fmt.Sprintf("mem:%d-%d", first, len(s.entries)), nil
}

func (s *Store) Entries() []storage.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.LedgerEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
