// Package storage defines the persistence contract the host uses to store a
// family after each transition. The engine itself never sees these types.
package storage

import (
	"context"
	"errors"
	"slices"
	"time"

	"wealthwarriors/internal/core"
)

var ErrClosed = errors.New("store closed")

// FamilyStore persists the family aggregate. LoadFamily returns nil, nil
// when nothing has been saved yet.
type FamilyStore interface {
	LoadFamily(ctx context.Context) (*core.Family, error)
	SaveFamily(ctx context.Context, f core.Family) error
}

// StateStore persists the whole application state as a single document.
type StateStore interface {
	LoadState(ctx context.Context) (core.State, error)
	SaveState(ctx context.Context, s core.State) error
}

// LedgerEntry is a transaction waiting to be exported, with the kid it
// belongs to.
type LedgerEntry struct {
	FamilyID string
	KidID    string
	KidName  string
	core.Transaction
}

// LedgerSource exposes transactions that have not yet been exported.
type LedgerSource interface {
	PendingLedger(ctx context.Context, limit int) ([]LedgerEntry, error)
	MarkExported(ctx context.Context, txIDs []string, at time.Time) error
}

// PendingFromFamily lists the family's transactions oldest first, skipping
// those already in exported.
func PendingFromFamily(f *core.Family, exported map[string]time.Time, limit int) []LedgerEntry {
	if f == nil {
		return nil
	}
	var out []LedgerEntry
	for _, k := range f.Kids {
		for i := len(k.Transactions) - 1; i >= 0; i-- {
			tx := k.Transactions[i]
			if _, done := exported[tx.ID]; done {
				continue
			}
			out = append(out, LedgerEntry{FamilyID: f.ID, KidID: k.ID, KidName: k.Name, Transaction: tx})
		}
	}
	slices.SortStableFunc(out, func(a, b LedgerEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
