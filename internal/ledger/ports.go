// Package ledger exports the transaction log to an append-only sink, one row
// per transaction.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"wealthwarriors/internal/storage"
)

// Writer appends ledger entries and returns a reference to where they landed.
type Writer interface {
	AppendEntries(ctx context.Context, entries []storage.LedgerEntry) (ref string, err error)
}

// Header names the columns produced by Row.
var Header = []any{"Date", "Kid", "Type", "Bucket", "Description", "Amount", "XP", "Transaction ID"}

// Row renders an entry as spreadsheet cells. Amounts are dollars with two
// decimals so the sheet parses them as numbers.
func Row(e storage.LedgerEntry) []any {
	return []any{
		e.Timestamp.UTC().Format(time.DateTime),
		e.KidName,
		string(e.Type),
		string(e.Bucket),
		e.Description,
		decimal.New(e.Amount.Cents, -2).StringFixed(2),
		e.XPEarned,
		e.ID,
	}
}
