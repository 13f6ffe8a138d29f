package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wealthwarriors/internal/amqp"
	"wealthwarriors/internal/ledger"
	"wealthwarriors/internal/storage"
)

// ConsumeFunc feeds family saved messages to a handler until ctx ends.
type ConsumeFunc func(ctx context.Context, handler func(context.Context, *amqp.FamilySavedMessage) error) error

// LedgerWorker copies transactions that have not been exported yet from the
// store into a ledger, then marks them exported.
type LedgerWorker struct {
	source    storage.LedgerSource
	writer    ledger.Writer
	batchSize int
	now       func() time.Time

	// tick and message driven exports must not interleave
	mu sync.Mutex
}

func NewLedgerWorker(source storage.LedgerSource, writer ledger.Writer, batchSize int) *LedgerWorker {
	if batchSize < 1 {
		batchSize = 50
	}
	return &LedgerWorker{
		source:    source,
		writer:    writer,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// HandleFamilySaved processes a single family saved message from AMQP
func (w *LedgerWorker) HandleFamilySaved(ctx context.Context, msg *amqp.FamilySavedMessage) error {
	slog.InfoContext(ctx, "Processing family saved message",
		"family_id", msg.FamilyID,
		"transactions", msg.Transactions)

	if _, err := w.ExportPending(ctx); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	return nil
}

// ExportPending drains the pending ledger in batches and returns how many
// entries were exported. Entries are marked only after the writer accepted
// them, so a failure leaves them pending for the next run.
func (w *LedgerWorker) ExportPending(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	total := 0
	for {
		pending, err := w.source.PendingLedger(ctx, w.batchSize)
		if err != nil {
			return total, fmt.Errorf("get pending ledger: %w", err)
		}
		if len(pending) == 0 {
			return total, nil
		}

		ref, err := w.writer.AppendEntries(ctx, pending)
		if err != nil {
			return total, fmt.Errorf("append ledger entries: %w", err)
		}

		ids := make([]string, len(pending))
		for i, e := range pending {
			ids[i] = e.ID
		}
		if err := w.source.MarkExported(ctx, ids, w.now()); err != nil {
			return total, fmt.Errorf("mark exported: %w", err)
		}

		total += len(pending)
		slog.InfoContext(ctx, "Exported ledger entries",
			"count", len(pending),
			"ref", ref)

		if len(pending) < w.batchSize {
			return total, nil
		}
	}
}

// Run exports once at startup, then on every interval tick and on every
// message consume delivers. consume may be nil when AMQP is not configured.
func (w *LedgerWorker) Run(ctx context.Context, interval time.Duration, consume ConsumeFunc) error {
	if n, err := w.ExportPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup ledger export failed", "error", err)
	} else {
		slog.InfoContext(ctx, "Startup ledger export completed", "exported", n)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := w.ExportPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic ledger export failed", "error", err)
				}
			}
		}
	})

	if consume != nil {
		g.Go(func() error {
			return consume(ctx, w.HandleFamilySaved)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
