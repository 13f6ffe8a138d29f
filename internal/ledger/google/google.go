// Package google appends ledger rows to a Google Sheet, one tab per year
// ("2025 Ledger"), using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wealthwarriors/internal/ledger"
	"wealthwarriors/internal/storage"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ ledger.Writer = (*Client)(nil)

// New builds a client from a service account key.
func New(ctx context.Context, spreadsheetID, sheetBase string, credentialsJSON []byte) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetBase), nil
}

// NewWithService wraps an existing service; tests point it at a fake server.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	if sheetBase == "" {
		sheetBase = "Ledger"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}
}

// AppendEntries writes one row per entry. Entries are grouped by the year of
// their timestamp and each group goes to that year's tab.
func (c *Client) AppendEntries(ctx context.Context, entries []storage.LedgerEntry) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(entries) == 0 {
		return "", nil
	}

	var refs []string
	for _, group := range groupByYear(entries) {
		sheet := yearPrefixedName(c.sheetBase, group.year)
		rows := make([][]any, 0, len(group.entries))
		for _, e := range group.entries {
			rows = append(rows, ledger.Row(e))
		}

		rng := fmt.Sprintf("%s!A:H", sheet)
		resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return strings.Join(refs, ","), fmt.Errorf("append to sheet %s: %w", sheet, err)
		}

		ref := rng
		if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
			ref = resp.Updates.UpdatedRange
		}
		refs = append(refs, ref)

		slog.DebugContext(ctx, "Appended ledger rows", "sheet", sheet, "rows", len(rows), "range", ref)
	}
	return strings.Join(refs, ","), nil
}

type yearGroup struct {
	year    int
	entries []storage.LedgerEntry
}

// groupByYear keeps first-seen year order and entry order within a year.
func groupByYear(entries []storage.LedgerEntry) []yearGroup {
	var groups []yearGroup
	index := map[int]int{}
	for _, e := range entries {
		y := e.Timestamp.UTC().Year()
		i, ok := index[y]
		if !ok {
			i = len(groups)
			index[y] = i
			groups = append(groups, yearGroup{year: y})
		}
		groups[i].entries = append(groups[i].entries, e)
	}
	return groups
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
