// Package sqlstore maps the family aggregate onto the relational layout
// (families, kids, buckets, pets, pet_stable, goals, custom_causes, badges,
// transactions) in sqlite or postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/storage"
)

type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects, applies migrations and returns a ready store. For sqlite,
// target is a file path; for postgres, a connection URL.
func Open(ctx context.Context, d Dialect, target string) (*Store, error) {
	if _, ok := d.(SQLiteDialect); ok && !strings.HasPrefix(target, "file:") {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(d.DriverName(), d.DSN(target))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	d.ConfigureConnection(db)

	if err := RunMigrations(d, target); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) q(query string) string {
	return s.dialect.RewriteQuery(query)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

// SaveFamily writes the whole aggregate in one transaction. Child collections
// are replaced; transactions are append-only and inserted once, so an
// exported_at mark survives later saves.
func (s *Store) SaveFamily(ctx context.Context, f core.Family) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	// The store holds one family; a new one replaces the old rows and,
	// through the cascades, their kids.
	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM families WHERE id <> ?`), f.ID); err != nil {
		return fmt.Errorf("delete replaced families: %w", err)
	}

	now := formatTime(time.Now())
	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO families (id, name, parent_pin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			parent_pin = excluded.parent_pin,
			updated_at = excluded.updated_at`),
		f.ID, f.Name, f.Settings.ParentPin, now, now); err != nil {
		return fmt.Errorf("upsert family: %w", err)
	}

	if err := s.deleteMissingKids(ctx, tx, f); err != nil {
		return err
	}

	for i, k := range f.Kids {
		if err := s.saveKid(ctx, tx, f, i, k); err != nil {
			return fmt.Errorf("save kid %s: %w", k.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	slog.DebugContext(ctx, "Family saved", "family_id", f.ID, "kids", len(f.Kids), "dialect", s.dialect.Name())
	return nil
}

func (s *Store) deleteMissingKids(ctx context.Context, tx *sql.Tx, f core.Family) error {
	rows, err := tx.QueryContext(ctx, s.q(`SELECT id FROM kids WHERE family_id = ?`), f.ID)
	if err != nil {
		return fmt.Errorf("list kids: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan kid id: %w", err)
		}
		if _, ok := f.FindKid(id); !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list kids: %w", err)
	}
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM kids WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete kid %s: %w", id, err)
		}
	}
	return nil
}

func nullableCents(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Cents, Valid: true}
}

func (s *Store) saveKid(ctx context.Context, tx *sql.Tx, f core.Family, pos int, k core.Kid) error {
	var allowance *core.Money
	if a, ok := f.Settings.WeeklyAllowances[k.ID]; ok {
		allowance = &a
	}
	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO kids (id, family_id, position, name, age, avatar, total_xp, warrior_rank,
			pending_allocation_cents, weekly_allowance_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			family_id = excluded.family_id,
			position = excluded.position,
			name = excluded.name,
			age = excluded.age,
			avatar = excluded.avatar,
			total_xp = excluded.total_xp,
			warrior_rank = excluded.warrior_rank,
			pending_allocation_cents = excluded.pending_allocation_cents,
			weekly_allowance_cents = excluded.weekly_allowance_cents`),
		k.ID, f.ID, pos, k.Name, k.Age, k.Avatar, k.TotalXP, k.WarriorRank,
		nullableCents(k.PendingAllocation), nullableCents(allowance)); err != nil {
		return fmt.Errorf("upsert kid: %w", err)
	}

	b := k.Buckets
	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO buckets (kid_id, save_balance_cents, interest_rate, baseline_cents,
			spend_balance_cents, share_balance_cents, total_given_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (kid_id) DO UPDATE SET
			save_balance_cents = excluded.save_balance_cents,
			interest_rate = excluded.interest_rate,
			baseline_cents = excluded.baseline_cents,
			spend_balance_cents = excluded.spend_balance_cents,
			share_balance_cents = excluded.share_balance_cents,
			total_given_cents = excluded.total_given_cents`),
		k.ID, b.Save.Balance.Cents, b.Save.InterestRate, b.Save.Baseline.Cents,
		b.Spend.Balance.Cents, b.Share.Balance.Cents, b.Share.TotalGiven.Cents); err != nil {
		return fmt.Errorf("upsert buckets: %w", err)
	}

	for _, table := range []string{"pets", "pet_stable", "goals", "custom_causes", "badges"} {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE kid_id = ?`), k.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if p := k.CurrentPet; p != nil {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO pets (id, kid_id, type, name, level, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
			p.ID, k.ID, string(p.Type), p.Name, p.Level, formatTime(p.CreatedAt)); err != nil {
			return fmt.Errorf("insert pet: %w", err)
		}
	}

	for i, p := range k.PetStable {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO pet_stable (id, kid_id, position, type, name, level, raised_to_elder_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			p.ID, k.ID, i, string(p.Type), p.Name, p.Level, formatTime(p.RaisedToElderAt)); err != nil {
			return fmt.Errorf("insert stable pet: %w", err)
		}
	}

	for i, g := range k.Buckets.Spend.Goals {
		var purchasedAt sql.NullString
		if g.PurchasedAt != nil {
			purchasedAt = sql.NullString{String: formatTime(*g.PurchasedAt), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO goals (id, kid_id, position, name, target_cents, current_cents, visual, visual_type,
				image_url, link_url, completed, purchased, purchased_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			g.ID, k.ID, i, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Visual, string(g.VisualType),
			g.ImageURL, g.LinkURL, g.Completed, g.Purchased, purchasedAt, formatTime(g.CreatedAt)); err != nil {
			return fmt.Errorf("insert goal: %w", err)
		}
	}

	for i, c := range k.Buckets.Share.CustomCauses {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO custom_causes (id, kid_id, position, name, description, emoji, image_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			c.ID, k.ID, i, c.Name, c.Description, c.Emoji, c.ImageURL); err != nil {
			return fmt.Errorf("insert cause: %w", err)
		}
	}

	for _, bd := range k.Badges {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO badges (kid_id, type, name, threshold_cents, earned_at) VALUES (?, ?, ?, ?, ?)`),
			k.ID, bd.Type, bd.Name, bd.Threshold.Cents, formatTime(bd.EarnedAt)); err != nil {
			return fmt.Errorf("insert badge: %w", err)
		}
	}

	// Transactions are newest first; position counts up from the oldest so
	// existing rows keep their position as new ones are prepended.
	n := len(k.Transactions)
	for i, t := range k.Transactions {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO transactions (id, kid_id, position, type, amount_cents, bucket, description, xp_earned, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`),
			t.ID, k.ID, n-i, string(t.Type), t.Amount.Cents, string(t.Bucket), t.Description, t.XPEarned,
			formatTime(t.Timestamp)); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	return nil
}

// LoadFamily returns the stored family, or nil when none has been saved.
func (s *Store) LoadFamily(ctx context.Context) (*core.Family, error) {
	f := core.Family{Kids: []core.Kid{}, Settings: core.FamilySettings{WeeklyAllowances: map[string]core.Money{}}}
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, name, parent_pin FROM families ORDER BY created_at, id LIMIT 1`)).
		Scan(&f.ID, &f.Name, &f.Settings.ParentPin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load family: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT k.id, k.name, k.age, k.avatar, k.total_xp, k.warrior_rank,
			k.pending_allocation_cents, k.weekly_allowance_cents,
			b.save_balance_cents, b.interest_rate, b.baseline_cents,
			b.spend_balance_cents, b.share_balance_cents, b.total_given_cents
		FROM kids k
		JOIN buckets b ON b.kid_id = k.id
		WHERE k.family_id = ?
		ORDER BY k.position`), f.ID)
	if err != nil {
		return nil, fmt.Errorf("load kids: %w", err)
	}
	for rows.Next() {
		var (
			k                  core.Kid
			pending, allowance sql.NullInt64
			b                  = &k.Buckets
		)
		if err := rows.Scan(&k.ID, &k.Name, &k.Age, &k.Avatar, &k.TotalXP, &k.WarriorRank,
			&pending, &allowance,
			&b.Save.Balance.Cents, &b.Save.InterestRate, &b.Save.Baseline.Cents,
			&b.Spend.Balance.Cents, &b.Share.Balance.Cents, &b.Share.TotalGiven.Cents); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan kid: %w", err)
		}
		if pending.Valid {
			m := core.Cents(pending.Int64)
			k.PendingAllocation = &m
		}
		if allowance.Valid {
			f.Settings.WeeklyAllowances[k.ID] = core.Cents(allowance.Int64)
		}
		f.Kids = append(f.Kids, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load kids: %w", err)
	}

	for i := range f.Kids {
		if err := s.loadKidChildren(ctx, &f.Kids[i]); err != nil {
			return nil, fmt.Errorf("load kid %s: %w", f.Kids[i].ID, err)
		}
	}
	return &f, nil
}

func (s *Store) loadKidChildren(ctx context.Context, k *core.Kid) error {
	k.PetStable = []core.StablePet{}
	k.Buckets.Spend.Goals = []core.SpendingGoal{}
	k.Buckets.Share.CustomCauses = []core.Cause{}
	k.Badges = []core.Badge{}
	k.Transactions = []core.Transaction{}

	var (
		p       core.Pet
		created string
	)
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, type, name, level, created_at FROM pets WHERE kid_id = ?`), k.ID).
		Scan(&p.ID, &p.Type, &p.Name, &p.Level, &created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("load pet: %w", err)
	default:
		if p.CreatedAt, err = parseTime(created); err != nil {
			return err
		}
		k.CurrentPet = &p
	}

	if err := s.each(ctx, `
		SELECT id, type, name, level, raised_to_elder_at FROM pet_stable WHERE kid_id = ? ORDER BY position`,
		k.ID, func(rows *sql.Rows) error {
			var sp core.StablePet
			var at string
			if err := rows.Scan(&sp.ID, &sp.Type, &sp.Name, &sp.Level, &at); err != nil {
				return err
			}
			var err error
			if sp.RaisedToElderAt, err = parseTime(at); err != nil {
				return err
			}
			k.PetStable = append(k.PetStable, sp)
			return nil
		}); err != nil {
		return fmt.Errorf("load stable: %w", err)
	}

	if err := s.each(ctx, `
		SELECT id, name, target_cents, current_cents, visual, visual_type, image_url, link_url,
			completed, purchased, purchased_at, created_at
		FROM goals WHERE kid_id = ? ORDER BY position`,
		k.ID, func(rows *sql.Rows) error {
			var g core.SpendingGoal
			var purchasedAt sql.NullString
			var createdAt string
			if err := rows.Scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &g.Visual,
				&g.VisualType, &g.ImageURL, &g.LinkURL, &g.Completed, &g.Purchased, &purchasedAt, &createdAt); err != nil {
				return err
			}
			var err error
			if g.CreatedAt, err = parseTime(createdAt); err != nil {
				return err
			}
			if purchasedAt.Valid {
				at, err := parseTime(purchasedAt.String)
				if err != nil {
					return err
				}
				g.PurchasedAt = &at
			}
			k.Buckets.Spend.Goals = append(k.Buckets.Spend.Goals, g)
			return nil
		}); err != nil {
		return fmt.Errorf("load goals: %w", err)
	}

	if err := s.each(ctx, `
		SELECT id, name, description, emoji, image_url FROM custom_causes WHERE kid_id = ? ORDER BY position`,
		k.ID, func(rows *sql.Rows) error {
			c := core.Cause{IsCustom: true}
			if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Emoji, &c.ImageURL); err != nil {
				return err
			}
			k.Buckets.Share.CustomCauses = append(k.Buckets.Share.CustomCauses, c)
			return nil
		}); err != nil {
		return fmt.Errorf("load causes: %w", err)
	}

	if err := s.each(ctx, `
		SELECT type, name, threshold_cents, earned_at FROM badges WHERE kid_id = ? ORDER BY threshold_cents`,
		k.ID, func(rows *sql.Rows) error {
			var b core.Badge
			var at string
			if err := rows.Scan(&b.Type, &b.Name, &b.Threshold.Cents, &at); err != nil {
				return err
			}
			var err error
			if b.EarnedAt, err = parseTime(at); err != nil {
				return err
			}
			k.Badges = append(k.Badges, b)
			return nil
		}); err != nil {
		return fmt.Errorf("load badges: %w", err)
	}

	if err := s.each(ctx, `
		SELECT id, type, amount_cents, bucket, description, xp_earned, created_at
		FROM transactions WHERE kid_id = ? ORDER BY position DESC`,
		k.ID, func(rows *sql.Rows) error {
			t, err := scanTransaction(rows)
			if err != nil {
				return err
			}
			k.Transactions = append(k.Transactions, t)
			return nil
		}); err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner, extra ...any) (core.Transaction, error) {
	var t core.Transaction
	var at string
	dest := append([]any{&t.ID, &t.Type, &t.Amount.Cents, &t.Bucket, &t.Description, &t.XPEarned, &at}, extra...)
	if err := row.Scan(dest...); err != nil {
		return t, err
	}
	ts, err := parseTime(at)
	if err != nil {
		return t, err
	}
	t.Timestamp = ts
	return t, nil
}

func (s *Store) each(ctx context.Context, query string, arg any, fn func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, s.q(query), arg)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// PendingLedger returns up to limit transactions not yet exported, oldest first.
func (s *Store) PendingLedger(ctx context.Context, limit int) ([]storage.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT t.id, t.type, t.amount_cents, t.bucket, t.description, t.xp_earned, t.created_at,
			k.id, k.name, k.family_id
		FROM transactions t
		JOIN kids k ON k.id = t.kid_id
		WHERE t.exported_at IS NULL
		ORDER BY t.created_at, t.position
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending ledger: %w", err)
	}
	defer rows.Close()

	var out []storage.LedgerEntry
	for rows.Next() {
		var e storage.LedgerEntry
		t, err := scanTransaction(rows, &e.KidID, &e.KidName, &e.FamilyID)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Transaction = t
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) MarkExported(ctx context.Context, txIDs []string, at time.Time) error {
	if len(txIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark exported: %w", err)
	}
	defer tx.Rollback()

	stamp := formatTime(at)
	for _, id := range txIDs {
		if _, err := tx.ExecContext(ctx, s.q(`UPDATE transactions SET exported_at = ? WHERE id = ?`), stamp, id); err != nil {
			return fmt.Errorf("mark %s exported: %w", id, err)
		}
	}
	return tx.Commit()
}
