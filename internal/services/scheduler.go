package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/engine"
)

// WeeklyAllowanceDescription marks grants made by the scheduler. Dueness is
// measured from the newest grant carrying it.
const WeeklyAllowanceDescription = "Weekly allowance"

// Scheduler grants weekly allowances and applies monthly interest. It keeps no
// state of its own: dueness is read from each kid's transaction log.
type Scheduler struct {
	svc     *FamilyService
	now     func() time.Time
	weekly  DuenessChecker
	monthly DuenessChecker
}

// RunReport counts what one pass did.
type RunReport struct {
	Allowances int
	Interest   int
}

func NewScheduler(svc *FamilyService, now func() time.Time) *Scheduler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	weekly, _ := GetDuenessChecker(Weekly)
	monthly, _ := GetDuenessChecker(Monthly)
	return &Scheduler{svc: svc, now: now, weekly: weekly, monthly: monthly}
}

// RunOnce dispatches every due job. A failing kid does not stop the others;
// all failures are returned joined.
func (s *Scheduler) RunOnce(ctx context.Context) (RunReport, error) {
	var report RunReport
	st := s.svc.State()
	if st.Family == nil {
		return report, nil
	}
	now := s.now()

	var errs []error
	for _, k := range st.Family.Kids {
		if amount, ok := st.Family.Settings.WeeklyAllowances[k.ID]; ok && amount.IsPositive() {
			if s.weekly.IsDue(lastAllowance(k), now, time.Time{}) {
				_, err := s.svc.DispatchAsParent(ctx, engine.GrantMoney{KidID: k.ID, Amount: amount, Description: WeeklyAllowanceDescription})
				if err != nil {
					errs = append(errs, fmt.Errorf("allowance for %s: %w", k.ID, err))
				} else {
					report.Allowances++
					slog.InfoContext(ctx, "Granted weekly allowance", "kid_id", k.ID, "amount_cents", amount.Cents)
				}
			}
		}

		interest := core.MonthlyInterest(k.Buckets.Save.Balance, k.Buckets.Save.InterestRate)
		if !interest.IsPositive() {
			continue
		}
		var last time.Time
		if tx, ok := k.LastTransaction(core.TxInterest); ok {
			last = tx.Timestamp
		}
		if s.monthly.IsDue(last, now, time.Time{}) {
			if _, err := s.svc.DispatchAsParent(ctx, engine.ApplyInterest{KidID: k.ID}); err != nil {
				errs = append(errs, fmt.Errorf("interest for %s: %w", k.ID, err))
			} else {
				report.Interest++
				slog.InfoContext(ctx, "Applied monthly interest", "kid_id", k.ID, "amount_cents", interest.Cents)
			}
		}
	}

	return report, errors.Join(errs...)
}

// Run calls RunOnce immediately and then every interval until ctx ends.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report, err := s.RunOnce(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Scheduler pass had failures", "error", err)
		}
		if report.Allowances > 0 || report.Interest > 0 {
			slog.InfoContext(ctx, "Scheduler pass completed",
				"allowances", report.Allowances,
				"interest", report.Interest)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func lastAllowance(k core.Kid) time.Time {
	for _, tx := range k.Transactions {
		if tx.Type == core.TxGrant && tx.Description == WeeklyAllowanceDescription {
			return tx.Timestamp
		}
	}
	return time.Time{}
}
