package engine

import (
	"fmt"
	"strconv"
	"strings"

	"wealthwarriors/internal/core"
)

// DefaultGrantDescription labels grants dispatched without a description.
const DefaultGrantDescription = "Allowance"

func (e *Engine) grantMoney(s core.State, a GrantMoney) (core.State, error) {
	if err := a.Amount.Validate(); err != nil {
		return s, err
	}
	desc := strings.TrimSpace(a.Description)
	if desc == "" {
		desc = DefaultGrantDescription
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		pending := a.Amount
		if k.PendingAllocation != nil {
			sum, err := pending.AddChecked(*k.PendingAllocation)
			if err != nil {
				return k, fmt.Errorf("%w: pending allocation would exceed %s", err, core.MaxAmount)
			}
			pending = sum
		}
		k.PendingAllocation = &pending
		k.Transactions = prepend(k.Transactions, e.tx(core.TxGrant, a.Amount, "", desc, 0))
		return k, nil
	})
}

func (e *Engine) allocateMoney(s core.State, a AllocateMoney) (core.State, error) {
	if a.Save.IsNegative() || a.Spend.IsNegative() || a.Share.IsNegative() {
		return s, core.ErrInvalidAmount
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		if k.PendingAllocation == nil {
			return k, ErrNoPendingAllocation
		}
		total, err := sumMoney(a.Save, a.Spend, a.Share)
		if err != nil {
			return k, err
		}
		if total != *k.PendingAllocation {
			return k, fmt.Errorf("%w: allocated %s, pending %s", ErrAllocationMismatch, total, *k.PendingAllocation)
		}

		save, err := k.Buckets.Save.Balance.AddChecked(a.Save)
		if err != nil {
			return k, fmt.Errorf("%w: save balance would exceed %s", err, core.MaxAmount)
		}
		spend, err := k.Buckets.Spend.Balance.AddChecked(a.Spend)
		if err != nil {
			return k, fmt.Errorf("%w: spend balance would exceed %s", err, core.MaxAmount)
		}
		share, err := k.Buckets.Share.Balance.AddChecked(a.Share)
		if err != nil {
			return k, fmt.Errorf("%w: share balance would exceed %s", err, core.MaxAmount)
		}
		k.Buckets.Save.Balance = save
		k.Buckets.Spend.Balance = spend
		k.Buckets.Share.Balance = share
		k.PendingAllocation = nil

		k, leveled := refreshPet(k)

		var txs []core.Transaction
		xp := 0
		for _, part := range []struct {
			bucket core.Bucket
			label  string
			amount core.Money
		}{
			{core.BucketSave, "Save", a.Save},
			{core.BucketSpend, "Spend", a.Spend},
			{core.BucketShare, "Share", a.Share},
		} {
			if !part.amount.IsPositive() {
				continue
			}
			earned := core.XPAllocateToBucket
			if part.bucket == core.BucketSave && leveled {
				earned += core.XPPetLevelUp
			}
			xp += earned
			desc := fmt.Sprintf("Allocated %s to %s", part.amount, part.label)
			txs = append(txs, e.tx(core.TxAllocation, part.amount, part.bucket, desc, earned))
		}
		k = gainXP(k, xp)
		k.Transactions = prepend(k.Transactions, txs...)
		return k, nil
	})
}

// sumMoney adds non-negative parts, rejecting totals beyond core.MaxAmount.
func sumMoney(parts ...core.Money) (core.Money, error) {
	var total core.Money
	for _, p := range parts {
		next, err := total.AddChecked(p)
		if err != nil {
			return total, fmt.Errorf("%w: allocation exceeds %s", err, core.MaxAmount)
		}
		total = next
	}
	return total, nil
}

func (e *Engine) setInterestRate(s core.State, a SetInterestRate) (core.State, error) {
	if err := core.ValidateInterestRate(a.Rate); err != nil {
		return s, err
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		k.Buckets.Save.InterestRate = a.Rate
		return k, nil
	})
}

func (e *Engine) setBaseline(s core.State, a SetBaseline) (core.State, error) {
	if a.Baseline.IsNegative() {
		return s, core.ErrNegativeBaseline
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		k.Buckets.Save.Baseline = a.Baseline
		k, _ = refreshPet(k)
		return k, nil
	})
}

// applyInterest credits one month of interest. Zero interest leaves the kid
// untouched and is not an error.
func (e *Engine) applyInterest(s core.State, a ApplyInterest) (core.State, error) {
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		interest := core.MonthlyInterest(k.Buckets.Save.Balance, k.Buckets.Save.InterestRate)
		if !interest.IsPositive() {
			return k, nil
		}
		balance, err := k.Buckets.Save.Balance.AddChecked(interest)
		if err != nil {
			return k, fmt.Errorf("%w: save balance would exceed %s", err, core.MaxAmount)
		}
		k.Buckets.Save.Balance = balance
		k, _ = refreshPet(k)
		k = gainXP(k, core.XPEarnInterest)
		desc := "Monthly interest (" + strconv.FormatFloat(k.Buckets.Save.InterestRate, 'f', -1, 64) + "% APR)"
		k.Transactions = prepend(k.Transactions, e.tx(core.TxInterest, interest, core.BucketSave, desc, core.XPEarnInterest))
		return k, nil
	})
}

func (e *Engine) addGoal(s core.State, a AddGoal) (core.State, error) {
	if err := core.ValidateName(a.Name); err != nil {
		return s, fmt.Errorf("goal name: %w", err)
	}
	if err := a.TargetAmount.Validate(); err != nil {
		return s, err
	}
	vt := a.VisualType
	if vt == "" {
		vt = core.VisualEmoji
		if a.ImageURL != "" {
			vt = core.VisualImage
		}
	}
	if err := vt.Validate(); err != nil {
		return s, err
	}
	goal := core.SpendingGoal{
		ID:           e.newID(),
		Name:         strings.TrimSpace(a.Name),
		TargetAmount: a.TargetAmount,
		Visual:       a.Icon,
		VisualType:   vt,
		ImageURL:     a.ImageURL,
		LinkURL:      a.LinkURL,
		CreatedAt:    e.now(),
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		k.Buckets.Spend.Goals = appendTo(k.Buckets.Spend.Goals, goal)
		return k, nil
	})
}

// fundGoal tracks progress toward a goal; the spend balance is not touched.
func (e *Engine) fundGoal(s core.State, a FundGoal) (core.State, error) {
	if err := a.Amount.Validate(); err != nil {
		return s, err
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		return withGoal(k, a.GoalID, func(g core.SpendingGoal) (core.SpendingGoal, error) {
			if g.Purchased {
				return g, ErrGoalPurchased
			}
			current, err := g.CurrentAmount.AddChecked(a.Amount)
			if err != nil {
				return g, fmt.Errorf("%w: goal progress would exceed %s", err, core.MaxAmount)
			}
			g.CurrentAmount = current
			g.Completed = g.CurrentAmount.AtLeast(g.TargetAmount)
			return g, nil
		})
	})
}

func (e *Engine) purchaseGoal(s core.State, a PurchaseGoal) (core.State, error) {
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		goal, ok := k.Goal(a.GoalID)
		if !ok {
			return k, fmt.Errorf("%w: %s", ErrGoalNotFound, a.GoalID)
		}
		if goal.Purchased {
			return k, ErrGoalPurchased
		}
		if k.Buckets.Spend.Balance.LessThan(goal.TargetAmount) {
			return k, fmt.Errorf("%w: spend balance %s, goal %s", ErrInsufficientFunds, k.Buckets.Spend.Balance, goal.TargetAmount)
		}
		now := e.now()
		k, err := withGoal(k, a.GoalID, func(g core.SpendingGoal) (core.SpendingGoal, error) {
			g.Purchased = true
			g.Completed = true
			g.PurchasedAt = &now
			return g, nil
		})
		if err != nil {
			return k, err
		}
		k.Buckets.Spend.Balance = k.Buckets.Spend.Balance.Sub(goal.TargetAmount)
		k = gainXP(k, core.XPCompleteGoal)
		k.Transactions = prepend(k.Transactions,
			e.tx(core.TxGoalPurchase, goal.TargetAmount.Neg(), core.BucketSpend, "Purchased: "+goal.Name, core.XPCompleteGoal))
		return k, nil
	})
}

func (e *Engine) addCustomCause(s core.State, a AddCustomCause) (core.State, error) {
	c := a.Cause
	if err := core.ValidateName(c.Name); err != nil {
		return s, fmt.Errorf("cause name: %w", err)
	}
	if c.ID == "" {
		c.ID = e.newID()
	}
	c.IsCustom = true
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		for _, existing := range k.Causes() {
			if existing.ID == c.ID {
				return k, fmt.Errorf("%w: %s", ErrDuplicateCause, c.ID)
			}
		}
		k.Buckets.Share.CustomCauses = appendTo(k.Buckets.Share.CustomCauses, c)
		return k, nil
	})
}

// donate debits the share bucket and awards every badge whose threshold the
// new cumulative total crosses.
func (e *Engine) donate(s core.State, a Donate) (core.State, error) {
	if err := a.Amount.Validate(); err != nil {
		return s, err
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		share := k.Buckets.Share
		if share.Balance.LessThan(a.Amount) {
			return k, fmt.Errorf("%w: share balance %s, donation %s", ErrInsufficientFunds, share.Balance, a.Amount)
		}
		oldTotal := share.TotalGiven
		given, err := share.TotalGiven.AddChecked(a.Amount)
		if err != nil {
			return k, fmt.Errorf("%w: total given would exceed %s", err, core.MaxAmount)
		}
		share.Balance = share.Balance.Sub(a.Amount)
		share.TotalGiven = given
		k.Buckets.Share = share

		now := e.now()
		var earned []core.Badge
		for _, b := range core.BadgesCrossed(oldTotal, share.TotalGiven) {
			if k.HasBadge(b.Type) {
				continue
			}
			earned = append(earned, core.Badge{Type: b.Type, Name: b.Name, Threshold: b.Threshold, EarnedAt: now})
		}
		if len(earned) > 0 {
			k.Badges = appendTo(k.Badges, earned...)
		}

		k = gainXP(k, core.XPDonation)
		cause := strings.TrimSpace(a.CauseName)
		if cause == "" {
			cause = "a good cause"
		}
		k.Transactions = prepend(k.Transactions,
			e.tx(core.TxDonation, a.Amount.Neg(), core.BucketShare, "Donated to "+cause, core.XPDonation))
		return k, nil
	})
}
