package engine

import (
	"fmt"
	"maps"
	"slices"

	"wealthwarriors/internal/core"
)

// Copy-on-write helpers. Each returns fresh values for the path it touches and
// shares everything else with its input, so handlers must never write through
// a slice, map or pointer taken from the input state.

func withFamily(s core.State, fn func(core.Family) (core.Family, error)) (core.State, error) {
	if s.Family == nil {
		return s, ErrNoFamily
	}
	f, err := fn(*s.Family)
	if err != nil {
		return s, err
	}
	s.Family = &f
	return s, nil
}

func withKid(s core.State, kidID string, fn func(core.Kid) (core.Kid, error)) (core.State, error) {
	return withFamily(s, func(f core.Family) (core.Family, error) {
		idx := slices.IndexFunc(f.Kids, func(k core.Kid) bool { return k.ID == kidID })
		if idx < 0 {
			return f, fmt.Errorf("%w: %s", ErrKidNotFound, kidID)
		}
		k, err := fn(f.Kids[idx])
		if err != nil {
			return f, err
		}
		f.Kids = slices.Clone(f.Kids)
		f.Kids[idx] = k
		return f, nil
	})
}

func withSettings(f core.Family, fn func(*core.FamilySettings)) core.Family {
	st := f.Settings
	st.WeeklyAllowances = maps.Clone(st.WeeklyAllowances)
	fn(&st)
	f.Settings = st
	return f
}

func withGoal(k core.Kid, goalID string, fn func(core.SpendingGoal) (core.SpendingGoal, error)) (core.Kid, error) {
	goals := k.Buckets.Spend.Goals
	idx := slices.IndexFunc(goals, func(g core.SpendingGoal) bool { return g.ID == goalID })
	if idx < 0 {
		return k, fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	g, err := fn(goals[idx])
	if err != nil {
		return k, err
	}
	goals = slices.Clone(goals)
	goals[idx] = g
	k.Buckets.Spend.Goals = goals
	return k, nil
}

// prepend returns a new slice with items in front of list.
func prepend[T any](list []T, items ...T) []T {
	out := make([]T, 0, len(items)+len(list))
	out = append(out, items...)
	return append(out, list...)
}

func appendTo[T any](list []T, items ...T) []T {
	out := make([]T, 0, len(list)+len(items))
	out = append(out, list...)
	return append(out, items...)
}

func gainXP(k core.Kid, xp int) core.Kid {
	k.TotalXP += xp
	k.WarriorRank = core.RankForXP(k.TotalXP)
	return k
}

// refreshPet recomputes the current pet's level from the save bucket.
// Elder is kept until the pet is retired. It reports whether the level rose.
func refreshPet(k core.Kid) (core.Kid, bool) {
	if k.CurrentPet == nil || k.CurrentPet.Level == core.PetLevelElder {
		return k, false
	}
	level := core.PetLevelForBalance(k.Buckets.Save.Balance, k.Buckets.Save.Baseline)
	if level == k.CurrentPet.Level {
		return k, false
	}
	p := *k.CurrentPet
	rose := level > p.Level
	p.Level = level
	k.CurrentPet = &p
	return k, rose
}

func (e *Engine) tx(t core.TransactionType, amount core.Money, bucket core.Bucket, desc string, xp int) core.Transaction {
	return core.Transaction{
		ID:          e.newID(),
		Type:        t,
		Amount:      amount,
		Bucket:      bucket,
		Description: desc,
		XPEarned:    xp,
		Timestamp:   e.now(),
	}
}
