package engine

import (
	"fmt"
	"strings"

	"wealthwarriors/internal/core"
)

func (e *Engine) createFamily(s core.State, a CreateFamily) (core.State, error) {
	if s.Family != nil {
		return s, ErrFamilyExists
	}
	if err := core.ValidateName(a.Name); err != nil {
		return s, fmt.Errorf("family name: %w", err)
	}
	s.Family = &core.Family{
		ID:   e.newID(),
		Name: strings.TrimSpace(a.Name),
		Kids: []core.Kid{},
		Settings: core.FamilySettings{
			WeeklyAllowances: map[string]core.Money{},
		},
	}
	return s, nil
}

func (e *Engine) addKid(s core.State, a AddKid) (core.State, error) {
	if err := core.ValidateName(a.Name); err != nil {
		return s, fmt.Errorf("kid name: %w", err)
	}
	if err := core.ValidateAge(a.Age); err != nil {
		return s, err
	}
	kid := core.Kid{
		ID:          e.newID(),
		Name:        strings.TrimSpace(a.Name),
		Age:         a.Age,
		Avatar:      a.Avatar,
		WarriorRank: core.RankForXP(0),
		PetStable:   []core.StablePet{},
		Buckets: core.Buckets{
			Save:  core.SaveBucket{InterestRate: core.DefaultInterestRate},
			Spend: core.SpendBucket{Goals: []core.SpendingGoal{}},
			Share: core.ShareBucket{CustomCauses: []core.Cause{}},
		},
		Badges:       []core.Badge{},
		Transactions: []core.Transaction{},
	}
	return withFamily(s, func(f core.Family) (core.Family, error) {
		f.Kids = appendTo(f.Kids, kid)
		return f, nil
	})
}

func (e *Engine) updateKid(s core.State, a UpdateKid) (core.State, error) {
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		if a.Name != nil {
			if err := core.ValidateName(*a.Name); err != nil {
				return k, fmt.Errorf("kid name: %w", err)
			}
			k.Name = strings.TrimSpace(*a.Name)
		}
		if a.Age != nil {
			if err := core.ValidateAge(*a.Age); err != nil {
				return k, err
			}
			k.Age = *a.Age
		}
		if a.Avatar != nil {
			k.Avatar = *a.Avatar
		}
		return k, nil
	})
}

func (e *Engine) setParentPin(s core.State, a SetParentPin) (core.State, error) {
	if a.Pin == "" {
		return s, ErrEmptyPin
	}
	return withFamily(s, func(f core.Family) (core.Family, error) {
		return withSettings(f, func(st *core.FamilySettings) { st.ParentPin = a.Pin }), nil
	})
}

func (e *Engine) setWeeklyAllowance(s core.State, a SetWeeklyAllowance) (core.State, error) {
	if a.Amount.IsNegative() {
		return s, core.ErrInvalidAmount
	}
	if _, ok := s.Family.FindKid(a.KidID); !ok {
		if s.Family == nil {
			return s, ErrNoFamily
		}
		return s, fmt.Errorf("%w: %s", ErrKidNotFound, a.KidID)
	}
	return withFamily(s, func(f core.Family) (core.Family, error) {
		return withSettings(f, func(st *core.FamilySettings) {
			if st.WeeklyAllowances == nil {
				st.WeeklyAllowances = map[string]core.Money{}
			}
			st.WeeklyAllowances[a.KidID] = a.Amount
		}), nil
	})
}

func (e *Engine) addXP(s core.State, a AddXP) (core.State, error) {
	if a.Amount <= 0 {
		return s, ErrInvalidXP
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		return gainXP(k, a.Amount), nil
	})
}

func (e *Engine) switchMode(s core.State, a SwitchMode) (core.State, error) {
	if err := a.Mode.Validate(); err != nil {
		return s, err
	}
	s.CurrentMode = a.Mode
	s.SelectedKidID = nil
	return s, nil
}

func (e *Engine) selectKid(s core.State, a SelectKid) (core.State, error) {
	if a.KidID == nil {
		s.SelectedKidID = nil
		return s, nil
	}
	id := *a.KidID
	s.SelectedKidID = &id
	return s, nil
}

func (e *Engine) loadState(s core.State, a LoadState) (core.State, error) {
	if err := a.State.Validate(); err != nil {
		return s, fmt.Errorf("load state: %w", err)
	}
	return a.State, nil
}
