package engine

import (
	"fmt"
	"strings"

	"wealthwarriors/internal/core"
)

func (e *Engine) setPet(s core.State, a SetPet) (core.State, error) {
	if err := a.PetType.Validate(); err != nil {
		return s, err
	}
	if err := core.ValidateName(a.PetName); err != nil {
		return s, fmt.Errorf("pet name: %w", err)
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		if k.CurrentPet != nil && !a.Replace {
			return k, ErrPetExists
		}
		k.CurrentPet = &core.Pet{
			ID:        e.newID(),
			Type:      a.PetType,
			Name:      strings.TrimSpace(a.PetName),
			Level:     core.PetLevelForBalance(k.Buckets.Save.Balance, k.Buckets.Save.Baseline),
			CreatedAt: e.now(),
		}
		return k, nil
	})
}

// hatchNewPet retires an Elder pet into the stable and starts a new egg.
func (e *Engine) hatchNewPet(s core.State, a HatchNewPet) (core.State, error) {
	if err := a.PetType.Validate(); err != nil {
		return s, err
	}
	if err := core.ValidateName(a.PetName); err != nil {
		return s, fmt.Errorf("pet name: %w", err)
	}
	return withKid(s, a.KidID, func(k core.Kid) (core.Kid, error) {
		old := k.CurrentPet
		if old == nil {
			return k, ErrNoPet
		}
		if old.Level != core.PetLevelElder {
			return k, fmt.Errorf("%w: level %d", ErrPetNotElder, old.Level)
		}
		now := e.now()
		k.PetStable = appendTo(k.PetStable, core.StablePet{
			ID:              old.ID,
			Type:            old.Type,
			Name:            old.Name,
			Level:           core.PetLevelElder,
			RaisedToElderAt: now,
		})
		k.CurrentPet = &core.Pet{
			ID:        e.newID(),
			Type:      a.PetType,
			Name:      strings.TrimSpace(a.PetName),
			Level:     core.PetLevelEgg,
			CreatedAt: now,
		}
		return k, nil
	})
}
