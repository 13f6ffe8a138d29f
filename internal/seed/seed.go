// Package seed loads a family fixture from TOML and replays it as actions.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/engine"
)

// Dispatcher applies one action and returns the resulting state.
type Dispatcher interface {
	Dispatch(ctx context.Context, a engine.Action) (core.State, error)
}

// Fixture is the TOML document. Amounts are decimal strings such as "12.50".
type Fixture struct {
	Family struct {
		Name      string `toml:"name"`
		ParentPin string `toml:"parent_pin"`
	} `toml:"family"`
	Kids []Kid `toml:"kids"`
}

type Kid struct {
	Name            string  `toml:"name"`
	Age             int     `toml:"age"`
	Avatar          string  `toml:"avatar"`
	WeeklyAllowance string  `toml:"weekly_allowance"`
	InterestRate    float64 `toml:"interest_rate"`
	Baseline        string  `toml:"baseline"`
	XP              int     `toml:"xp"`

	Pet *struct {
		Type string `toml:"type"`
		Name string `toml:"name"`
	} `toml:"pet"`

	Goals []struct {
		Name   string `toml:"name"`
		Target string `toml:"target"`
		Icon   string `toml:"icon"`
	} `toml:"goals"`

	Causes []struct {
		ID          string `toml:"id"`
		Name        string `toml:"name"`
		Description string `toml:"description"`
		Emoji       string `toml:"emoji"`
	} `toml:"causes"`

	Grants []Grant `toml:"grants"`
}

// Grant adds money and, when any split is given, allocates it at once.
type Grant struct {
	Amount      string `toml:"amount"`
	Description string `toml:"description"`
	Save        string `toml:"save"`
	Spend       string `toml:"spend"`
	Share       string `toml:"share"`
}

// Parse decodes a fixture and rejects unknown keys.
func Parse(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("parse fixture: %s", strict.String())
		}
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if strings.TrimSpace(f.Family.Name) == "" {
		return nil, errors.New("parse fixture: family.name is required")
	}
	return &f, nil
}

// Apply creates the family and every kid through d. It stops at the first
// rejected action.
func Apply(ctx context.Context, d Dispatcher, f *Fixture) (core.State, error) {
	st, err := d.Dispatch(ctx, engine.CreateFamily{Name: f.Family.Name})
	if err != nil {
		return st, fmt.Errorf("create family: %w", err)
	}
	if f.Family.ParentPin != "" {
		if st, err = d.Dispatch(ctx, engine.SetParentPin{Pin: f.Family.ParentPin}); err != nil {
			return st, fmt.Errorf("set parent pin: %w", err)
		}
	}

	for i, k := range f.Kids {
		st, err = d.Dispatch(ctx, engine.AddKid{Name: k.Name, Age: k.Age, Avatar: k.Avatar})
		if err != nil {
			return st, fmt.Errorf("kid %d (%s): %w", i, k.Name, err)
		}
		kidID := st.Family.Kids[len(st.Family.Kids)-1].ID

		actions, err := kidActions(kidID, k)
		if err != nil {
			return st, fmt.Errorf("kid %d (%s): %w", i, k.Name, err)
		}
		for _, a := range actions {
			if st, err = d.Dispatch(ctx, a); err != nil {
				return st, fmt.Errorf("kid %d (%s): %s: %w", i, k.Name, a.Kind(), err)
			}
		}
		slog.InfoContext(ctx, "Seeded kid", "kid_id", kidID, "name", k.Name, "actions", len(actions)+1)
	}
	return st, nil
}

func kidActions(kidID string, k Kid) ([]engine.Action, error) {
	var out []engine.Action
	var err error
	amount := func(field, s string) core.Money {
		if err != nil {
			return core.Money{}
		}
		var m core.Money
		m, err = parseAmount(s)
		if err != nil {
			err = fmt.Errorf("%s: %w", field, err)
		}
		return m
	}

	if k.WeeklyAllowance != "" {
		out = append(out, engine.SetWeeklyAllowance{KidID: kidID, Amount: amount("weekly_allowance", k.WeeklyAllowance)})
	}
	if k.InterestRate != 0 {
		out = append(out, engine.SetInterestRate{KidID: kidID, Rate: k.InterestRate})
	}
	if k.Baseline != "" {
		out = append(out, engine.SetBaseline{KidID: kidID, Baseline: amount("baseline", k.Baseline)})
	}
	if k.Pet != nil {
		out = append(out, engine.SetPet{KidID: kidID, PetType: core.PetType(k.Pet.Type), PetName: k.Pet.Name})
	}
	for _, g := range k.Goals {
		out = append(out, engine.AddGoal{KidID: kidID, Name: g.Name, TargetAmount: amount("goal target", g.Target), Icon: g.Icon})
	}
	for _, c := range k.Causes {
		out = append(out, engine.AddCustomCause{KidID: kidID, Cause: core.Cause{
			ID: c.ID, Name: c.Name, Description: c.Description, Emoji: c.Emoji,
		}})
	}
	for _, g := range k.Grants {
		out = append(out, engine.GrantMoney{KidID: kidID, Amount: amount("grant amount", g.Amount), Description: g.Description})
		if g.Save != "" || g.Spend != "" || g.Share != "" {
			out = append(out, engine.AllocateMoney{
				KidID: kidID,
				Save:  amount("save", g.Save),
				Spend: amount("spend", g.Spend),
				Share: amount("share", g.Share),
			})
		}
	}
	if k.XP > 0 {
		out = append(out, engine.AddXP{KidID: kidID, Amount: k.XP})
	}
	return out, err
}

// parseAmount accepts an empty string or any zero spelling as zero.
func parseAmount(s string) (core.Money, error) {
	if strings.Trim(s, " $0.,") == "" {
		return core.Money{}, nil
	}
	return core.ParseMoney(s)
}
