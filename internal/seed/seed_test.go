package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/engine"
	"wealthwarriors/internal/services"
	"wealthwarriors/internal/storage/memory"
)

const fixture = `
[family]
name = "Greyjoy"
parent_pin = "4321"

[[kids]]
name = "Theon"
age = 10
avatar = "🐙"
weekly_allowance = "7.50"
interest_rate = 5.0
pet = { type = "eagle", name = "Kraken" }

  [[kids.goals]]
  name = "Boat"
  target = "40"
  icon = "⛵"

  [[kids.causes]]
  id = "iron-islands"
  name = "Iron Islands Fund"

  [[kids.grants]]
  amount = "20.00"
  description = "Birthday"
  save = "10"
  spend = "5"
  share = "5"

[[kids]]
name = "Asha"
age = 12

  [[kids.grants]]
  amount = "3"
`

func TestParseAndApply(t *testing.T) {
	f, err := Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(f.Kids) != 2 || f.Kids[0].Pet == nil || f.Kids[0].Pet.Name != "Kraken" {
		t.Fatalf("fixture = %+v", f)
	}

	store := memory.NewStore()
	svc := services.NewFamilyService(store, services.WithPinCost(bcrypt.MinCost))
	st, err := Apply(context.Background(), svc, f)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if st.Family.Name != "Greyjoy" || len(st.Family.Kids) != 2 {
		t.Fatalf("family = %+v", st.Family)
	}
	if !svc.VerifyParentPin("4321") {
		t.Error("parent pin not stored")
	}

	theon := st.Family.Kids[0]
	if theon.Buckets.Save.Balance != core.Dollars(10) || theon.Buckets.Spend.Balance != core.Dollars(5) || theon.Buckets.Share.Balance != core.Dollars(5) {
		t.Errorf("buckets = %+v", theon.Buckets)
	}
	if theon.PendingAllocation != nil {
		t.Errorf("pending = %v, want nil", theon.PendingAllocation)
	}
	if st.Family.Settings.WeeklyAllowances[theon.ID] != core.Cents(750) {
		t.Errorf("allowance = %v", st.Family.Settings.WeeklyAllowances)
	}
	if theon.CurrentPet == nil || theon.CurrentPet.Type != core.PetEagle {
		t.Errorf("pet = %+v", theon.CurrentPet)
	}
	if len(theon.Buckets.Spend.Goals) != 1 || len(theon.Buckets.Share.CustomCauses) != 1 {
		t.Errorf("goals/causes = %d/%d", len(theon.Buckets.Spend.Goals), len(theon.Buckets.Share.CustomCauses))
	}

	asha := st.Family.Kids[1]
	if asha.PendingAllocation == nil || *asha.PendingAllocation != core.Dollars(3) {
		t.Errorf("asha pending = %v", asha.PendingAllocation)
	}

	saved, _ := store.LoadFamily(context.Background())
	if saved == nil || len(saved.Kids) != 2 {
		t.Error("seeded family was not persisted")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"missing name", "[family]\n", "family.name is required"},
		{"unknown key", "[family]\nname = \"A\"\nmotto = \"We do not sow\"\n", "motto"},
		{"bad toml", "[family\n", "parse fixture"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyStopsOnRejection(t *testing.T) {
	f, err := Parse(strings.NewReader(`
[family]
name = "Bolton"

[[kids]]
name = "Ramsay"
age = 14
  [[kids.grants]]
  amount = "10"
  save = "5"
  spend = "1"
`))
	if err != nil {
		t.Fatal(err)
	}

	svc := services.NewFamilyService(memory.NewStore())
	_, err = Apply(context.Background(), svc, f)
	if !errors.Is(err, engine.ErrAllocationMismatch) {
		t.Errorf("Apply() error = %v, want allocation mismatch", err)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    core.Money
		wantErr bool
	}{
		{"", core.Money{}, false},
		{"0", core.Money{}, false},
		{"0.00", core.Money{}, false},
		{"12.5", core.Cents(1250), false},
		{"$3", core.Dollars(3), false},
		{"lots", core.Money{}, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseAmount(%q) = %v, %v", tt.in, got, err)
		}
	}
}
