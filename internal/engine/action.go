package engine

import "wealthwarriors/internal/core"

// Kind discriminates actions on the wire and in logs.
type Kind string

const (
	KindCreateFamily       Kind = "create_family"
	KindAddKid             Kind = "add_kid"
	KindUpdateKid          Kind = "update_kid"
	KindGrantMoney         Kind = "grant_money"
	KindAllocateMoney      Kind = "allocate_money"
	KindSetInterestRate    Kind = "set_interest_rate"
	KindSetBaseline        Kind = "set_baseline"
	KindApplyInterest      Kind = "apply_interest"
	KindAddGoal            Kind = "add_goal"
	KindFundGoal           Kind = "fund_goal"
	KindPurchaseGoal       Kind = "purchase_goal"
	KindAddCustomCause     Kind = "add_custom_cause"
	KindDonate             Kind = "donate"
	KindSetPet             Kind = "set_pet"
	KindHatchNewPet        Kind = "hatch_new_pet"
	KindSetParentPin       Kind = "set_parent_pin"
	KindSetWeeklyAllowance Kind = "set_weekly_allowance"
	KindAddXP              Kind = "add_xp"
	KindSwitchMode         Kind = "switch_mode"
	KindSelectKid          Kind = "select_kid"
	KindLoadState          Kind = "load_state"
	KindReset              Kind = "reset"
)

// Kinds lists every action kind the engine handles.
func Kinds() []Kind {
	return []Kind{
		KindCreateFamily, KindAddKid, KindUpdateKid, KindGrantMoney, KindAllocateMoney,
		KindSetInterestRate, KindSetBaseline, KindApplyInterest, KindAddGoal, KindFundGoal,
		KindPurchaseGoal, KindAddCustomCause, KindDonate, KindSetPet, KindHatchNewPet,
		KindSetParentPin, KindSetWeeklyAllowance, KindAddXP, KindSwitchMode, KindSelectKid,
		KindLoadState, KindReset,
	}
}

// Action is one variant of the closed set of transitions below.
type Action interface {
	Kind() Kind
}

type (
	CreateFamily struct {
		Name string `json:"name"`
	}

	AddKid struct {
		Name   string `json:"name"`
		Age    int    `json:"age"`
		Avatar string `json:"avatar"`
	}

	// UpdateKid merges the non-nil fields into the kid.
	UpdateKid struct {
		KidID  string  `json:"kidId"`
		Name   *string `json:"name,omitempty"`
		Age    *int    `json:"age,omitempty"`
		Avatar *string `json:"avatar,omitempty"`
	}

	GrantMoney struct {
		KidID       string     `json:"kidId"`
		Amount      core.Money `json:"amount"`
		Description string     `json:"description"`
	}

	AllocateMoney struct {
		KidID string     `json:"kidId"`
		Save  core.Money `json:"save"`
		Spend core.Money `json:"spend"`
		Share core.Money `json:"share"`
	}

	SetInterestRate struct {
		KidID string  `json:"kidId"`
		Rate  float64 `json:"rate"`
	}

	SetBaseline struct {
		KidID    string     `json:"kidId"`
		Baseline core.Money `json:"baseline"`
	}

	ApplyInterest struct {
		KidID string `json:"kidId"`
	}

	AddGoal struct {
		KidID        string          `json:"kidId"`
		Name         string          `json:"name"`
		TargetAmount core.Money      `json:"targetAmount"`
		Icon         string          `json:"icon"`
		VisualType   core.VisualType `json:"visualType,omitempty"`
		ImageURL     string          `json:"imageUrl,omitempty"`
		LinkURL      string          `json:"linkUrl,omitempty"`
	}

	FundGoal struct {
		KidID  string     `json:"kidId"`
		GoalID string     `json:"goalId"`
		Amount core.Money `json:"amount"`
	}

	PurchaseGoal struct {
		KidID  string `json:"kidId"`
		GoalID string `json:"goalId"`
	}

	AddCustomCause struct {
		KidID string     `json:"kidId"`
		Cause core.Cause `json:"cause"`
	}

	Donate struct {
		KidID     string     `json:"kidId"`
		Amount    core.Money `json:"amount"`
		CauseName string     `json:"causeName"`
	}

	// SetPet adopts a pet. Replace must be set to swap out an existing one.
	SetPet struct {
		KidID   string       `json:"kidId"`
		PetType core.PetType `json:"petType"`
		PetName string       `json:"petName"`
		Replace bool         `json:"replace,omitempty"`
	}

	HatchNewPet struct {
		KidID   string       `json:"kidId"`
		PetType core.PetType `json:"petType"`
		PetName string       `json:"petName"`
	}

	// SetParentPin stores Pin as given; hashing is the caller's job.
	SetParentPin struct {
		Pin string `json:"pin"`
	}

	SetWeeklyAllowance struct {
		KidID  string     `json:"kidId"`
		Amount core.Money `json:"amount"`
	}

	AddXP struct {
		KidID  string `json:"kidId"`
		Amount int    `json:"amount"`
	}

	SwitchMode struct {
		Mode core.Mode `json:"mode"`
	}

	SelectKid struct {
		KidID *string `json:"kidId"`
	}

	LoadState struct {
		State core.State `json:"state"`
	}

	Reset struct{}
)

func (CreateFamily) Kind() Kind       { return KindCreateFamily }
func (AddKid) Kind() Kind             { return KindAddKid }
func (UpdateKid) Kind() Kind          { return KindUpdateKid }
func (GrantMoney) Kind() Kind         { return KindGrantMoney }
func (AllocateMoney) Kind() Kind      { return KindAllocateMoney }
func (SetInterestRate) Kind() Kind    { return KindSetInterestRate }
func (SetBaseline) Kind() Kind        { return KindSetBaseline }
func (ApplyInterest) Kind() Kind      { return KindApplyInterest }
func (AddGoal) Kind() Kind            { return KindAddGoal }
func (FundGoal) Kind() Kind           { return KindFundGoal }
func (PurchaseGoal) Kind() Kind       { return KindPurchaseGoal }
func (AddCustomCause) Kind() Kind     { return KindAddCustomCause }
func (Donate) Kind() Kind             { return KindDonate }
func (SetPet) Kind() Kind             { return KindSetPet }
func (HatchNewPet) Kind() Kind        { return KindHatchNewPet }
func (SetParentPin) Kind() Kind       { return KindSetParentPin }
func (SetWeeklyAllowance) Kind() Kind { return KindSetWeeklyAllowance }
func (AddXP) Kind() Kind              { return KindAddXP }
func (SwitchMode) Kind() Kind         { return KindSwitchMode }
func (SelectKid) Kind() Kind          { return KindSelectKid }
func (LoadState) Kind() Kind          { return KindLoadState }
func (Reset) Kind() Kind              { return KindReset }

// KidScoped is implemented by actions that target a single kid.
type KidScoped interface {
	Action
	TargetKid() string
}

func (a UpdateKid) TargetKid() string          { return a.KidID }
func (a GrantMoney) TargetKid() string         { return a.KidID }
func (a AllocateMoney) TargetKid() string      { return a.KidID }
func (a SetInterestRate) TargetKid() string    { return a.KidID }
func (a SetBaseline) TargetKid() string        { return a.KidID }
func (a ApplyInterest) TargetKid() string      { return a.KidID }
func (a AddGoal) TargetKid() string            { return a.KidID }
func (a FundGoal) TargetKid() string           { return a.KidID }
func (a PurchaseGoal) TargetKid() string       { return a.KidID }
func (a AddCustomCause) TargetKid() string     { return a.KidID }
func (a Donate) TargetKid() string             { return a.KidID }
func (a SetPet) TargetKid() string             { return a.KidID }
func (a HatchNewPet) TargetKid() string        { return a.KidID }
func (a SetWeeklyAllowance) TargetKid() string { return a.KidID }
func (a AddXP) TargetKid() string              { return a.KidID }
