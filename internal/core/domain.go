package core

import (
	"errors"
	"strings"
	"time"
)

const (
	ModeParent Mode = "parent"
	ModeKid    Mode = "kid"
)

const (
	BucketSave  Bucket = "save"
	BucketSpend Bucket = "spend"
	BucketShare Bucket = "share"
)

const (
	TxAllocation   TransactionType = "allocation"
	TxInterest     TransactionType = "interest"
	TxGoalPurchase TransactionType = "goal_purchase"
	TxDonation     TransactionType = "donation"
	TxGrant        TransactionType = "grant"
)

const (
	VisualEmoji VisualType = "emoji"
	VisualImage VisualType = "image"
	VisualGIF   VisualType = "gif"
)

type (
	Mode            string
	Bucket          string
	TransactionType string
	VisualType      string

	// State is the whole application snapshot threaded through the engine.
	State struct {
		Family        *Family `json:"family"`
		CurrentMode   Mode    `json:"currentMode"`
		SelectedKidID *string `json:"selectedKidId"`
	}

	Family struct {
		ID       string         `json:"id"`
		Name     string         `json:"name"`
		Kids     []Kid          `json:"kids"`
		Settings FamilySettings `json:"settings"`
	}

	FamilySettings struct {
		WeeklyAllowances map[string]Money `json:"weeklyAllowances"`
		ParentPin        string           `json:"parentPin,omitempty"`
	}

	Kid struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Age    int    `json:"age"`
		Avatar string `json:"avatar"`

		TotalXP     int `json:"totalXP"`
		WarriorRank int `json:"warriorRank"` // cached RankForXP(TotalXP)

		CurrentPet *Pet        `json:"currentPet"`
		PetStable  []StablePet `json:"petStable"`

		Buckets           Buckets       `json:"buckets"`
		PendingAllocation *Money        `json:"pendingAllocation"`
		Badges            []Badge       `json:"badges"`
		Transactions      []Transaction `json:"transactions"` // newest first
	}

	Buckets struct {
		Save  SaveBucket  `json:"save"`
		Spend SpendBucket `json:"spend"`
		Share ShareBucket `json:"share"`
	}

	SaveBucket struct {
		Balance      Money   `json:"balance"`
		InterestRate float64 `json:"interestRate"` // percent APR
		Baseline     Money   `json:"baseline"`
	}

	SpendBucket struct {
		Balance Money          `json:"balance"`
		Goals   []SpendingGoal `json:"goals"`
	}

	ShareBucket struct {
		Balance      Money   `json:"balance"`
		TotalGiven   Money   `json:"totalGiven"`
		CustomCauses []Cause `json:"customCauses"`
	}

	Pet struct {
		ID        string    `json:"id"`
		Type      PetType   `json:"type"`
		Name      string    `json:"name"`
		Level     int       `json:"level"`
		CreatedAt time.Time `json:"createdAt"`
	}

	StablePet struct {
		ID              string    `json:"id"`
		Type            PetType   `json:"type"`
		Name            string    `json:"name"`
		Level           int       `json:"level"`
		RaisedToElderAt time.Time `json:"raisedToElderAt"`
	}

	SpendingGoal struct {
		ID            string     `json:"id"`
		Name          string     `json:"name"`
		TargetAmount  Money      `json:"targetAmount"`
		CurrentAmount Money      `json:"currentAmount"`
		Visual        string     `json:"visual,omitempty"`
		VisualType    VisualType `json:"visualType"`
		ImageURL      string     `json:"imageUrl,omitempty"`
		LinkURL       string     `json:"linkUrl,omitempty"`
		Completed     bool       `json:"completed"`
		Purchased     bool       `json:"purchased"`
		PurchasedAt   *time.Time `json:"purchasedAt,omitempty"`
		CreatedAt     time.Time  `json:"createdAt"`
	}

	Cause struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Emoji       string `json:"emoji,omitempty"`
		ImageURL    string `json:"imageUrl,omitempty"`
		IsCustom    bool   `json:"isCustom,omitempty"`
	}

	Badge struct {
		Type      string    `json:"type"`
		Name      string    `json:"name"`
		Threshold Money     `json:"threshold"`
		EarnedAt  time.Time `json:"earnedAt"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"` // positive inflow, negative outflow
		Bucket      Bucket          `json:"bucket,omitempty"`
		Description string          `json:"description"`
		XPEarned    int             `json:"xpEarned,omitempty"`
		Timestamp   time.Time       `json:"timestamp"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRate      = errors.New("invalid interest rate")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidAge       = errors.New("invalid age")
	ErrInvalidPetType   = errors.New("invalid pet type")
	ErrInvalidMode      = errors.New("invalid mode")
	ErrNameTooLong      = errors.New("name too long (max 100 characters)")
	ErrInvalidVisual    = errors.New("invalid visual type")
	ErrNegativeBaseline = errors.New("baseline cannot be negative")
)

// InitialState is the state before onboarding.
func InitialState() State {
	return State{CurrentMode: ModeParent}
}

func (m Mode) Validate() error {
	switch m {
	case ModeParent, ModeKid:
		return nil
	default:
		return ErrInvalidMode
	}
}

func (s State) Validate() error {
	if err := s.CurrentMode.Validate(); err != nil {
		return err
	}
	if s.Family == nil {
		return nil
	}
	for _, k := range s.Family.Kids {
		if err := k.Validate(); err != nil {
			return errors.New("kid " + k.ID + ": " + err.Error())
		}
	}
	return nil
}

// FindKid returns the kid with the given id.
func (f *Family) FindKid(id string) (Kid, bool) {
	if f == nil {
		return Kid{}, false
	}
	for _, k := range f.Kids {
		if k.ID == id {
			return k, true
		}
	}
	return Kid{}, false
}

// SelectedKid returns the currently selected kid, if any.
func (s State) SelectedKid() (Kid, bool) {
	if s.SelectedKidID == nil {
		return Kid{}, false
	}
	return s.Family.FindKid(*s.SelectedKidID)
}

// Validate checks the structural invariants a persisted kid must satisfy.
func (k Kid) Validate() error {
	if err := ValidateName(k.Name); err != nil {
		return err
	}
	if k.TotalXP < 0 {
		return errors.New("negative XP")
	}
	if k.WarriorRank != RankForXP(k.TotalXP) {
		return errors.New("warrior rank out of sync with XP")
	}
	b := k.Buckets
	if b.Save.Balance.IsNegative() || b.Spend.Balance.IsNegative() || b.Share.Balance.IsNegative() {
		return errors.New("negative bucket balance")
	}
	if b.Share.TotalGiven.IsNegative() {
		return errors.New("negative total given")
	}
	if k.PendingAllocation != nil && !k.PendingAllocation.IsPositive() {
		return errors.New("pending allocation must be positive")
	}
	return nil
}

// Goal returns the spending goal with the given id.
func (k Kid) Goal(id string) (SpendingGoal, bool) {
	for _, g := range k.Buckets.Spend.Goals {
		if g.ID == id {
			return g, true
		}
	}
	return SpendingGoal{}, false
}

// HasBadge reports whether the kid already holds a badge of this type.
func (k Kid) HasBadge(badgeType string) bool {
	for _, b := range k.Badges {
		if b.Type == badgeType {
			return true
		}
	}
	return false
}

// EffectiveSavings is the part of the save balance that counts toward pet growth.
func (k Kid) EffectiveSavings() Money {
	eff := k.Buckets.Save.Balance.Sub(k.Buckets.Save.Baseline)
	if eff.IsNegative() {
		return Money{}
	}
	return eff
}

// LastTransaction returns the newest transaction of the given type.
func (k Kid) LastTransaction(t TransactionType) (Transaction, bool) {
	for _, tx := range k.Transactions {
		if tx.Type == t {
			return tx, true
		}
	}
	return Transaction{}, false
}

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

func ValidateAge(age int) error {
	if age < 1 || age > 25 {
		return ErrInvalidAge
	}
	return nil
}

func ValidateInterestRate(rate float64) error {
	if rate < MinInterestRate || rate > MaxInterestRate {
		return ErrInvalidRate
	}
	return nil
}

func (v VisualType) Validate() error {
	switch v {
	case VisualEmoji, VisualImage, VisualGIF:
		return nil
	default:
		return ErrInvalidVisual
	}
}
