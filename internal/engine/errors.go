package engine

import "errors"

var (
	ErrUnknownAction       = errors.New("unknown action")
	ErrFamilyExists        = errors.New("family already exists")
	ErrNoFamily            = errors.New("no family")
	ErrKidNotFound         = errors.New("kid not found")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrGoalPurchased       = errors.New("goal already purchased")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNoPendingAllocation = errors.New("no pending allocation")
	ErrAllocationMismatch  = errors.New("allocation does not match pending amount")
	ErrPetExists           = errors.New("kid already has a pet")
	ErrNoPet               = errors.New("kid has no pet")
	ErrPetNotElder         = errors.New("pet has not reached Elder")
	ErrDuplicateCause      = errors.New("cause already exists")
	ErrEmptyPin            = errors.New("empty pin")
	ErrInvalidXP           = errors.New("xp amount must be positive")
)
