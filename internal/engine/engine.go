// Package engine applies family, money and gamification actions to an
// immutable core.State.
//
// Apply never mutates its input and never performs I/O. A rejected action
// returns the input state unchanged together with an error wrapping one of
// the sentinels in errors.go.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"wealthwarriors/internal/core"
)

type Engine struct {
	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the generator used for new entity ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Reduce applies a with the default engine and discards the rejection reason.
func Reduce(s core.State, a Action) core.State {
	next, _ := defaultEngine.Apply(s, a)
	return next
}

// Apply returns the state that results from a.
func (e *Engine) Apply(s core.State, a Action) (core.State, error) {
	switch a := a.(type) {
	case CreateFamily:
		return e.createFamily(s, a)
	case AddKid:
		return e.addKid(s, a)
	case UpdateKid:
		return e.updateKid(s, a)
	case GrantMoney:
		return e.grantMoney(s, a)
	case AllocateMoney:
		return e.allocateMoney(s, a)
	case SetInterestRate:
		return e.setInterestRate(s, a)
	case SetBaseline:
		return e.setBaseline(s, a)
	case ApplyInterest:
		return e.applyInterest(s, a)
	case AddGoal:
		return e.addGoal(s, a)
	case FundGoal:
		return e.fundGoal(s, a)
	case PurchaseGoal:
		return e.purchaseGoal(s, a)
	case AddCustomCause:
		return e.addCustomCause(s, a)
	case Donate:
		return e.donate(s, a)
	case SetPet:
		return e.setPet(s, a)
	case HatchNewPet:
		return e.hatchNewPet(s, a)
	case SetParentPin:
		return e.setParentPin(s, a)
	case SetWeeklyAllowance:
		return e.setWeeklyAllowance(s, a)
	case AddXP:
		return e.addXP(s, a)
	case SwitchMode:
		return e.switchMode(s, a)
	case SelectKid:
		return e.selectKid(s, a)
	case LoadState:
		return e.loadState(s, a)
	case Reset:
		return core.InitialState(), nil
	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}

// ApplyAll folds actions over s, stopping at the first rejection.
func (e *Engine) ApplyAll(s core.State, actions ...Action) (core.State, error) {
	for i, a := range actions {
		next, err := e.Apply(s, a)
		if err != nil {
			return s, fmt.Errorf("action %d (%s): %w", i, a.Kind(), err)
		}
		s = next
	}
	return s, nil
}
