package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/engine"
	"wealthwarriors/internal/storage"
)

var (
	ErrParentPinRequired = errors.New("parent pin required")
	ErrWrongPin          = errors.New("wrong pin")
)

// Publisher announces that a family was persisted with new transactions.
type Publisher interface {
	PublishFamilySaved(ctx context.Context, familyID string, transactions int) error
}

// FamilyService owns the authoritative state. Dispatch serializes actions,
// applies them through the engine, then persists and publishes on a best
// effort basis: a failed save is logged and never rolls the state back.
type FamilyService struct {
	mu    sync.Mutex
	state core.State

	engine         *engine.Engine
	families       storage.FamilyStore
	states         storage.StateStore
	publisher      Publisher
	persistTimeout time.Duration
	pinCost        int
}

type Option func(*FamilyService)

func WithEngine(e *engine.Engine) Option {
	return func(s *FamilyService) { s.engine = e }
}

// WithStateStore persists the whole state, mode and selection included,
// instead of the family alone.
func WithStateStore(st storage.StateStore) Option {
	return func(s *FamilyService) { s.states = st }
}

func WithPublisher(p Publisher) Option {
	return func(s *FamilyService) { s.publisher = p }
}

func WithPersistTimeout(d time.Duration) Option {
	return func(s *FamilyService) { s.persistTimeout = d }
}

// WithPinCost sets the bcrypt cost used for parent pins.
func WithPinCost(cost int) Option {
	return func(s *FamilyService) { s.pinCost = cost }
}

func NewFamilyService(families storage.FamilyStore, opts ...Option) *FamilyService {
	s := &FamilyService{
		state:          core.InitialState(),
		engine:         engine.New(),
		families:       families,
		persistTimeout: 5 * time.Second,
		pinCost:        bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with what the store holds.
func (s *FamilyService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.states != nil {
		st, err := s.states.LoadState(ctx)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		s.state = st
	} else if s.families != nil {
		f, err := s.families.LoadFamily(ctx)
		if err != nil {
			return fmt.Errorf("load family: %w", err)
		}
		s.state = core.InitialState()
		s.state.Family = f
	}

	if err := s.state.Validate(); err != nil {
		return fmt.Errorf("stored state is invalid: %w", err)
	}

	kids := 0
	if s.state.Family != nil {
		kids = len(s.state.Family.Kids)
	}
	slog.InfoContext(ctx, "Loaded family state", "has_family", s.state.Family != nil, "kids", kids)
	return nil
}

// State returns the current snapshot. Callers must not modify it.
func (s *FamilyService) State() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and returns the resulting state. On rejection the
// unchanged state is returned with the engine's error. While a pin is set
// and the app is in kid mode, parent actions fail with ErrParentPinRequired.
func (s *FamilyService) Dispatch(ctx context.Context, a engine.Action) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.parentLocked() && parentOnly(a) {
		slog.WarnContext(ctx, "Parent action rejected in kid mode", "action", a.Kind())
		return s.state, ErrParentPinRequired
	}
	return s.dispatch(ctx, a)
}

// DispatchAsParent applies a with parent authority whatever the current
// mode. It serves in-process jobs such as the scheduler and seeding; request
// handlers must use Dispatch.
func (s *FamilyService) DispatchAsParent(ctx context.Context, a engine.Action) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(ctx, a)
}

// dispatch hashes new pins before applying a. Callers hold mu.
func (s *FamilyService) dispatch(ctx context.Context, a engine.Action) (core.State, error) {
	if act, ok := a.(engine.SetParentPin); ok && act.Pin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(act.Pin), s.pinCost)
		if err != nil {
			return s.state, fmt.Errorf("hash pin: %w", err)
		}
		a = engine.SetParentPin{Pin: string(hash)}
	}
	return s.apply(ctx, a)
}

// parentOnly lists the actions a kid may not dispatch once a pin is set.
func parentOnly(a engine.Action) bool {
	switch act := a.(type) {
	case engine.SwitchMode:
		return act.Mode == core.ModeParent
	case engine.SetParentPin, engine.LoadState, engine.Reset,
		engine.CreateFamily, engine.AddKid, engine.UpdateKid,
		engine.GrantMoney, engine.SetInterestRate, engine.SetBaseline, engine.ApplyInterest,
		engine.SetWeeklyAllowance, engine.AddXP:
		return true
	}
	return false
}

// UnlockParent switches to parent mode after checking pin against the stored
// hash. Without a stored pin any value unlocks.
func (s *FamilyService) UnlockParent(ctx context.Context, pin string) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.verifyPin(pin) {
		slog.WarnContext(ctx, "Parent unlock rejected", "reason", "wrong pin")
		return s.state, ErrWrongPin
	}
	return s.apply(ctx, engine.SwitchMode{Mode: core.ModeParent})
}

// VerifyParentPin reports whether pin matches the stored parent pin.
func (s *FamilyService) VerifyParentPin(pin string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyPin(pin)
}

// Progress returns rank and pet progress for one kid.
func (s *FamilyService) Progress(kidID string) (core.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.state.Family.FindKid(kidID)
	if !ok {
		return core.Progress{}, fmt.Errorf("%w: %s", engine.ErrKidNotFound, kidID)
	}
	return core.ProgressFor(k), nil
}

func (s *FamilyService) storedPin() string {
	if s.state.Family == nil {
		return ""
	}
	return s.state.Family.Settings.ParentPin
}

func (s *FamilyService) parentLocked() bool {
	return s.state.CurrentMode == core.ModeKid && s.storedPin() != ""
}

func (s *FamilyService) verifyPin(pin string) bool {
	hash := s.storedPin()
	if hash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// apply runs a through the engine and persists the result. Callers hold mu.
func (s *FamilyService) apply(ctx context.Context, a engine.Action) (core.State, error) {
	prev := s.state
	next, err := s.engine.Apply(prev, a)
	if err != nil {
		slog.WarnContext(ctx, "Action rejected",
			"action", a.Kind(),
			"error", err)
		return prev, err
	}
	s.state = next

	attrs := []any{"action", a.Kind()}
	if ks, ok := a.(engine.KidScoped); ok {
		attrs = append(attrs, "kid_id", ks.TargetKid())
	}
	slog.DebugContext(ctx, "Action applied", attrs...)

	s.persist(ctx, prev, next)
	return next, nil
}

func (s *FamilyService) persist(ctx context.Context, prev, next core.State) {
	familyChanged := next.Family != prev.Family
	if s.states == nil && !familyChanged {
		return
	}

	// The save must outlive a cancelled request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	switch {
	case s.states != nil:
		if err := s.states.SaveState(ctx, next); err != nil {
			slog.ErrorContext(ctx, "Failed to persist state", "error", err)
			return
		}
	case next.Family == nil:
		slog.WarnContext(ctx, "Family cleared in memory; store keeps the last saved family")
		return
	default:
		if err := s.families.SaveFamily(ctx, *next.Family); err != nil {
			slog.ErrorContext(ctx, "Failed to persist family", "family_id", next.Family.ID, "error", err)
			return
		}
	}

	added := countTransactions(next.Family) - countTransactions(prev.Family)
	if s.publisher == nil || next.Family == nil || added <= 0 {
		return
	}
	if err := s.publisher.PublishFamilySaved(ctx, next.Family.ID, added); err != nil {
		slog.ErrorContext(ctx, "Failed to publish family saved message",
			"family_id", next.Family.ID, "error", err)
	}
}

func countTransactions(f *core.Family) int {
	if f == nil {
		return 0
	}
	n := 0
	for _, k := range f.Kids {
		n += len(k.Transactions)
	}
	return n
}
