package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/engine"
	"wealthwarriors/internal/storage/memory"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testEngine(clock *testClock) *engine.Engine {
	n := 0
	return engine.New(
		engine.WithClock(clock.Now),
		engine.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (p *recordingPublisher) PublishFamilySaved(_ context.Context, _ string, transactions int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, transactions)
	return p.err
}

type brokenStore struct{}

func (brokenStore) LoadFamily(context.Context) (*core.Family, error) { return nil, nil }
func (brokenStore) SaveFamily(context.Context, core.Family) error {
	return errors.New("database is locked")
}

// newTestService returns a service with a family and one kid, "id-2".
func newTestService(t *testing.T, opts ...Option) (*FamilyService, *memory.Store, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	opts = append([]Option{WithEngine(testEngine(clock)), WithPinCost(bcrypt.MinCost)}, opts...)
	svc := NewFamilyService(store, opts...)

	ctx := context.Background()
	for _, a := range []engine.Action{
		engine.CreateFamily{Name: "Tully"},
		engine.AddKid{Name: "Edmure", Age: 10, Avatar: "🐟"},
	} {
		if _, err := svc.Dispatch(ctx, a); err != nil {
			t.Fatalf("setup %s: %v", a.Kind(), err)
		}
	}
	return svc, store, clock
}

func TestDispatchPersists(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	st, err := svc.Dispatch(ctx, engine.GrantMoney{KidID: "id-2", Amount: core.Dollars(50)})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	k, _ := st.Family.FindKid("id-2")
	if k.PendingAllocation == nil || *k.PendingAllocation != core.Dollars(50) {
		t.Errorf("pending = %v", k.PendingAllocation)
	}

	saved, _ := store.LoadFamily(ctx)
	if saved == nil {
		t.Fatal("family was not saved")
	}
	sk, _ := saved.FindKid("id-2")
	if len(sk.Transactions) != 1 {
		t.Errorf("saved transactions = %d, want 1", len(sk.Transactions))
	}
	if store.Saves() != 3 {
		t.Errorf("saves = %d, want 3", store.Saves())
	}
}

func TestDispatchRejectionKeepsState(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	before := svc.State()
	saves := store.Saves()

	st, err := svc.Dispatch(ctx, engine.AllocateMoney{KidID: "id-2", Save: core.Dollars(1)})
	if !errors.Is(err, engine.ErrNoPendingAllocation) {
		t.Fatalf("Dispatch() error = %v, want ErrNoPendingAllocation", err)
	}
	if st.Family != before.Family {
		t.Error("rejected action changed the family")
	}
	if store.Saves() != saves {
		t.Error("rejected action was persisted")
	}
}

func TestDispatchSurvivesPersistFailure(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)}
	svc := NewFamilyService(brokenStore{}, WithEngine(testEngine(clock)))

	st, err := svc.Dispatch(ctx, engine.CreateFamily{Name: "Frey"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if st.Family == nil || svc.State().Family == nil {
		t.Fatal("in-memory state must advance even when the save fails")
	}
}

func TestDispatchSurvivesCancelledRequest(t *testing.T) {
	svc, store, _ := newTestService(t)
	saves := store.Saves()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Dispatch(ctx, engine.AddXP{KidID: "id-2", Amount: 5}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if store.Saves() != saves+1 {
		t.Errorf("save skipped for cancelled request context")
	}
}

func TestPublishOnlyWhenTransactionsAdded(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _, _ := newTestService(t, WithPublisher(pub))

	mustDispatch(t, svc,
		engine.GrantMoney{KidID: "id-2", Amount: core.Dollars(10)},
		engine.AllocateMoney{KidID: "id-2", Save: core.Dollars(4), Spend: core.Dollars(6)},
		engine.SetInterestRate{KidID: "id-2", Rate: 7},
	)

	pub.mu.Lock()
	calls := append([]int(nil), pub.calls...)
	pub.mu.Unlock()
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("publish calls = %v, want [1 2]", calls)
	}

	pub.err = errors.New("channel closed")
	if _, err := svc.Dispatch(ctx, engine.GrantMoney{KidID: "id-2", Amount: core.Dollars(1)}); err != nil {
		t.Errorf("publish failure must not fail dispatch: %v", err)
	}
}

func TestParentPin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	st := mustDispatch(t, svc, engine.SetParentPin{Pin: "4242"})
	if st.Family.Settings.ParentPin == "4242" {
		t.Fatal("pin stored in clear text")
	}
	if !svc.VerifyParentPin("4242") || svc.VerifyParentPin("0000") {
		t.Error("VerifyParentPin() mismatch")
	}

	mustDispatch(t, svc, engine.SwitchMode{Mode: core.ModeKid})
	if _, err := svc.Dispatch(ctx, engine.SwitchMode{Mode: core.ModeParent}); !errors.Is(err, ErrParentPinRequired) {
		t.Errorf("switch to parent error = %v, want ErrParentPinRequired", err)
	}
	if _, err := svc.UnlockParent(ctx, "1111"); !errors.Is(err, ErrWrongPin) {
		t.Errorf("UnlockParent(wrong) error = %v", err)
	}
	if svc.State().CurrentMode != core.ModeKid {
		t.Fatal("wrong pin changed the mode")
	}
	st, err := svc.UnlockParent(ctx, "4242")
	if err != nil || st.CurrentMode != core.ModeParent {
		t.Errorf("UnlockParent() = %s, %v", st.CurrentMode, err)
	}

	if _, err := svc.Dispatch(ctx, engine.SetParentPin{Pin: ""}); !errors.Is(err, engine.ErrEmptyPin) {
		t.Errorf("empty pin error = %v", err)
	}
}

func TestKidModeBlocksParentActions(t *testing.T) {
	ctx := context.Background()
	locked := func(t *testing.T) *FamilyService {
		svc, _, _ := newTestService(t)
		mustDispatch(t, svc,
			engine.SetParentPin{Pin: "4242"},
			engine.SwitchMode{Mode: core.ModeKid},
		)
		return svc
	}

	blocked := []engine.Action{
		engine.SetParentPin{Pin: "0000"},
		engine.LoadState{State: core.InitialState()},
		engine.Reset{},
		engine.SwitchMode{Mode: core.ModeParent},
		engine.CreateFamily{Name: "Frey"},
		engine.AddKid{Name: "Walder", Age: 12},
		engine.UpdateKid{KidID: "id-2"},
		engine.GrantMoney{KidID: "id-2", Amount: core.Dollars(100)},
		engine.SetInterestRate{KidID: "id-2", Rate: 20},
		engine.SetBaseline{KidID: "id-2", Baseline: core.Dollars(1)},
		engine.ApplyInterest{KidID: "id-2"},
		engine.SetWeeklyAllowance{KidID: "id-2", Amount: core.Dollars(50)},
		engine.AddXP{KidID: "id-2", Amount: 1000},
	}
	for _, a := range blocked {
		t.Run(string(a.Kind()), func(t *testing.T) {
			svc := locked(t)
			before := svc.State()
			st, err := svc.Dispatch(ctx, a)
			if !errors.Is(err, ErrParentPinRequired) {
				t.Fatalf("error = %v, want ErrParentPinRequired", err)
			}
			if st.Family != before.Family || st.CurrentMode != core.ModeKid {
				t.Error("rejected action changed the state")
			}
			if !svc.VerifyParentPin("4242") {
				t.Error("stored pin changed")
			}
		})
	}

	t.Run("kid actions still allowed", func(t *testing.T) {
		svc := locked(t)
		kid := "id-2"
		mustDispatch(t, svc,
			engine.SelectKid{KidID: &kid},
			engine.SetPet{KidID: "id-2", PetType: core.PetOwl, PetName: "Hedwig"},
			engine.SwitchMode{Mode: core.ModeKid},
		)
	})

	t.Run("parent authority bypasses the lock", func(t *testing.T) {
		svc := locked(t)
		st, err := svc.DispatchAsParent(ctx, engine.GrantMoney{KidID: "id-2", Amount: core.Dollars(5)})
		if err != nil {
			t.Fatalf("DispatchAsParent() error = %v", err)
		}
		if st.CurrentMode != core.ModeKid {
			t.Errorf("mode = %s, want kid", st.CurrentMode)
		}
	})
}

func TestSwitchModeWithoutPin(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustDispatch(t, svc, engine.SwitchMode{Mode: core.ModeKid})
	st := mustDispatch(t, svc, engine.SwitchMode{Mode: core.ModeParent})
	if st.CurrentMode != core.ModeParent {
		t.Errorf("mode = %s", st.CurrentMode)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	mustDispatch(t, svc, engine.AddXP{KidID: "id-2", Amount: 120})

	fresh := NewFamilyService(store)
	if err := fresh.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p, err := fresh.Progress("id-2")
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if p.TotalXP != 120 || p.Rank.Rank != core.RankForXP(120) {
		t.Errorf("progress = %+v", p)
	}
	if _, err := fresh.Progress("nope"); !errors.Is(err, engine.ErrKidNotFound) {
		t.Errorf("Progress(nope) error = %v", err)
	}
}

func TestStateStorePersistsMode(t *testing.T) {
	ctx := context.Background()
	states := memory.NewStore()
	svc, _, _ := newTestService(t, WithStateStore(states))

	mustDispatch(t, svc, engine.SwitchMode{Mode: core.ModeKid})
	st, err := states.LoadState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.CurrentMode != core.ModeKid || st.Family == nil {
		t.Errorf("stored state = mode %s, family %v", st.CurrentMode, st.Family != nil)
	}
}

func mustDispatch(t *testing.T, svc *FamilyService, actions ...engine.Action) core.State {
	t.Helper()
	var st core.State
	for _, a := range actions {
		var err error
		st, err = svc.Dispatch(context.Background(), a)
		if err != nil {
			t.Fatalf("Dispatch(%s) error = %v", a.Kind(), err)
		}
	}
	return st
}
