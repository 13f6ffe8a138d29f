package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the wire form of an action: {"type": "...", "payload": {...}}.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var ErrMalformedAction = errors.New("malformed action")

func newAction(k Kind) (Action, bool) {
	switch k {
	case KindCreateFamily:
		return &CreateFamily{}, true
	case KindAddKid:
		return &AddKid{}, true
	case KindUpdateKid:
		return &UpdateKid{}, true
	case KindGrantMoney:
		return &GrantMoney{}, true
	case KindAllocateMoney:
		return &AllocateMoney{}, true
	case KindSetInterestRate:
		return &SetInterestRate{}, true
	case KindSetBaseline:
		return &SetBaseline{}, true
	case KindApplyInterest:
		return &ApplyInterest{}, true
	case KindAddGoal:
		return &AddGoal{}, true
	case KindFundGoal:
		return &FundGoal{}, true
	case KindPurchaseGoal:
		return &PurchaseGoal{}, true
	case KindAddCustomCause:
		return &AddCustomCause{}, true
	case KindDonate:
		return &Donate{}, true
	case KindSetPet:
		return &SetPet{}, true
	case KindHatchNewPet:
		return &HatchNewPet{}, true
	case KindSetParentPin:
		return &SetParentPin{}, true
	case KindSetWeeklyAllowance:
		return &SetWeeklyAllowance{}, true
	case KindAddXP:
		return &AddXP{}, true
	case KindSwitchMode:
		return &SwitchMode{}, true
	case KindSelectKid:
		return &SelectKid{}, true
	case KindLoadState:
		return &LoadState{}, true
	case KindReset:
		return &Reset{}, true
	}
	return nil, false
}

// deref turns the pointer produced by newAction back into the value variant
// that Apply switches on.
func deref(a Action) Action {
	switch v := a.(type) {
	case *CreateFamily:
		return *v
	case *AddKid:
		return *v
	case *UpdateKid:
		return *v
	case *GrantMoney:
		return *v
	case *AllocateMoney:
		return *v
	case *SetInterestRate:
		return *v
	case *SetBaseline:
		return *v
	case *ApplyInterest:
		return *v
	case *AddGoal:
		return *v
	case *FundGoal:
		return *v
	case *PurchaseGoal:
		return *v
	case *AddCustomCause:
		return *v
	case *Donate:
		return *v
	case *SetPet:
		return *v
	case *HatchNewPet:
		return *v
	case *SetParentPin:
		return *v
	case *SetWeeklyAllowance:
		return *v
	case *AddXP:
		return *v
	case *SwitchMode:
		return *v
	case *SelectKid:
		return *v
	case *LoadState:
		return *v
	case *Reset:
		return *v
	}
	return a
}

// Decode parses an Envelope into its action variant.
func Decode(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	return env.Action()
}

// Action resolves the envelope's payload into a typed action.
func (env Envelope) Action() (Action, error) {
	a, ok := newAction(env.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
	}
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, a); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedAction, env.Type, err)
		}
	}
	return deref(a), nil
}

// Encode wraps an action into its wire envelope.
func Encode(a Action) ([]byte, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Kind(), err)
	}
	return json.Marshal(Envelope{Type: a.Kind(), Payload: payload})
}
