package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"$12.50", 1250, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"$", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestAddChecked(t *testing.T) {
	cases := []struct {
		a, b Money
		want Money
		ok   bool
	}{
		{Dollars(1), Cents(50), Cents(150), true},
		{MaxAmount, Money{}, MaxAmount, true},
		{MaxAmount, Cents(1), Money{}, false},
		{Cents(math.MaxInt64), Cents(1), Money{}, false},
		{Cents(1), Cents(math.MaxInt64), Money{}, false},
		{Cents(math.MinInt64), Cents(-1), Money{}, false},
		{MaxAmount.Neg(), Cents(-1), Money{}, false},
	}
	for _, tc := range cases {
		got, err := tc.a.AddChecked(tc.b)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Errorf("%d+%d = %d (err=%v), want %d", tc.a.Cents, tc.b.Cents, got.Cents, err, tc.want.Cents)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("%d+%d error = %v, want ErrInvalidAmount", tc.a.Cents, tc.b.Cents, err)
		}
	}
}

func TestValidateCapsAmount(t *testing.T) {
	if err := MaxAmount.Validate(); err != nil {
		t.Errorf("MaxAmount.Validate() = %v", err)
	}
	for _, m := range []Money{Cents(0), Cents(-1), MaxAmount.Add(Cents(1)), Cents(math.MaxInt64)} {
		if err := m.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("%d.Validate() = %v, want ErrInvalidAmount", m.Cents, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Dollars(25), "$25.00"},
		{Cents(5), "$0.05"},
		{Cents(-1250), "-$12.50"},
		{Money{}, "$0.00"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", tc.m.Cents, got, tc.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Money `json:"a"`
	}{Cents(1234)})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":1234}` {
		t.Fatalf("marshal = %s", data)
	}
	var m Money
	if err := json.Unmarshal([]byte("99"), &m); err != nil || m != Cents(99) {
		t.Fatalf("unmarshal = %v, %v", m, err)
	}
	if err := json.Unmarshal([]byte(`"99"`), &m); err == nil {
		t.Fatalf("expected error for string amount")
	}
}
