package amqp

import (
	"strings"
	"testing"
)

func TestFamilySavedMessageJSON(t *testing.T) {
	msg := NewFamilySavedMessage("fam-1", 4)
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(data), `"family_id":"fam-1"`) {
		t.Errorf("ToJSON() = %s", data)
	}

	got, err := FamilySavedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.FamilyID != "fam-1" || got.Transactions != 4 || !got.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("FromJSON() = %+v, want %+v", got, msg)
	}

	if _, err := FamilySavedMessageFromJSON([]byte("{")); err == nil {
		t.Error("expected error for truncated body")
	}
}
