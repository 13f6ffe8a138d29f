package amqp

import (
	"encoding/json"
	"time"
)

// FamilySavedMessage tells the ledger worker that new transactions may be
// waiting. The worker reads the rows itself; the message only carries ids.
type FamilySavedMessage struct {
	FamilyID     string    `json:"family_id"`
	Transactions int       `json:"transactions"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewFamilySavedMessage(familyID string, transactions int) *FamilySavedMessage {
	return &FamilySavedMessage{
		FamilyID:     familyID,
		Transactions: transactions,
		Timestamp:    time.Now(),
	}
}

func (m *FamilySavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func FamilySavedMessageFromJSON(data []byte) (*FamilySavedMessage, error) {
	var msg FamilySavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
