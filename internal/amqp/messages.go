package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"seven23/internal/core"
)

// TransactionRecorded announces a transaction. It carries the full record so
// consumers never need to read it back from the producer's store.
type TransactionRecorded struct {
	Ref         string    `json:"ref"`
	Day         string    `json:"day"` // YYYY-MM-DD
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionRecorded builds the message for a stored transaction.
func NewTransactionRecorded(t core.Transaction) *TransactionRecorded {
	return &TransactionRecorded{
		Ref:         t.Ref,
		Day:         t.Date.String(),
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedFromJSON decodes a message body.
func TransactionRecordedFromJSON(data []byte) (*TransactionRecorded, error) {
	var msg TransactionRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Transaction converts the message back to a validated domain transaction.
func (m *TransactionRecorded) Transaction() (core.Transaction, error) {
	if m.Ref == "" {
		return core.Transaction{}, fmt.Errorf("message without ref")
	}
	d, err := core.ParseDate(m.Day)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse day: %w", err)
	}
	t := core.Transaction{
		Ref:         m.Ref,
		Date:        d,
		Description: m.Description,
		Amount:      core.Money{Cents: m.AmountCents},
		Category:    m.Category,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
