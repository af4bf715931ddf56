// Package events defines the domain events emitted by the ledger and the
// publishers that deliver them.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Type names a ledger event. It doubles as the AMQP routing key.
type Type string

const (
	GroupCreated     Type = "group.created"
	GroupMemberAdded Type = "group.member_added"
	GroupDeleted     Type = "group.deleted"
	ExpenseCreated   Type = "expense.created"
	PaymentRecorded  Type = "expense.payment_recorded"
	ExpenseSettled   Type = "expense.settled"
	ExpenseCancelled Type = "expense.cancelled"
)

// Event is a lightweight notification; consumers fetch full state from the API.
type Event struct {
	Type       Type      `json:"type"`
	GroupID    string    `json:"groupId"`
	ExpenseID  string    `json:"expenseId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON creates an event from JSON bytes
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
