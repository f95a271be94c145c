package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind names the write that produced a TransactionEvent.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

func (k EventKind) IsValid() bool {
	switch k {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	default:
		return false
	}
}

// TransactionEvent is a lightweight change notification. It carries only the
// transaction ID and the month it belongs to; consumers that need the full
// record fetch it through the API.
type TransactionEvent struct {
	EventID   string    `json:"event_id"`
	Kind      EventKind `json:"kind"`
	ID        int64     `json:"id"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event with a fresh ID.
func NewTransactionEvent(kind EventKind, id int64, month string) *TransactionEvent {
	return &TransactionEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		ID:        id,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes an event and rejects unknown kinds.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.IsValid() {
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	return &msg, nil
}
