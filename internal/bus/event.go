package bus

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds published by the bot. Subscribers filter by prefix, so
// "message." matches every message event.
const (
	KindMessageNew      = "message.new"
	KindMessageSent     = "message.sent"
	KindMessageStatus   = "message.status"
	KindSessionStatus   = "session.status"
	KindSessionPairing  = "session.pairing_code"
	KindSessionState    = "session.state"
	KindDirectorySynced = "directory.synced"
)

// Event is an observer notification. Payloads are plain structs with json
// tags so relays can forward them unchanged.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
