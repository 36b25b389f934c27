package engine

import "time"

// Event is a transport notification consumed by the engine loop.
type Event interface {
	eventName() string
}

// PairingCode carries a fresh code to show the operator.
type PairingCode struct {
	Code string
}

// Ready signals that the session authenticated and is usable.
type Ready struct{}

// StateChanged reports a low-level transport state for observers.
type StateChanged struct {
	State string
}

// Disconnected reports loss of the transport connection.
type Disconnected struct {
	Reason string
}

// AuthFailed reports that credentials were rejected or pairing gave up.
type AuthFailed struct {
	Reason string
}

// Receipt reports delivery progress for previously sent messages.
type Receipt struct {
	MessageIDs []string
	Status     string
}

// Inbound is a message received from the network.
type Inbound struct {
	ID        string
	From      string
	Chat      string
	PushName  string
	Body      string
	MediaType string
	IsGroup   bool
	FromMe    bool
	Timestamp time.Time
}

func (PairingCode) eventName() string  { return "pairing_code" }
func (Ready) eventName() string        { return "ready" }
func (StateChanged) eventName() string { return "state_changed" }
func (Disconnected) eventName() string { return "disconnected" }
func (AuthFailed) eventName() string   { return "auth_failed" }
func (Receipt) eventName() string      { return "receipt" }
func (Inbound) eventName() string      { return "inbound" }
