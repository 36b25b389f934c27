package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/wppbot/internal/bus"
)

// State is the lifecycle state of the WhatsApp session.
type State string

const (
	Connecting      State = "connecting"
	AwaitingPairing State = "awaiting_pairing"
	Ready           State = "ready"
	Disconnected    State = "disconnected"
	AuthFailed      State = "auth_failed"
)

// validTransitions lists the states reachable from each state. AuthFailed
// is terminal until the process restarts.
var validTransitions = map[State][]State{
	Connecting:      {AwaitingPairing, Ready, Disconnected, AuthFailed},
	AwaitingPairing: {Ready, Disconnected, AuthFailed},
	Ready:           {Disconnected, AuthFailed},
	Disconnected:    {Connecting, AuthFailed},
	AuthFailed:      {},
}

// Machine owns the session state. Reads may happen from any goroutine.
type Machine struct {
	mu          sync.RWMutex
	current     State
	pairingCode string
	bus         *bus.Bus
}

// NewMachine creates a machine in the Connecting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Connecting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Ready reports whether sends and directory syncs are allowed.
func (m *Machine) Ready() bool {
	return m.Current() == Ready
}

// PairingCode returns the last pairing code seen while awaiting pairing.
func (m *Machine) PairingCode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pairingCode
}

// SetPairingCode caches code and announces it to observers.
func (m *Machine) SetPairingCode(code string) {
	m.mu.Lock()
	m.pairingCode = code
	m.mu.Unlock()
	m.bus.Emit(bus.KindSessionPairing, PairingCodeIssued{Code: code})
}

// Transition moves to the given state. An invalid transition returns an
// error and leaves the state untouched.
func (m *Machine) Transition(to State, reason string) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	if to == Ready {
		m.pairingCode = ""
	}
	m.mu.Unlock()

	m.bus.Emit(bus.KindSessionStatus, StatusChange{
		From:      from,
		To:        to,
		Connected: to == Ready,
		Reason:    reason,
	})
	return nil
}

// StatusChange is the payload of session.status events.
type StatusChange struct {
	From      State  `json:"from"`
	To        State  `json:"to"`
	Connected bool   `json:"connected"`
	Reason    string `json:"reason,omitempty"`
}

// PairingCodeIssued is the payload of session.pairing_code events.
type PairingCodeIssued struct {
	Code string `json:"code"`
}
