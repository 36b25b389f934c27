package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by operations that need a ready session.
	ErrNotConnected = errors.New("whatsapp session not connected")
	// ErrInvalidTarget is returned when a destination has no usable address.
	ErrInvalidTarget = errors.New("invalid target address")
	// ErrEmptyContent is returned when asked to send an empty message.
	ErrEmptyContent = errors.New("message content is empty")
	// ErrInvalidArgument marks operator input the engine refuses.
	ErrInvalidArgument = errors.New("invalid argument")
)

// IsInvalidInput reports whether err was caused by bad caller input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrInvalidArgument)
}

// TransportError wraps a failure reported by the transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
