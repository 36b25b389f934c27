package wa

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matheus3301/wppbot/internal/engine"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
)

// ErrPairingTimeout is returned when no code was scanned in time.
var ErrPairingTimeout = errors.New("pairing timed out")

// Pair runs the QR pairing flow. Each code is posted to sink and, when w is
// non-nil, drawn on w. It returns once pairing succeeds, fails or ctx ends.
func (a *Adapter) Pair(ctx context.Context, sink Sink, w io.Writer) error {
	if a.IsLoggedIn() {
		return errors.New("already logged in")
	}
	qrChan, err := a.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("get QR channel: %w", err)
	}
	// Connect must be called after GetQRChannel.
	if err := a.Connect(); err != nil {
		sink.Post(engine.AuthFailed{Reason: err.Error()})
		return fmt.Errorf("connect: %w", err)
	}
	return pairLoop(qrChan, sink, w)
}

func pairLoop(items <-chan whatsmeow.QRChannelItem, sink Sink, w io.Writer) error {
	for item := range items {
		switch item.Event {
		case "code":
			sink.Post(engine.PairingCode{Code: item.Code})
			if w != nil {
				qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, w)
			}
		case "success":
			return nil
		case "timeout":
			sink.Post(engine.AuthFailed{Reason: ErrPairingTimeout.Error()})
			return ErrPairingTimeout
		default:
			reason := item.Event
			if item.Error != nil {
				reason = item.Error.Error()
			}
			sink.Post(engine.AuthFailed{Reason: reason})
			return fmt.Errorf("pairing failed: %s", reason)
		}
	}
	return nil
}
