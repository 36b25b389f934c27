package engine

import (
	"context"
	"strings"

	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/store"
	"go.uber.org/zap"
)

// SentPayload is the payload of message.sent events.
type SentPayload struct {
	To        string `json:"to"`
	Address   string `json:"address"`
	Content   string `json:"content"`
	MessageID string `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}

// SubmitOutbound sends content to target. It fails with ErrNotConnected
// before touching the transport or the store when the session is not
// ready. Transport failures come back as *TransportError and are not
// retried. Persisting the sent record is best effort.
func (e *Engine) SubmitOutbound(ctx context.Context, target, content string) (MessageHandle, error) {
	if !e.machine.Ready() {
		return MessageHandle{}, ErrNotConnected
	}
	if strings.TrimSpace(content) == "" {
		return MessageHandle{}, ErrEmptyContent
	}
	addr, err := e.addressing.Normalize(target)
	if err != nil {
		return MessageHandle{}, err
	}

	handle, err := e.transport.Send(ctx, addr, content)
	if err != nil {
		e.logger.Warn("send failed", zap.String("to", addr), zap.Error(err))
		return MessageHandle{}, &TransportError{Op: "send", Err: err}
	}
	if handle.Timestamp.IsZero() {
		handle.Timestamp = e.clock()
	}
	if handle.To == "" {
		handle.To = addr
	}
	e.stats.recordSent()

	if e.settings.SaveMessages() {
		rec := &store.Message{
			MsgID:      handle.ID,
			FromNumber: "bot",
			ToNumber:   target,
			Body:       content,
			Direction:  store.DirectionSent,
			Timestamp:  handle.Timestamp.UnixMilli(),
			ChatID:     addr,
			IsGroup:    strings.HasSuffix(addr, "@g.us"),
			Status:     store.StatusSent,
		}
		_ = e.tryPersist(ctx, "sent message", func(ctx context.Context) error {
			return e.store.SaveMessage(ctx, rec)
		})
	}

	e.bus.Emit(bus.KindMessageSent, SentPayload{
		To:        target,
		Address:   addr,
		Content:   content,
		MessageID: handle.ID,
		Timestamp: handle.Timestamp.UnixMilli(),
	})
	e.logger.Info("message sent", zap.String("to", addr), zap.String("msg_id", handle.ID))
	return handle, nil
}
