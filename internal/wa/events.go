package wa

import (
	"github.com/matheus3301/wppbot/internal/engine"
	"github.com/matheus3301/wppbot/internal/store"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

// Sink receives translated transport events. *engine.Engine satisfies it.
type Sink interface {
	Post(evt engine.Event) bool
}

// EventHandler translates whatsmeow events into engine events. It keeps no
// state of its own; the engine owns the session state machine.
type EventHandler struct {
	sink   Sink
	logger *zap.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(sink Sink, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{sink: sink, logger: logger}
}

// Handle is the whatsmeow event handler function.
func (h *EventHandler) Handle(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		h.post(ParseMessage(evt))
	case *events.Connected:
		h.logger.Info("WhatsApp connected")
		h.post(engine.Ready{})
	case *events.PairSuccess:
		h.logger.Info("device paired", zap.String("jid", evt.ID.String()))
		h.post(engine.StateChanged{State: "paired"})
	case *events.Disconnected:
		h.logger.Warn("WhatsApp disconnected")
		h.post(engine.Disconnected{Reason: "connection lost"})
	case *events.StreamReplaced:
		h.logger.Warn("stream replaced by another client")
		h.post(engine.Disconnected{Reason: "stream replaced"})
	case *events.TemporaryBan:
		h.logger.Warn("temporary ban", zap.String("ban", evt.String()))
		h.post(engine.Disconnected{Reason: evt.String()})
	case *events.KeepAliveTimeout:
		h.post(engine.StateChanged{State: "keepalive_timeout"})
	case *events.KeepAliveRestored:
		h.post(engine.StateChanged{State: "keepalive_restored"})
	case *events.LoggedOut:
		h.logger.Warn("WhatsApp logged out", zap.String("reason", evt.Reason.String()))
		h.post(engine.AuthFailed{Reason: evt.Reason.String()})
	case *events.ConnectFailure:
		h.logger.Warn("connect failure", zap.String("reason", evt.Reason.String()), zap.String("message", evt.Message))
		if evt.Reason.IsLoggedOut() {
			h.post(engine.AuthFailed{Reason: evt.Reason.String()})
			return
		}
		h.post(engine.Disconnected{Reason: evt.Reason.String()})
	case *events.Receipt:
		h.handleReceipt(evt)
	}
}

func (h *EventHandler) handleReceipt(evt *events.Receipt) {
	var st string
	switch evt.Type {
	case types.ReceiptTypeDelivered:
		st = store.StatusDelivered
	case types.ReceiptTypeRead, types.ReceiptTypePlayed:
		st = store.StatusRead
	default:
		return
	}
	ids := make([]string, 0, len(evt.MessageIDs))
	for _, id := range evt.MessageIDs {
		ids = append(ids, string(id))
	}
	if len(ids) == 0 {
		return
	}
	h.post(engine.Receipt{MessageIDs: ids, Status: st})
}

func (h *EventHandler) post(evt engine.Event) {
	if !h.sink.Post(evt) {
		h.logger.Debug("engine stopped, dropping transport event")
	}
}
