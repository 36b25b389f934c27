package engine

import (
	"context"

	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/dispatch"
	"github.com/matheus3301/wppbot/internal/store"
	"go.uber.org/zap"
)

// handleInbound decides what to do with a received message. It only reads
// state; the returned effects do the writing.
func (e *Engine) handleInbound(ctx context.Context, m Inbound) []effect {
	if e.isSelf(m) {
		e.logger.Debug("skipping own message", zap.String("msg_id", m.ID))
		return nil
	}
	e.stats.recordReceived()

	chatID := m.Chat
	if chatID == "" {
		chatID = m.From
	}

	name := m.PushName
	if name == "" {
		if c, err := e.transport.LookupContact(ctx, m.From); err == nil {
			name = c.Name
		} else {
			e.logger.Debug("contact lookup failed", zap.String("from", m.From), zap.Error(err))
		}
	}

	chat := Chat{ID: chatID, IsGroup: m.IsGroup}
	if c, err := e.transport.LookupChat(ctx, chatID); err == nil {
		chat = c
		chat.IsGroup = chat.IsGroup || m.IsGroup
		if chat.ID == "" {
			chat.ID = chatID
		}
	} else {
		e.logger.Debug("chat lookup failed", zap.String("chat", chatID), zap.Error(err))
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = e.clock()
	}
	rec := &store.Message{
		MsgID:       m.ID,
		FromNumber:  m.From,
		ToNumber:    e.transport.OwnAddress(),
		Body:        m.Body,
		Direction:   store.DirectionReceived,
		Timestamp:   ts.UnixMilli(),
		ChatID:      chatID,
		ContactName: name,
		IsGroup:     chat.IsGroup,
		MediaType:   m.MediaType,
		Status:      store.StatusDelivered,
	}

	var effects []effect
	if e.settings.SaveMessages() {
		effects = append(effects, persistEffect{msg: rec})
	}
	effects = append(effects, broadcastEffect{kind: bus.KindMessageNew, payload: rec})

	if !e.settings.AutoReply() {
		return effects
	}
	reply, ok := e.dispatcher.Dispatch(ctx, dispatch.Request{
		Body: m.Body,
		Chat: dispatch.Chat{
			ID:           chat.ID,
			Name:         chat.Name,
			IsGroup:      chat.IsGroup,
			Participants: chat.Participants,
		},
	})
	if ok {
		effects = append(effects, replyEffect{to: chatID, text: reply.Text, rule: reply.Rule})
	}
	return effects
}

func (e *Engine) isSelf(m Inbound) bool {
	if m.FromMe {
		return true
	}
	own := e.transport.OwnAddress()
	return own != "" && addressUser(m.From) == own
}
