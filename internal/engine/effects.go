package engine

import (
	"context"

	"github.com/matheus3301/wppbot/internal/store"
	"go.uber.org/zap"
)

// effect is one side effect requested by a handler. Handlers decide what
// should happen; apply performs it.
type effect interface {
	apply(ctx context.Context, e *Engine)
}

type persistEffect struct {
	msg *store.Message
}

func (p persistEffect) apply(ctx context.Context, e *Engine) {
	_ = e.tryPersist(ctx, "message", func(ctx context.Context) error {
		return e.store.SaveMessage(ctx, p.msg)
	})
}

type broadcastEffect struct {
	kind    string
	payload any
}

func (b broadcastEffect) apply(_ context.Context, e *Engine) {
	e.bus.Emit(b.kind, b.payload)
}

type replyEffect struct {
	to   string
	text string
	rule string
}

func (r replyEffect) apply(ctx context.Context, e *Engine) {
	if _, err := e.SubmitOutbound(ctx, r.to, r.text); err != nil {
		e.logger.Warn("auto-reply failed", zap.String("to", r.to), zap.String("rule", r.rule), zap.Error(err))
		return
	}
	e.logger.Debug("auto-reply sent", zap.String("to", r.to), zap.String("rule", r.rule))
}

// apply runs effects in order. Each step is independent: a failure in one
// does not skip the rest.
func (e *Engine) apply(ctx context.Context, effects []effect) {
	for _, eff := range effects {
		eff.apply(ctx, e)
	}
}
