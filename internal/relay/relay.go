// Package relay forwards observer events from the bus to external sinks.
package relay

import (
	"context"
	"sync"

	"github.com/matheus3301/wppbot/internal/bus"
	"go.uber.org/zap"
)

// Publisher delivers one event to an external system.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, evt bus.Event) error
	Close() error
}

// Relay subscribes to every bus event and hands it to each publisher in
// turn. Failed deliveries are logged and dropped.
type Relay struct {
	bus        *bus.Bus
	publishers []Publisher
	logger     *zap.Logger
	buffer     int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a relay. It does nothing until Start.
func New(b *bus.Bus, logger *zap.Logger, publishers ...Publisher) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{bus: b, publishers: publishers, logger: logger, buffer: 256}
}

// Len returns the number of configured publishers.
func (r *Relay) Len() int {
	return len(r.publishers)
}

// Start begins forwarding. It is a no-op without publishers.
func (r *Relay) Start(ctx context.Context) {
	if len(r.publishers) == 0 {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	ch, unsub := r.bus.Subscribe("", r.buffer)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer unsub()
		for {
			select {
			case evt, ok := <-ch:
				if !ok {
					return
				}
				r.forward(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}()
	r.logger.Info("event relay started", zap.Int("publishers", len(r.publishers)))
}

func (r *Relay) forward(ctx context.Context, evt bus.Event) {
	for _, p := range r.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			r.logger.Warn("relay publish failed",
				zap.String("publisher", p.Name()),
				zap.String("kind", evt.Kind),
				zap.Error(err),
			)
		}
	}
}

// Stop halts forwarding and closes every publisher.
func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	for _, p := range r.publishers {
		if err := p.Close(); err != nil {
			r.logger.Warn("relay close failed", zap.String("publisher", p.Name()), zap.Error(err))
		}
	}
}
