// Package engine processes session events: it drives the session state
// machine, runs the inbound and outbound message pipelines, and keeps the
// contact directory in sync.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/config"
	"github.com/matheus3301/wppbot/internal/dispatch"
	"github.com/matheus3301/wppbot/internal/status"
	"github.com/matheus3301/wppbot/internal/store"
	"go.uber.org/zap"
)

// Store is the persistence the engine needs. *store.DB satisfies it.
type Store interface {
	SaveMessage(ctx context.Context, m *store.Message) error
	UpdateMessageStatus(ctx context.Context, msgID, status string) (int64, error)
	ListMessages(ctx context.Context, f store.MessageFilter) ([]store.Message, error)
	SearchMessages(ctx context.Context, query, chatID string, limit int) ([]store.SearchResult, error)
	UpsertContact(ctx context.Context, c *store.Contact) error
	ListContacts(ctx context.Context) ([]store.Contact, error)
	UpdateContact(ctx context.Context, number string, u store.ContactUpdate) (bool, error)
	UpsertGroup(ctx context.Context, g *store.Group) error
	ListGroups(ctx context.Context) ([]store.Group, error)
	SeedConfig(ctx context.Context, defaults map[string]string) error
	GetConfig(ctx context.Context, key string) (string, bool, error)
	SetConfig(ctx context.Context, key, value string) error
	ListConfig(ctx context.Context) ([]store.ConfigEntry, error)
	SaveTemplate(ctx context.Context, t *store.Template) error
	ListTemplates(ctx context.Context) ([]store.Template, error)
	IncrementTemplateUsage(ctx context.Context, name string) (bool, error)
	DeleteTemplate(ctx context.Context, name string) (bool, error)
}

// Options tunes an Engine. The zero value is usable.
type Options struct {
	Addressing Addressing
	// SyncPolicy is config.SyncOnce (default) or config.SyncEveryReady.
	SyncPolicy      string
	QueueSize       int
	DispatchOptions []dispatch.Option
	Clock           func() time.Time
}

// Engine owns the per-process session state and pipelines.
type Engine struct {
	transport  Transport
	store      Store
	machine    *status.Machine
	bus        *bus.Bus
	logger     *zap.Logger
	dispatcher *dispatch.Dispatcher
	addressing Addressing
	syncPolicy string
	clock      func() time.Time

	stats     *Stats
	templates *templateCache
	settings  *settings
	sync      *Synchronizer

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	syncedAny atomic.Bool
	bg        sync.WaitGroup
}

// New wires an engine. Call Run to start consuming posted events.
func New(t Transport, st Store, machine *status.Machine, b *bus.Bus, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.SyncPolicy == "" {
		opts.SyncPolicy = config.SyncOnce
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	e := &Engine{
		transport:  t,
		store:      st,
		machine:    machine,
		bus:        b,
		logger:     logger,
		addressing: opts.Addressing,
		syncPolicy: opts.SyncPolicy,
		clock:      opts.Clock,
		stats:      NewStats(opts.Clock),
		templates:  newTemplateCache(st),
		settings:   newSettings(),
		events:     make(chan Event, opts.QueueSize),
		done:       make(chan struct{}),
	}
	e.dispatcher = dispatch.New(e.templates, e.settings, opts.DispatchOptions...)
	e.sync = NewSynchronizer(t, st, machine, b, logger.Named("directory"))
	return e
}

// Bootstrap seeds default config and loads the caches. It does not touch
// the transport.
func (e *Engine) Bootstrap(ctx context.Context, defaults map[string]string) error {
	if err := e.store.SeedConfig(ctx, defaults); err != nil {
		return err
	}
	e.reloadCaches(ctx)
	return nil
}

// Run consumes posted events until ctx is cancelled. Each event is handled
// to completion before the next one is taken.
func (e *Engine) Run(ctx context.Context) {
	defer func() {
		e.closeOnce.Do(func() { close(e.done) })
		e.bg.Wait()
	}()
	for {
		select {
		case evt := <-e.events:
			e.HandleEvent(ctx, evt)
		case <-ctx.Done():
			return
		}
	}
}

// Post queues evt for the loop. It blocks while the queue is full and
// returns false once the loop has stopped.
func (e *Engine) Post(evt Event) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.events <- evt:
		return true
	case <-e.done:
		return false
	}
}

// HandleEvent processes a single event synchronously.
func (e *Engine) HandleEvent(ctx context.Context, evt Event) {
	switch ev := evt.(type) {
	case PairingCode:
		e.onPairingCode(ev)
	case Ready:
		e.onReady(ctx)
	case StateChanged:
		e.logger.Debug("transport state", zap.String("state", ev.State))
		e.bus.Emit(bus.KindSessionState, StatePayload{State: ev.State})
	case Disconnected:
		e.onDisconnected(ev)
	case AuthFailed:
		e.onAuthFailed(ev)
	case Receipt:
		e.onReceipt(ctx, ev)
	case Inbound:
		e.apply(ctx, e.handleInbound(ctx, ev))
	default:
		e.logger.Warn("unhandled event", zap.String("event", evt.eventName()))
	}
}

// StatePayload is the payload of session.state events.
type StatePayload struct {
	State string `json:"state"`
}

func (e *Engine) onPairingCode(ev PairingCode) {
	if e.machine.Current() == status.Connecting {
		if err := e.machine.Transition(status.AwaitingPairing, ""); err != nil {
			e.logger.Warn("pairing transition rejected", zap.Error(err))
		}
	}
	if e.machine.Current() != status.AwaitingPairing {
		e.logger.Warn("pairing code ignored", zap.String("state", string(e.machine.Current())))
		return
	}
	e.machine.SetPairingCode(ev.Code)
	e.logger.Info("pairing code issued")
}

func (e *Engine) onReady(ctx context.Context) {
	switch e.machine.Current() {
	case status.Ready:
		return
	case status.Disconnected:
		if err := e.machine.Transition(status.Connecting, "reconnect"); err != nil {
			e.logger.Warn("reconnect transition rejected", zap.Error(err))
			return
		}
	}
	if err := e.machine.Transition(status.Ready, ""); err != nil {
		e.logger.Warn("ready transition rejected", zap.Error(err))
		return
	}
	e.logger.Info("session ready", zap.String("account", e.transport.OwnAddress()))

	e.reloadCaches(ctx)
	if e.syncPolicy == config.SyncEveryReady || e.syncedAny.CompareAndSwap(false, true) {
		e.syncInBackground()
	}
}

func (e *Engine) onDisconnected(ev Disconnected) {
	switch e.machine.Current() {
	case status.Disconnected, status.AuthFailed:
		return
	}
	if err := e.machine.Transition(status.Disconnected, ev.Reason); err != nil {
		e.logger.Warn("disconnect transition rejected", zap.Error(err))
		return
	}
	e.logger.Warn("session disconnected", zap.String("reason", ev.Reason))
}

func (e *Engine) onAuthFailed(ev AuthFailed) {
	if e.machine.Current() == status.AuthFailed {
		return
	}
	if err := e.machine.Transition(status.AuthFailed, ev.Reason); err != nil {
		e.logger.Warn("auth failure transition rejected", zap.Error(err))
		return
	}
	e.logger.Error("authentication failed", zap.String("reason", ev.Reason))
}

// ReceiptPayload is the payload of message.status events.
type ReceiptPayload struct {
	MessageIDs []string `json:"message_ids"`
	Status     string   `json:"status"`
}

func (e *Engine) onReceipt(ctx context.Context, ev Receipt) {
	for _, id := range ev.MessageIDs {
		if _, err := e.store.UpdateMessageStatus(ctx, id, ev.Status); err != nil {
			e.logger.Warn("update message status failed", zap.String("msg_id", id), zap.Error(err))
		}
	}
	e.bus.Emit(bus.KindMessageStatus, ReceiptPayload{MessageIDs: ev.MessageIDs, Status: ev.Status})
}

func (e *Engine) reloadCaches(ctx context.Context) {
	if err := e.settings.reload(ctx, e.store); err != nil {
		e.logger.Warn("reload settings failed", zap.Error(err))
	}
	if err := e.templates.reload(ctx); err != nil {
		e.logger.Warn("reload templates failed", zap.Error(err))
		return
	}
	e.logger.Debug("templates loaded", zap.Int("count", e.templates.len()))
}

func (e *Engine) syncInBackground() {
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		if _, err := e.sync.Run(context.Background()); err != nil {
			e.logger.Warn("directory sync failed", zap.Error(err))
			// Let the next ready transition retry.
			e.syncedAny.Store(false)
		}
	}()
}

// tryPersist runs a persistence step. Failures are logged and swallowed so
// they never abort a pipeline.
func (e *Engine) tryPersist(ctx context.Context, what string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		e.logger.Warn("persist failed", zap.String("what", what), zap.Error(err))
	}
	return err
}
