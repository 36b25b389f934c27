package engine

import (
	"context"
	"time"

	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/status"
	"github.com/matheus3301/wppbot/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const unnamedContact = "Contact sans nom"

// SyncResult summarises one directory synchronisation.
type SyncResult struct {
	ContactsSaved int   `json:"contacts_saved"`
	ContactsTotal int   `json:"contacts_total"`
	GroupsSaved   int   `json:"groups_saved"`
	GroupsTotal   int   `json:"groups_total"`
	Skipped       int   `json:"skipped"`
	Failed        int   `json:"failed"`
	DurationMs    int64 `json:"duration_ms"`
}

// Synchronizer copies the transport's contacts and groups into the store.
// Concurrent requests share one in-flight run.
type Synchronizer struct {
	transport Transport
	store     Store
	machine   *status.Machine
	bus       *bus.Bus
	logger    *zap.Logger
	group     singleflight.Group
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(t Transport, st Store, machine *status.Machine, b *bus.Bus, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{transport: t, store: st, machine: machine, bus: b, logger: logger}
}

// Run synchronises the directory. A fetch failure aborts this attempt;
// invalid entries are skipped and individual write failures are counted.
func (s *Synchronizer) Run(ctx context.Context) (SyncResult, error) {
	if !s.machine.Ready() {
		return SyncResult{}, ErrNotConnected
	}
	v, err, shared := s.group.Do("directory", func() (any, error) {
		return s.run(ctx)
	})
	if shared {
		s.logger.Debug("joined in-flight directory sync")
	}
	if err != nil {
		return SyncResult{}, err
	}
	return v.(SyncResult), nil
}

func (s *Synchronizer) run(ctx context.Context) (SyncResult, error) {
	start := time.Now()

	var contacts []Contact
	var chats []Chat
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contacts, err = s.transport.ListContacts(gctx)
		if err != nil {
			return &TransportError{Op: "list contacts", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		chats, err = s.transport.ListChats(gctx)
		if err != nil {
			return &TransportError{Op: "list chats", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	now := time.Now().UnixMilli()
	res.ContactsTotal = len(contacts)
	for _, c := range contacts {
		if !validAddress(c.Address) {
			s.logger.Info("skipping contact without a phone number", zap.String("address", c.Address))
			res.Skipped++
			continue
		}
		name := c.Name
		if name == "" {
			name = unnamedContact
		}
		err := s.store.UpsertContact(ctx, &store.Contact{
			Number:     c.Address,
			Name:       name,
			ProfilePic: c.AvatarURL,
			LastSeen:   now,
		})
		if err != nil {
			s.logger.Warn("save contact failed", zap.String("address", c.Address), zap.Error(err))
			res.Failed++
			continue
		}
		res.ContactsSaved++
	}

	for _, ch := range chats {
		if !ch.IsGroup {
			continue
		}
		res.GroupsTotal++
		if ch.ID == "" {
			s.logger.Info("skipping group without id", zap.String("name", ch.Name))
			res.Skipped++
			continue
		}
		err := s.store.UpsertGroup(ctx, &store.Group{
			GroupID:           ch.ID,
			Name:              ch.Name,
			Description:       ch.Description,
			ParticipantsCount: ch.Participants,
		})
		if err != nil {
			s.logger.Warn("save group failed", zap.String("group", ch.ID), zap.Error(err))
			res.Failed++
			continue
		}
		res.GroupsSaved++
	}

	res.DurationMs = time.Since(start).Milliseconds()
	s.logger.Info("directory synchronised",
		zap.Int("contacts_saved", res.ContactsSaved),
		zap.Int("contacts_total", res.ContactsTotal),
		zap.Int("groups_saved", res.GroupsSaved),
		zap.Int("groups_total", res.GroupsTotal),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	s.bus.Emit(bus.KindDirectorySynced, res)
	return res, nil
}
