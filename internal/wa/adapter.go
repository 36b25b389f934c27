package wa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/wppbot/internal/engine"
	"github.com/matheus3301/wppbot/internal/logging"
	"github.com/matheus3301/wppbot/internal/session"
	"github.com/patrickmn/go-cache"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3"
)

const defaultCacheTTL = 10 * time.Minute

// Options tunes outbound pacing and metadata caching.
type Options struct {
	RatePerSecond float64
	Burst         int
	CacheTTL      time.Duration
}

// Adapter wraps the whatsmeow client and implements engine.Transport.
type Adapter struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	limiter   *rate.Limiter
	meta      *cache.Cache
	logger    *zap.Logger
	session   string
}

var _ engine.Transport = (*Adapter)(nil)

// NewAdapter opens the session's device store and creates a client for it.
func NewAdapter(ctx context.Context, sessionName string, opts Options, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	wastore.SetOSInfo("WPPBot", [3]uint32{0, 1, 0})

	dbPath := session.SessionDBPath(sessionName)
	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", dbPath),
		logging.NewWhatsmeowLogger(logger, "sqlstore"),
	)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device store: %w", err)
	}

	a := &Adapter{
		client:    whatsmeow.NewClient(deviceStore, logging.NewWhatsmeowLogger(logger, "whatsmeow")),
		container: container,
		limiter:   newLimiter(opts),
		meta:      newMetaCache(opts),
		logger:    logger,
		session:   sessionName,
	}
	a.client.AddEventHandler(a.invalidate)
	return a, nil
}

func newLimiter(opts Options) *rate.Limiter {
	if opts.RatePerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
}

func newMetaCache(opts Options) *cache.Cache {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return cache.New(ttl, 2*ttl)
}

// IsLoggedIn returns whether the adapter has valid credentials.
func (a *Adapter) IsLoggedIn() bool {
	return a.client.Store.ID != nil
}

// Connect initiates the WhatsApp connection.
func (a *Adapter) Connect() error {
	a.logger.Info("connecting to WhatsApp")
	return a.client.Connect()
}

// Disconnect terminates the WhatsApp connection.
func (a *Adapter) Disconnect() {
	a.logger.Info("disconnecting from WhatsApp")
	a.client.Disconnect()
}

// Close disconnects and releases the device store.
func (a *Adapter) Close() error {
	a.client.Disconnect()
	return a.container.Close()
}

// RegisterEventHandler adds a handler for whatsmeow events.
func (a *Adapter) RegisterEventHandler(handler whatsmeow.EventHandler) {
	a.client.AddEventHandler(handler)
}

// Send delivers a text message. Calls are paced by the adapter's limiter.
func (a *Adapter) Send(ctx context.Context, to, content string) (engine.MessageHandle, error) {
	jid, err := parseAddress(to)
	if err != nil {
		return engine.MessageHandle{}, err
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return engine.MessageHandle{}, fmt.Errorf("wait for send slot: %w", err)
	}
	resp, err := a.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(content),
	})
	if err != nil {
		return engine.MessageHandle{}, fmt.Errorf("send message: %w", err)
	}
	return engine.MessageHandle{ID: resp.ID, To: jid.String(), Timestamp: resp.Timestamp}, nil
}

// ListContacts returns every contact known to the device store. Contacts
// outside the phone-number server come back with an empty address.
func (a *Adapter) ListContacts(ctx context.Context) ([]engine.Contact, error) {
	all, err := a.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	contacts := make([]engine.Contact, 0, len(all))
	for jid, info := range all {
		c := contactFromInfo(jid, info)
		if c.Address != "" {
			a.meta.SetDefault(contactKey(c.Address), c)
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// ListChats returns the groups the account belongs to.
func (a *Adapter) ListChats(ctx context.Context) ([]engine.Chat, error) {
	groups, err := a.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("get joined groups: %w", err)
	}
	chats := make([]engine.Chat, 0, len(groups))
	for _, g := range groups {
		c := chatFromGroup(g)
		a.meta.SetDefault(chatKey(c.ID), c)
		chats = append(chats, c)
	}
	return chats, nil
}

// LookupContact resolves a sender address to its directory entry.
func (a *Adapter) LookupContact(ctx context.Context, address string) (engine.Contact, error) {
	jid, err := parseAddress(address)
	if err != nil {
		return engine.Contact{}, err
	}
	jid = jid.ToNonAD()
	if v, ok := a.meta.Get(contactKey(jid.User)); ok {
		return v.(engine.Contact), nil
	}
	info, err := a.client.Store.Contacts.GetContact(ctx, jid)
	if err != nil {
		return engine.Contact{}, fmt.Errorf("get contact: %w", err)
	}
	if !info.Found {
		return engine.Contact{}, fmt.Errorf("contact %s not found", jid.User)
	}
	c := contactFromInfo(jid, info)
	a.meta.SetDefault(contactKey(jid.User), c)
	return c, nil
}

// LookupChat resolves a chat id to its metadata. Group metadata is fetched
// from the server; direct chats are named after the contact.
func (a *Adapter) LookupChat(ctx context.Context, chatID string) (engine.Chat, error) {
	jid, err := parseAddress(chatID)
	if err != nil {
		return engine.Chat{}, err
	}
	jid = jid.ToNonAD()
	key := chatKey(jid.String())
	if v, ok := a.meta.Get(key); ok {
		return v.(engine.Chat), nil
	}

	var c engine.Chat
	if jid.Server == types.GroupServer {
		info, err := a.client.GetGroupInfo(ctx, jid)
		if err != nil {
			return engine.Chat{}, fmt.Errorf("get group info: %w", err)
		}
		c = chatFromGroup(info)
	} else {
		c = engine.Chat{ID: jid.String()}
		if contact, err := a.LookupContact(ctx, jid.String()); err == nil {
			c.Name = contact.Name
		}
	}
	a.meta.SetDefault(key, c)
	return c, nil
}

// OwnAddress returns the paired phone number, or "" before pairing.
func (a *Adapter) OwnAddress() string {
	if a.client.Store.ID == nil {
		return ""
	}
	return a.client.Store.ID.User
}

// invalidate drops cached metadata the server reports as changed.
func (a *Adapter) invalidate(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.GroupInfo:
		a.meta.Delete(chatKey(evt.JID.String()))
	case *events.Contact:
		a.meta.Delete(contactKey(evt.JID.User))
		a.meta.Delete(chatKey(evt.JID.ToNonAD().String()))
	case *events.PushName:
		a.meta.Delete(contactKey(evt.JID.User))
	}
}

func contactKey(user string) string { return "contact:" + user }
func chatKey(jid string) string     { return "chat:" + jid }

var errEmptyAddress = errors.New("empty address")

// parseAddress accepts a full JID or a bare phone number.
func parseAddress(s string) (types.JID, error) {
	if s == "" {
		return types.JID{}, errEmptyAddress
	}
	if !strings.Contains(s, "@") {
		return types.NewJID(s, types.DefaultUserServer), nil
	}
	jid, err := types.ParseJID(s)
	if err != nil {
		return types.JID{}, fmt.Errorf("parse JID: %w", err)
	}
	return jid, nil
}

func contactFromInfo(jid types.JID, info types.ContactInfo) engine.Contact {
	c := engine.Contact{Name: contactName(info)}
	if jid.Server == types.DefaultUserServer {
		c.Address = jid.User
	}
	return c
}

func contactName(info types.ContactInfo) string {
	for _, n := range []string{info.FullName, info.FirstName, info.PushName, info.BusinessName} {
		if n != "" {
			return n
		}
	}
	return ""
}

func chatFromGroup(g *types.GroupInfo) engine.Chat {
	return engine.Chat{
		ID:           g.JID.String(),
		Name:         g.Name,
		Description:  g.Topic,
		IsGroup:      true,
		Participants: len(g.Participants),
	}
}
