package api

import (
	"context"

	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/engine"
	"github.com/matheus3301/wppbot/internal/store"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Engine is the part of *engine.Engine the control API drives.
type Engine interface {
	State() (string, string)
	OwnAddress() string
	Stats() engine.Snapshot
	SubmitOutbound(ctx context.Context, target, content string) (engine.MessageHandle, error)
	ListDirectory(ctx context.Context) ([]store.Contact, error)
	UpdateContact(ctx context.Context, number string, u store.ContactUpdate) (bool, error)
	ListGroups(ctx context.Context) ([]store.Group, error)
	SyncDirectory(ctx context.Context) (engine.SyncResult, error)
	ListMessages(ctx context.Context, f store.MessageFilter) ([]store.Message, error)
	SearchMessages(ctx context.Context, query, chatID string, limit int) ([]store.SearchResult, error)
	ListTemplates(ctx context.Context) ([]store.Template, error)
	SaveTemplate(ctx context.Context, t *store.Template) error
	DeleteTemplate(ctx context.Context, name string) (bool, error)
	ListConfig(ctx context.Context) ([]store.ConfigEntry, error)
	SetConfig(ctx context.Context, key, value string) error
}

// BotServer implements BotServiceServer on top of the engine.
type BotServer struct {
	session string
	engine  Engine
	bus     *bus.Bus
	logger  *zap.Logger
}

var _ BotServiceServer = (*BotServer)(nil)

// NewBotServer creates the control API for one session.
func NewBotServer(sessionName string, e Engine, b *bus.Bus, logger *zap.Logger) *BotServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotServer{session: sessionName, engine: e, bus: b, logger: logger}
}

func (s *BotServer) GetStatus(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	state, code := s.engine.State()
	stats := s.engine.Stats()
	return reply(StatusResponse{
		Session:     s.session,
		State:       state,
		Connected:   stats.Connected,
		PairingCode: code,
		OwnAddress:  s.engine.OwnAddress(),
		Stats:       stats,
	})
}

func (s *BotServer) SendText(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SendRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	h, err := s.engine.SubmitOutbound(ctx, req.To, req.Message)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(SendResponse{ID: h.ID, To: h.To, Timestamp: h.Timestamp.UnixMilli()})
}

func (s *BotServer) ListContacts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	contacts, err := s.engine.ListDirectory(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(ContactsResponse{Contacts: contacts})
}

func (s *BotServer) UpdateContact(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req UpdateContactRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if req.Number == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "number is required")
	}
	ok, err := s.engine.UpdateContact(ctx, req.Number, store.ContactUpdate{
		Blocked:  req.Blocked,
		Favorite: req.Favorite,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(UpdateContactResponse{Updated: ok})
}

func (s *BotServer) ListGroups(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	groups, err := s.engine.ListGroups(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(GroupsResponse{Groups: groups})
}

func (s *BotServer) SyncDirectory(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.engine.SyncDirectory(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(res)
}

func (s *BotServer) ListMessages(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListMessagesRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	msgs, err := s.engine.ListMessages(ctx, store.MessageFilter{
		ChatID:    req.ChatID,
		Direction: req.Direction,
		Before:    req.Before,
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(MessagesResponse{Messages: msgs})
}

func (s *BotServer) SearchMessages(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SearchRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	results, err := s.engine.SearchMessages(ctx, req.Query, req.ChatID, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(SearchResponse{Results: results})
}

func (s *BotServer) ListTemplates(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	templates, err := s.engine.ListTemplates(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(TemplatesResponse{Templates: templates})
}

func (s *BotServer) SaveTemplate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req TemplateRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	t := &store.Template{Name: req.Name, Content: req.Content, Category: req.Category}
	if err := s.engine.SaveTemplate(ctx, t); err != nil {
		return nil, toStatus(err)
	}
	return reply(t)
}

func (s *BotServer) DeleteTemplate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req TemplateRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	ok, err := s.engine.DeleteTemplate(ctx, req.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(DeleteTemplateResponse{Deleted: ok})
}

func (s *BotServer) ListConfig(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	entries, err := s.engine.ListConfig(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(ConfigResponse{Entries: entries})
}

func (s *BotServer) SetConfig(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ConfigRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if err := s.engine.SetConfig(ctx, req.Key, req.Value); err != nil {
		return nil, toStatus(err)
	}
	return reply(req)
}

// WatchEvents streams bus events until the client goes away.
func (s *BotServer) WatchEvents(in *structpb.Struct, stream EventStream) error {
	var req WatchRequest
	if err := decodeRequest(in, &req); err != nil {
		return err
	}
	ch, unsub := s.bus.Subscribe(req.Prefix, 256)
	defer unsub()

	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			msg, err := toStruct(evt)
			if err != nil {
				s.logger.Warn("encode event failed", zap.String("kind", evt.Kind), zap.Error(err))
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}
