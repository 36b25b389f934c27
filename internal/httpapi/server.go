// Package httpapi serves the bot's HTTP API and WebSocket event feed.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/engine"
	"github.com/matheus3301/wppbot/internal/store"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Engine is the part of *engine.Engine the HTTP API uses.
type Engine interface {
	State() (string, string)
	Stats() engine.Snapshot
	SubmitOutbound(ctx context.Context, target, content string) (engine.MessageHandle, error)
	ListMessages(ctx context.Context, f store.MessageFilter) ([]store.Message, error)
	ListDirectory(ctx context.Context) ([]store.Contact, error)
}

// Server is the HTTP front end.
type Server struct {
	engine Engine
	bus    *bus.Bus
	logger *zap.Logger
	srv    *http.Server
}

// New creates a server that will listen on addr.
func New(addr string, e Engine, b *bus.Bus, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{engine: e, bus: b, logger: logger}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/messages/send", s.sendMessage).Methods(http.MethodPost)
	api.HandleFunc("/messages", s.listMessages).Methods(http.MethodGet)
	api.HandleFunc("/contacts", s.listContacts).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.stats).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.events).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(s.notFound)

	return alice.New(s.recoverer, s.requestLogger).Then(r)
}

// Start serves until Stop. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("HTTP server starting", zap.String("addr", lis.Addr().String()))
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server stopping")
	return s.srv.Shutdown(ctx)
}
