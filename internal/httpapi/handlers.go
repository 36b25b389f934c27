package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/matheus3301/wppbot/internal/engine"
	"github.com/matheus3301/wppbot/internal/store"
	"go.uber.org/zap"
)

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *Server) respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, code int, message string, err error) {
	body := map[string]any{"success": false, "message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	s.respond(w, code, body)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	state, _ := s.engine.State()
	s.respond(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "API WhatsApp Bot opérationnelle !",
		"state":     state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "Requête invalide", err)
		return
	}
	if req.To == "" || req.Message == "" {
		s.fail(w, http.StatusBadRequest, "Paramètres manquants: to, message", nil)
		return
	}

	h, err := s.engine.SubmitOutbound(r.Context(), req.To, req.Message)
	var terr *engine.TransportError
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrNotConnected):
		s.fail(w, http.StatusServiceUnavailable, "WhatsApp non connecté", nil)
		return
	case errors.As(err, &terr):
		s.fail(w, http.StatusBadGateway, "Erreur lors de l'envoi du message", err)
		return
	case engine.IsInvalidInput(err):
		s.fail(w, http.StatusBadRequest, "Paramètres invalides", err)
		return
	default:
		s.fail(w, http.StatusInternalServerError, "Erreur interne", err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Message envoyé avec succès",
		"messageId": h.ID,
		"to":        h.To,
		"timestamp": h.Timestamp.UnixMilli(),
	})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.MessageFilter{
		ChatID:    q.Get("chat_id"),
		Direction: q.Get("direction"),
	}
	var err error
	if v := q.Get("before"); v != "" {
		if f.Before, err = strconv.ParseInt(v, 10, 64); err != nil {
			s.fail(w, http.StatusBadRequest, "Paramètre before invalide", err)
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			s.fail(w, http.StatusBadRequest, "Paramètre limit invalide", err)
			return
		}
	}

	msgs, err := s.engine.ListMessages(r.Context(), f)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "Erreur lors de la récupération des messages", err)
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	s.respond(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": msgs,
		"total":    len(msgs),
	})
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.engine.ListDirectory(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "Erreur lors de la récupération des contacts", err)
		return
	}
	if contacts == nil {
		contacts = []store.Contact{}
	}
	s.respond(w, http.StatusOK, map[string]any{
		"success":  true,
		"contacts": contacts,
		"total":    len(contacts),
	})
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   s.engine.Stats(),
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusNotFound, map[string]any{
		"success": false,
		"message": "Route non trouvée",
		"path":    r.URL.Path,
	})
}
