package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mossview/concierge/internal/dialogue"
	"github.com/mossview/concierge/internal/store"
)

// Handler is the dialogue pipeline behind the chat endpoint.
type Handler interface {
	Handle(ctx context.Context, sessionID, message string) (dialogue.Reply, error)
}

type Server struct {
	router *chi.Mux
	port   int
	chat   Handler
	turns  store.Store
}

// ChatRequest is the inbound chat payload. A missing session_id starts a new
// session; the server generates one and returns it.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID  string  `json:"session_id"`
	Response   string  `json:"response"`
	Source     string  `json:"source"`
	Action     string  `json:"action"`
	MatchScore float64 `json:"match_score,omitempty"`
}

func NewServer(port int, apiToken string, chat Handler, turns store.Store) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		chat:   chat,
		turns:  turns,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/sessions/{sessionID}/history", s.handleHistory)
		r.With(BearerAuthMiddleware(apiToken)).Delete("/sessions/{sessionID}/history", s.handlePurge)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	reply, err := s.chat.Handle(r.Context(), req.SessionID, req.Message)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID:  reply.SessionID,
		Response:   reply.Response,
		Source:     reply.Source,
		Action:     reply.Action,
		MatchScore: reply.MatchScore,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	turns, err := s.turns.History(r.Context(), sessionID, limit)
	if err != nil {
		slog.Error("history read failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}
	if turns == nil {
		turns = []store.Turn{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      turns,
	})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.turns.Purge(r.Context(), sessionID); err != nil {
		slog.Error("purge failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "purge unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"cleared":    true,
	})
}

// BearerAuthMiddleware requires "Authorization: Bearer <token>" when a token
// is configured. An empty token leaves the route open.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func statusFor(err error) (int, string) {
	var derr *dialogue.Error
	if errors.As(err, &derr) {
		switch derr.Code {
		case dialogue.ErrorInvalidInput:
			return http.StatusBadRequest, derr.Reason
		case dialogue.ErrorStoreUnavailable:
			return http.StatusServiceUnavailable, "conversation store unavailable"
		case dialogue.ErrorUpstream:
			return http.StatusBadGateway, "upstream failure"
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
