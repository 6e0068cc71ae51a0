// Package api exposes the conversation-intake HTTP surface. It is a
// thin shell: every conversation rule lives in the orchestrator.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/orchestrator"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/transcript"
)

type Server struct {
	router *chi.Mux
	orch   *orchestrator.Orchestrator
	port   int
	logger *slog.Logger
}

func NewServer(port int, orch *orchestrator.Orchestrator, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		orch:   orch,
		port:   port,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Post("/api/v1/sessions", s.createSession)
	router.Post("/api/v1/sessions/{sessionID}/messages", s.postMessage)
	router.Get("/api/v1/sessions/{sessionID}/transcript", s.getTranscript)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.orch.StartSession()
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": sess.ID,
		"greeting":   orchestrator.Greeting,
	})
}

type postMessageRequest struct {
	Message string `json:"message"`
}

type turnPayload struct {
	Role    string `json:"role"`
	Text    string `json:"text"`
	IsError bool   `json:"is_error,omitempty"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.orch.Session(chi.URLParam(r, "sessionID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown session"})
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty message"})
		return
	}

	reply := s.orch.HandleUserMessage(r.Context(), sess, req.Message)
	writeJSON(w, http.StatusOK, map[string]any{
		"reply": toPayload(reply),
	})
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.orch.Session(chi.URLParam(r, "sessionID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown session"})
		return
	}

	visible := sess.Transcript()
	turns := make([]turnPayload, len(visible))
	for i, t := range visible {
		turns[i] = toPayload(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"turns":      turns,
	})
}

func toPayload(t transcript.Turn) turnPayload {
	return turnPayload{
		Role:    string(t.Role),
		Text:    t.Text,
		IsError: t.IsError,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
