// Package complaintsd is the persistence service behind the intake
// orchestrator: it logs chat messages, registers complaints exactly
// once per complaint identifier, and serves listings and daily
// analytics for operators.
package complaintsd

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

	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/events"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/store"
)

const defaultDepartment = "Customer Service"

// Store is the persistence surface the handlers need.
type Store interface {
	InsertComplaint(ctx context.Context, c store.Complaint) error
	InsertMessage(ctx context.Context, m store.Message) error
	ListComplaints(ctx context.Context, f store.ListFilter) ([]store.Complaint, int, error)
	UpdateDailyAnalytics(ctx context.Context) error
	RecentAnalytics(ctx context.Context, days int) ([]store.DailyAnalytics, error)
	ComplaintCount(ctx context.Context) (int, error)
	MessageCount(ctx context.Context) (int, error)
}

type Server struct {
	router *chi.Mux
	store  Store
	events *events.Client
	port   int
	logger *slog.Logger
}

func NewServer(port int, st Store, ev *events.Client, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		store:  st,
		events: ev,
		port:   port,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Post("/message/log", s.logMessage)
	router.Post("/complaint/register", s.registerComplaint)
	router.Get("/complaints", s.listComplaints)
	router.Get("/analytics/daily", s.dailyAnalytics)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("complaintsd starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	complaints, err := s.store.ComplaintCount(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":          "degraded",
			"database_status": "disconnected",
		})
		return
	}
	messages, _ := s.store.MessageCount(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"database_status":  "connected",
		"total_complaints": complaints,
		"total_messages":   messages,
	})
}

func (s *Server) logMessage(w http.ResponseWriter, r *http.Request) {
	var m store.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if m.SessionID == "" || m.Role == "" || m.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id, role and message are required"})
		return
	}

	if err := s.store.InsertMessage(r.Context(), m); err != nil {
		s.logger.Error("message insert failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log message"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) registerComplaint(w http.ResponseWriter, r *http.Request) {
	var c store.Complaint
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if missing := firstMissingField(c); missing != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": missing + " is required"})
		return
	}
	if c.Department == "" {
		c.Department = defaultDepartment
	}

	err := s.store.InsertComplaint(r.Context(), c)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		// The complaint identifier is an idempotency key: a retry of an
		// already-registered complaint is reported as success.
		s.logger.Info("duplicate registration ignored", "complaint_id", c.ComplaintID)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"complaint_id": c.ComplaintID,
			"message":      "Complaint already registered",
		})
		return
	case err != nil:
		s.logger.Error("complaint insert failed", "complaint_id", c.ComplaintID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to register complaint"})
		return
	}

	if err := s.store.UpdateDailyAnalytics(r.Context()); err != nil {
		s.logger.Warn("analytics update failed", "error", err)
	}

	if err := s.events.Publish(events.SubjectComplaintRegistered, map[string]any{
		"complaint_id": c.ComplaintID,
		"category":     c.Category,
		"department":   c.Department,
		"priority":     store.PriorityFor(c.Category),
		"session_id":   c.SessionID,
	}); err != nil {
		s.logger.Warn("failed to publish complaint registered", "error", err)
	}

	s.logger.Info("complaint registered",
		"complaint_id", c.ComplaintID,
		"category", c.Category,
		"department", c.Department,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"complaint_id": c.ComplaintID,
		"message":      "Complaint registered successfully",
	})
}

func (s *Server) listComplaints(w http.ResponseWriter, r *http.Request) {
	f := store.ListFilter{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
		Page:     intParam(r, "page", 1),
		PerPage:  intParam(r, "per_page", 20),
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}

	complaints, total, err := s.store.ListComplaints(r.Context(), f)
	if err != nil {
		s.logger.Error("complaint listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch complaints"})
		return
	}

	pages := (total + f.PerPage - 1) / f.PerPage
	if complaints == nil {
		complaints = []store.Complaint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"complaints":   complaints,
		"total":        total,
		"pages":        pages,
		"current_page": f.Page,
	})
}

func (s *Server) dailyAnalytics(w http.ResponseWriter, r *http.Request) {
	rollups, err := s.store.RecentAnalytics(r.Context(), intParam(r, "days", 7))
	if err != nil {
		s.logger.Error("analytics fetch failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch analytics"})
		return
	}
	if rollups == nil {
		rollups = []store.DailyAnalytics{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analytics": rollups})
}

func firstMissingField(c store.Complaint) string {
	required := []struct {
		name  string
		value string
	}{
		{"complaint_id", c.ComplaintID},
		{"user_name", c.UserName},
		{"user_email", c.UserEmail},
		{"user_contact", c.UserContact},
		{"user_pnr", c.UserPNR},
		{"train_number", c.TrainNumber},
		{"train_name", c.TrainName},
		{"complaint_text", c.ComplaintText},
		{"category", c.Category},
	}
	for _, f := range required {
		if f.value == "" {
			return f.name
		}
	}
	return ""
}

func intParam(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
