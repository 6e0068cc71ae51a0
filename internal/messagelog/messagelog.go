// Package messagelog relays each conversation turn to the persistence
// service. The relay is strictly best-effort: a failed or slow log
// call must never block or fail the conversation chain that owns it.
package messagelog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/classifier"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/transcript"
)

type Logger struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Logger {
	return &Logger{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

type logRequest struct {
	SessionID                string   `json:"session_id"`
	Role                     string   `json:"role"`
	Message                  string   `json:"message"`
	WasClassified            bool     `json:"was_classified"`
	ClassifiedCategory       string   `json:"classified_category,omitempty"`
	ClassificationConfidence *float64 `json:"classification_confidence,omitempty"`
}

// Log relays one turn. cls is the classification attached to the
// submission, or nil. Errors are swallowed after an operator-visible
// diagnostic.
func (l *Logger) Log(ctx context.Context, sessionID string, role transcript.Role, message string, cls *classifier.Result) {
	payload := logRequest{
		SessionID:     sessionID,
		Role:          string(role),
		Message:       message,
		WasClassified: cls != nil,
	}
	if cls != nil {
		payload.ClassifiedCategory = cls.Category
		conf := cls.Confidence
		payload.ClassificationConfidence = &conf
	}

	body, err := json.Marshal(payload)
	if err != nil {
		l.logger.Warn("message log marshal failed", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/message/log", bytes.NewReader(body))
	if err != nil {
		l.logger.Warn("message log request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Warn("message log call failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		l.logger.Warn("message log rejected", "status", resp.StatusCode)
	}
}
