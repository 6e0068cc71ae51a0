package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/classifier"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/extractor"
)

// Record is the payload submitted to the complaint service: extracted
// fields merged with the pending classification snapshot and the
// session id.
type Record struct {
	ComplaintID     string  `json:"complaint_id"`
	UserName        string  `json:"user_name"`
	UserEmail       string  `json:"user_email"`
	UserContact     string  `json:"user_contact"`
	UserPNR         string  `json:"user_pnr"`
	TrainNumber     string  `json:"train_number"`
	TrainName       string  `json:"train_name"`
	Coach           string  `json:"coach,omitempty"`
	Seat            string  `json:"seat,omitempty"`
	ComplaintText   string  `json:"complaint_text"`
	Category        string  `json:"category"`
	CategoryID      string  `json:"category_id"`
	ConfidenceScore float64 `json:"confidence_score"`
	Department      string  `json:"department"`
	SessionID       string  `json:"session_id"`
}

// Merge assembles the submission payload from its three sources.
func Merge(d extractor.Details, complaintText string, cls classifier.Result, sessionID string) Record {
	return Record{
		ComplaintID:     d.ComplaintID,
		UserName:        d.UserName,
		UserEmail:       d.UserEmail,
		UserContact:     d.UserContact,
		UserPNR:         d.UserPNR,
		TrainNumber:     d.TrainNumber,
		TrainName:       d.TrainName,
		Coach:           d.Coach,
		Seat:            d.Seat,
		ComplaintText:   complaintText,
		Category:        cls.Category,
		CategoryID:      cls.CategoryID,
		ConfidenceScore: cls.Confidence,
		Department:      cls.Department,
		SessionID:       sessionID,
	}
}

// Registrar submits complaint records to the persistence service.
// The complaint identifier doubles as an idempotency key so a retry of
// a failed submission can never create a duplicate record.
type Registrar struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Registrar {
	return &Registrar{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Submit sends the record. Failure is operator-visible only; the
// caller decides nothing based on it beyond logging, and must clear
// its pending state either way.
func (r *Registrar) Submit(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/complaint/register", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", rec.ComplaintID)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("register call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("register returned %d: %s", resp.StatusCode, string(respBody))
	}

	r.logger.Info("complaint registered",
		"complaint_id", rec.ComplaintID,
		"category", rec.Category,
		"department", rec.Department,
	)
	return nil
}
