package classifier

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
)

// Result is a successful classification of a user message.
type Result struct {
	Category       string       `json:"category"`
	CategoryID     string       `json:"category_id"`
	Confidence     float64      `json:"confidence"`
	Department     string       `json:"department"`
	TopPredictions []Prediction `json:"top_predictions,omitempty"`
}

// Prediction is one entry of the classifier's ranked output.
type Prediction struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

const defaultDepartment = "Customer Service"

// Classifier decides whether a user message is a complaint and, if the
// cheap keyword prefilter says it might be, asks the classification
// service for a category. Classification is strictly best-effort: any
// failure means "not classified" and the conversation proceeds
// unaugmented.
type Classifier struct {
	baseURL   string
	client    *http.Client
	logger    *slog.Logger
	retryWait time.Duration
}

func New(baseURL string, logger *slog.Logger) *Classifier {
	return &Classifier{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
		retryWait: 500 * time.Millisecond,
	}
}

type classifyRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

type classifyResponse struct {
	Category       string       `json:"category"`
	CategoryID     categoryID   `json:"category_id"`
	Confidence     float64      `json:"confidence"`
	Department     string       `json:"department"`
	TopPredictions []Prediction `json:"top_predictions"`
}

// categoryID tolerates both wire shapes of the classification service's
// category identifier: the service reports the raw model class index as
// a JSON number, while other deployments quote it.
type categoryID string

func (c *categoryID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = categoryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = categoryID(n.String())
	return nil
}

// Matches reports whether text contains any complaint lexicon term.
// It is the cost-control gate in front of the remote call.
func (c *Classifier) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range complaintKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MaybeClassify classifies text when the prefilter matches. It returns
// nil for "not a complaint", "service did not assign a category", and
// every failure mode alike — the caller never needs to distinguish.
func (c *Classifier) MaybeClassify(ctx context.Context, sessionID, text string) *Result {
	if !c.Matches(text) {
		return nil
	}

	resp, err := c.classify(ctx, sessionID, text)
	if err != nil {
		// Transient transport failures get one retry; classification
		// is idempotent so this cannot double-count anything.
		c.logger.Warn("classification call failed, retrying once", "error", err)
		select {
		case <-time.After(c.retryWait):
		case <-ctx.Done():
			c.logger.Warn("classification abandoned", "error", ctx.Err())
			return nil
		}
		resp, err = c.classify(ctx, sessionID, text)
	}
	if err != nil {
		c.logger.Warn("classification unavailable", "error", err)
		return nil
	}

	// An HTTP-success response without a category means the service
	// declined to classify. Not an error.
	if resp.Category == "" {
		return nil
	}

	department := resp.Department
	if department == "" {
		department = defaultDepartment
	}

	c.logger.Info("complaint classified",
		"category", resp.Category,
		"confidence", resp.Confidence,
		"department", department,
	)

	return &Result{
		Category:       resp.Category,
		CategoryID:     string(resp.CategoryID),
		Confidence:     resp.Confidence,
		Department:     department,
		TopPredictions: resp.TopPredictions,
	}
}

func (c *Classifier) classify(ctx context.Context, sessionID, text string) (*classifyResponse, error) {
	body, err := json.Marshal(classifyRequest{Text: text, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classify returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out classifyResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}
