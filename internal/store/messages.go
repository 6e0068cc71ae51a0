package store

import (
	"context"
	"fmt"
	"time"
)

type Message struct {
	SessionID                string    `json:"session_id"`
	Role                     string    `json:"role"`
	Message                  string    `json:"message"`
	WasClassified            bool      `json:"was_classified"`
	ClassifiedCategory       *string   `json:"classified_category,omitempty"`
	ClassificationConfidence *float64  `json:"classification_confidence,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
}

func (s *Store) InsertMessage(ctx context.Context, m Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (session_id, role, message, was_classified, classified_category, classification_confidence)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.SessionID, m.Role, m.Message, m.WasClassified, m.ClassifiedCategory, m.ClassificationConfidence,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// MessageCount reports the total number of logged chat messages.
func (s *Store) MessageCount(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM chat_messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}
