package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when a complaint with the same complaint_id
// already exists. Callers treat it as success: the complaint identifier
// is an idempotency key, so a resubmission changes nothing.
var ErrDuplicate = errors.New("complaint already registered")

type Complaint struct {
	ComplaintID     string    `json:"complaint_id"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email"`
	UserContact     string    `json:"user_contact"`
	UserPNR         string    `json:"user_pnr"`
	TrainNumber     string    `json:"train_number"`
	TrainName       string    `json:"train_name"`
	Coach           string    `json:"coach"`
	Seat            string    `json:"seat"`
	ComplaintText   string    `json:"complaint_text"`
	Category        string    `json:"category"`
	CategoryID      string    `json:"category_id"`
	ConfidenceScore float64   `json:"confidence_score"`
	Department      string    `json:"department"`
	Status          string    `json:"status"`
	Priority        string    `json:"priority"`
	SessionID       string    `json:"session_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// InsertComplaint writes a complaint with status Registered and a
// priority derived from its category.
func (s *Store) InsertComplaint(ctx context.Context, c Complaint) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO complaints (
			complaint_id, user_name, user_email, user_contact, user_pnr,
			train_number, train_name, coach, seat, complaint_text,
			category, category_id, confidence_score, department,
			status, priority, session_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 'Registered', $15, $16)`,
		c.ComplaintID, c.UserName, c.UserEmail, c.UserContact, c.UserPNR,
		c.TrainNumber, c.TrainName, c.Coach, c.Seat, c.ComplaintText,
		c.Category, c.CategoryID, c.ConfidenceScore, c.Department,
		PriorityFor(c.Category), c.SessionID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

// ListFilter narrows and pages a complaint listing.
type ListFilter struct {
	Status   string
	Category string
	Page     int
	PerPage  int
}

// ListComplaints returns a page of complaints, newest first, plus the
// total count matching the filter.
func (s *Store) ListComplaints(ctx context.Context, f ListFilter) ([]Complaint, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}

	where := " WHERE 1=1"
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM complaints"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}

	query := `
		SELECT complaint_id, user_name, user_email, user_contact, user_pnr,
			train_number, train_name, coach, seat, complaint_text,
			category, category_id, confidence_score, department,
			status, priority, coalesce(session_id, ''), created_at
		FROM complaints` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	var out []Complaint
	for rows.Next() {
		var c Complaint
		if err := rows.Scan(
			&c.ComplaintID, &c.UserName, &c.UserEmail, &c.UserContact, &c.UserPNR,
			&c.TrainNumber, &c.TrainName, &c.Coach, &c.Seat, &c.ComplaintText,
			&c.Category, &c.CategoryID, &c.ConfidenceScore, &c.Department,
			&c.Status, &c.Priority, &c.SessionID, &c.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate complaints: %w", err)
	}

	return out, total, nil
}

// ComplaintCount reports the total number of registered complaints.
func (s *Store) ComplaintCount(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM complaints").Scan(&n); err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return n, nil
}
