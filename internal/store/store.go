package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS complaints (
			id BIGSERIAL PRIMARY KEY,
			complaint_id TEXT UNIQUE NOT NULL,
			user_name TEXT NOT NULL,
			user_email TEXT NOT NULL,
			user_contact TEXT NOT NULL,
			user_pnr TEXT NOT NULL,
			train_number TEXT NOT NULL,
			train_name TEXT NOT NULL,
			coach TEXT NOT NULL DEFAULT '',
			seat TEXT NOT NULL DEFAULT '',
			complaint_text TEXT NOT NULL,
			category TEXT NOT NULL,
			category_id TEXT NOT NULL DEFAULT '',
			confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			department TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Registered',
			priority TEXT NOT NULL DEFAULT 'Medium',
			session_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_category ON complaints (category)`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints (status)`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_created_at ON complaints (created_at)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			message TEXT NOT NULL,
			was_classified BOOLEAN NOT NULL DEFAULT false,
			classified_category TEXT,
			classification_confidence DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages (session_id)`,
		`CREATE TABLE IF NOT EXISTS analytics (
			id BIGSERIAL PRIMARY KEY,
			date DATE UNIQUE NOT NULL,
			total_complaints INT NOT NULL DEFAULT 0,
			category_counts JSONB NOT NULL DEFAULT '{}',
			department_counts JSONB NOT NULL DEFAULT '{}',
			registered_count INT NOT NULL DEFAULT 0,
			resolved_count INT NOT NULL DEFAULT 0,
			avg_confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
