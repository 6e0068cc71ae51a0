package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type DailyAnalytics struct {
	Date             time.Time      `json:"date"`
	TotalComplaints  int            `json:"total_complaints"`
	CategoryCounts   map[string]int `json:"category_counts"`
	DepartmentCounts map[string]int `json:"department_counts"`
	RegisteredCount  int            `json:"registered_count"`
	ResolvedCount    int            `json:"resolved_count"`
	AvgConfidence    float64        `json:"avg_confidence"`
}

// UpdateDailyAnalytics recomputes today's rollup from the complaints
// registered since midnight. It runs after every registration; losing
// a run is harmless since the next one recomputes from scratch.
func (s *Store) UpdateDailyAnalytics(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		WITH today AS (
			SELECT category, department, status, confidence_score
			FROM complaints
			WHERE created_at >= CURRENT_DATE
		),
		cat AS (
			SELECT coalesce(jsonb_object_agg(category, n), '{}'::jsonb) AS counts
			FROM (SELECT category, count(*) AS n FROM today GROUP BY category) c
		),
		dep AS (
			SELECT coalesce(jsonb_object_agg(department, n), '{}'::jsonb) AS counts
			FROM (SELECT department, count(*) AS n FROM today GROUP BY department) d
		)
		INSERT INTO analytics (
			date, total_complaints, category_counts, department_counts,
			registered_count, resolved_count, avg_confidence_score
		)
		SELECT CURRENT_DATE,
			(SELECT count(*) FROM today),
			(SELECT counts FROM cat),
			(SELECT counts FROM dep),
			(SELECT count(*) FROM today WHERE status = 'Registered'),
			(SELECT count(*) FROM today WHERE status = 'Resolved'),
			coalesce((SELECT avg(confidence_score) FROM today), 0)
		ON CONFLICT (date) DO UPDATE SET
			total_complaints = EXCLUDED.total_complaints,
			category_counts = EXCLUDED.category_counts,
			department_counts = EXCLUDED.department_counts,
			registered_count = EXCLUDED.registered_count,
			resolved_count = EXCLUDED.resolved_count,
			avg_confidence_score = EXCLUDED.avg_confidence_score`)
	if err != nil {
		return fmt.Errorf("update analytics: %w", err)
	}
	return nil
}

// RecentAnalytics returns up to days of rollups, newest first.
func (s *Store) RecentAnalytics(ctx context.Context, days int) ([]DailyAnalytics, error) {
	if days < 1 {
		days = 7
	}

	rows, err := s.pool.Query(ctx, `
		SELECT date, total_complaints, category_counts, department_counts,
			registered_count, resolved_count, avg_confidence_score
		FROM analytics
		ORDER BY date DESC
		LIMIT $1`, days)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer rows.Close()

	var out []DailyAnalytics
	for rows.Next() {
		var a DailyAnalytics
		var catJSON, depJSON []byte
		if err := rows.Scan(
			&a.Date, &a.TotalComplaints, &catJSON, &depJSON,
			&a.RegisteredCount, &a.ResolvedCount, &a.AvgConfidence,
		); err != nil {
			return nil, fmt.Errorf("scan analytics: %w", err)
		}
		if err := json.Unmarshal(catJSON, &a.CategoryCounts); err != nil {
			return nil, fmt.Errorf("parse category counts: %w", err)
		}
		if err := json.Unmarshal(depJSON, &a.DepartmentCounts); err != nil {
			return nil, fmt.Errorf("parse department counts: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analytics: %w", err)
	}
	return out, nil
}
