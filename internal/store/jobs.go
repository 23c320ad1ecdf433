package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SavedJobExists reports whether the user already has a job saved under
// the same URL, or the same URL and title.
func (s *Store) SavedJobExists(ctx context.Context, userID, url, title string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM saved_jobs
		     WHERE user_id = $1 AND (url = $2 OR (url = $2 AND title = $3))
		 )`,
		userID, url, title,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check saved job: %w", err)
	}
	return exists, nil
}

// InsertSavedJob persists one analyzed job for the user.
func (s *Store) InsertSavedJob(ctx context.Context, job *SavedJob) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO saved_jobs (org_id, user_id, url, title, suitability_score,
		     good_fit_reasons, consideration_points, stretch_goals,
		     location, tech_stack, salary, visa_sponsorship)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		job.OrgID, job.UserID, job.URL, job.Title, job.SuitabilityScore,
		job.GoodFitReasons, job.ConsiderationPoints, job.StretchGoals,
		job.Location, job.TechStack, job.Salary, job.VisaSponsorship,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert saved job: %w", err)
	}
	return id, nil
}

// ListSavedJobs returns the user's saved jobs, best score first.
func (s *Store) ListSavedJobs(ctx context.Context, userID string, limit int) ([]SavedJob, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, org_id, user_id, url, title, suitability_score,
		     good_fit_reasons, consideration_points, stretch_goals,
		     location, tech_stack, salary, visa_sponsorship, created_at
		 FROM saved_jobs
		 WHERE user_id = $1
		 ORDER BY suitability_score DESC, created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved jobs: %w", err)
	}
	defer rows.Close()

	var jobs []SavedJob
	for rows.Next() {
		var j SavedJob
		err := rows.Scan(&j.ID, &j.OrgID, &j.UserID, &j.URL, &j.Title, &j.SuitabilityScore,
			&j.GoodFitReasons, &j.ConsiderationPoints, &j.StretchGoals,
			&j.Location, &j.TechStack, &j.Salary, &j.VisaSponsorship, &j.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// TokenUsageRow is one usage accounting entry: a single model call,
// tagged with the operation, the process that made it and the
// organization it was spent on (nil when none applies).
type TokenUsageRow struct {
	ProcessID   uuid.UUID
	UserID      string
	OrgID       *uuid.UUID
	Operation   string
	Model       string
	TotalTokens int64
	Calls       int
	EstCost     float64
}

// AppendTokenUsage records one usage accounting row. Best effort, the
// caller may ignore the error.
func (s *Store) AppendTokenUsage(ctx context.Context, row *TokenUsageRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO token_usage_log (process_id, user_id, org_id, operation, model, total_tokens, calls, est_cost)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row.ProcessID, row.UserID, row.OrgID, row.Operation, row.Model,
		row.TotalTokens, row.Calls, row.EstCost)
	if err != nil {
		return fmt.Errorf("failed to append token usage: %w", err)
	}
	return nil
}
