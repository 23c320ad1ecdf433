package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const jobColumns = `id, org_id, status, priority, retry_count, last_error,
	enqueued_at, started_at, finished_at`

func scanJob(row pgx.Row) (*QueueJob, error) {
	var j QueueJob
	err := row.Scan(&j.ID, &j.OrgID, &j.Status, &j.Priority, &j.RetryCount,
		&j.LastError, &j.EnqueuedAt, &j.StartedAt, &j.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// EnqueueIfAbsent inserts a pending job for the organization unless one is
// already pending or processing. Returns the new job, or nil when skipped.
func (s *Store) EnqueueIfAbsent(ctx context.Context, orgID uuid.UUID, priority float64) (*QueueJob, error) {
	job, err := scanJob(s.pool.QueryRow(ctx,
		`INSERT INTO scrape_queue (org_id, priority)
		 SELECT $1, $2
		 WHERE NOT EXISTS (
		     SELECT 1 FROM scrape_queue
		     WHERE org_id = $1 AND status IN ('pending', 'processing')
		 )
		 RETURNING `+jobColumns,
		orgID, priority,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job, nil
}

// ClaimNext atomically claims the highest-priority pending job, moving it
// to processing. Concurrent claimers never receive the same job. Returns
// nil when the queue is empty.
func (s *Store) ClaimNext(ctx context.Context) (*QueueJob, error) {
	job, err := scanJob(s.pool.QueryRow(ctx,
		`UPDATE scrape_queue
		 SET status = 'processing', started_at = NOW()
		 WHERE id = (
		     SELECT id FROM scrape_queue
		     WHERE status = 'pending'
		     ORDER BY priority DESC, enqueued_at
		     LIMIT 1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+jobColumns,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return job, nil
}

// MarkCompleted finishes a processing job successfully.
func (s *Store) MarkCompleted(ctx context.Context, jobID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE scrape_queue
		 SET status = 'completed', finished_at = NOW(), last_error = NULL
		 WHERE id = $1 AND status = 'processing'`,
		jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// MarkFailed records a failure. Jobs under the retry limit go back to
// pending; at the limit they are failed for good and the returned job
// carries the final retry count so callers can flag the organization.
func (s *Store) MarkFailed(ctx context.Context, jobID uuid.UUID, cause string) (*QueueJob, error) {
	job, err := scanJob(s.pool.QueryRow(ctx,
		`UPDATE scrape_queue
		 SET retry_count = retry_count + 1,
		     last_error = $2,
		     status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		     finished_at = CASE WHEN retry_count + 1 >= $3 THEN NOW() ELSE NULL END,
		     started_at = NULL
		 WHERE id = $1 AND status = 'processing'
		 RETURNING `+jobColumns,
		jobID, cause, MaxRetries,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to record job failure: %w", err)
	}
	return job, nil
}

// ResetStuck returns processing jobs older than cutoff to pending so a
// crashed worker's claims are not lost. Returns the number reset.
func (s *Store) ResetStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scrape_queue
		 SET status = 'pending', started_at = NULL
		 WHERE status = 'processing' AND started_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to reset stuck jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// StuckJob is a processing entry whose worker has gone quiet.
type StuckJob struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	OrgName    string
	StartedAt  *time.Time
	RetryCount int
}

// ListStuck returns processing jobs that started before the cutoff.
func (s *Store) ListStuck(ctx context.Context, olderThan time.Duration) ([]StuckJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT q.id, q.org_id, o.name, q.started_at, q.retry_count
		 FROM scrape_queue q
		 JOIN organizations o ON o.id = q.org_id
		 WHERE q.status = 'processing' AND q.started_at < NOW() - $1::interval
		 ORDER BY q.started_at`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck jobs: %w", err)
	}
	defer rows.Close()

	var stuck []StuckJob
	for rows.Next() {
		var j StuckJob
		if err := rows.Scan(&j.ID, &j.OrgID, &j.OrgName, &j.StartedAt, &j.RetryCount); err != nil {
			return nil, fmt.Errorf("failed to scan stuck job: %w", err)
		}
		stuck = append(stuck, j)
	}
	return stuck, rows.Err()
}

// CountByStatus reports queue depth per status.
func (s *Store) CountByStatus(ctx context.Context) (*QueueStatus, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM scrape_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue: %w", err)
	}
	defer rows.Close()

	var status QueueStatus
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan queue count: %w", err)
		}
		switch name {
		case StatusPending:
			status.Pending = count
		case StatusProcessing:
			status.Processing = count
		case StatusCompleted:
			status.Completed = count
		case StatusFailed:
			status.Failed = count
		}
	}
	return &status, rows.Err()
}

// PruneFinished deletes completed and failed jobs older than cutoff.
func (s *Store) PruneFinished(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM scrape_queue
		 WHERE status IN ('completed', 'failed') AND finished_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to prune queue: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
