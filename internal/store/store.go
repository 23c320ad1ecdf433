// Package store provides PostgreSQL persistence for tracked organizations,
// the scrape work queue, scrape history and saved jobs.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS organizations (
    id                        UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name                      TEXT NOT NULL,
    careers_url               TEXT NOT NULL UNIQUE,
    rank                      INT NOT NULL CHECK (rank BETWEEN 1 AND 100),
    is_tracking               BOOLEAN NOT NULL DEFAULT TRUE,
    is_problematic            BOOLEAN NOT NULL DEFAULT FALSE,
    last_scraped_at           TIMESTAMPTZ,
    last_successful_scrape_at TIMESTAMPTZ,
    created_at                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at                TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS scrape_queue (
    id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    org_id       UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
    status       TEXT NOT NULL DEFAULT 'pending'
                 CHECK (status IN ('pending', 'processing', 'completed', 'failed')),
    priority     DOUBLE PRECISION NOT NULL DEFAULT 0,
    retry_count  INT NOT NULL DEFAULT 0,
    last_error   TEXT,
    enqueued_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    started_at   TIMESTAMPTZ,
    finished_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS scrape_queue_claim_idx
    ON scrape_queue (status, priority DESC, enqueued_at);

CREATE TABLE IF NOT EXISTS scrape_history (
    org_id     UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL,
    links      JSONB NOT NULL,
    scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (org_id, user_id)
);

CREATE TABLE IF NOT EXISTS saved_jobs (
    id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    org_id               UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
    user_id              TEXT NOT NULL,
    url                  TEXT NOT NULL,
    title                TEXT NOT NULL,
    suitability_score    INT NOT NULL CHECK (suitability_score BETWEEN 0 AND 100),
    good_fit_reasons     JSONB,
    consideration_points JSONB,
    stretch_goals        JSONB,
    location             TEXT,
    tech_stack           JSONB,
    salary               TEXT,
    visa_sponsorship     BOOLEAN,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS saved_jobs_user_url_idx ON saved_jobs (user_id, url);

CREATE TABLE IF NOT EXISTS token_usage_log (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    process_id    UUID NOT NULL,
    user_id       TEXT,
    org_id        UUID,
    operation     TEXT NOT NULL,
    model         TEXT NOT NULL,
    total_tokens  BIGINT NOT NULL,
    calls         INT NOT NULL,
    est_cost      DOUBLE PRECISION,
    recorded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
