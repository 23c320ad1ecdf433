package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const orgColumns = `id, name, careers_url, rank, is_tracking, is_problematic,
	last_scraped_at, last_successful_scrape_at, created_at, updated_at`

func scanOrg(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.CareersURL, &o.Rank, &o.IsTracking, &o.IsProblematic,
		&o.LastScrapedAt, &o.LastSuccessfulScrapeAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpsertOrganization creates or updates an organization keyed by careers URL.
func (s *Store) UpsertOrganization(ctx context.Context, name, careersURL string, rank int) (*Organization, error) {
	org, err := scanOrg(s.pool.QueryRow(ctx,
		`INSERT INTO organizations (name, careers_url, rank)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (careers_url) DO UPDATE SET name = $1, rank = $3, updated_at = NOW()
		 RETURNING `+orgColumns,
		name, careersURL, rank,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert organization: %w", err)
	}
	return org, nil
}

// GetOrganization retrieves an organization by ID. Returns nil when absent.
func (s *Store) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	org, err := scanOrg(s.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// FindOrganizationByName looks an organization up by case-insensitive
// name. Returns nil when absent.
func (s *Store) FindOrganizationByName(ctx context.Context, name string) (*Organization, error) {
	org, err := scanOrg(s.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE LOWER(name) = LOWER($1)`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

// ListTracked returns organizations that are actively tracked and not
// flagged problematic.
func (s *Store) ListTracked(ctx context.Context) ([]Organization, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orgColumns+` FROM organizations
		 WHERE is_tracking AND NOT is_problematic
		 ORDER BY rank DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

// StampScraped records a scrape attempt. successful also advances the
// last successful scrape timestamp.
func (s *Store) StampScraped(ctx context.Context, id uuid.UUID, at time.Time, successful bool) error {
	var err error
	if successful {
		_, err = s.pool.Exec(ctx,
			`UPDATE organizations
			 SET last_scraped_at = $2, last_successful_scrape_at = $2, updated_at = NOW()
			 WHERE id = $1`, id, at)
	} else {
		_, err = s.pool.Exec(ctx,
			`UPDATE organizations
			 SET last_scraped_at = $2, updated_at = NOW()
			 WHERE id = $1`, id, at)
	}
	if err != nil {
		return fmt.Errorf("failed to stamp organization scrape: %w", err)
	}
	return nil
}

// SetTracking pauses or resumes scheduling for an organization without
// touching its problematic flag.
func (s *Store) SetTracking(ctx context.Context, id uuid.UUID, tracking bool) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE organizations SET is_tracking = $2, updated_at = NOW() WHERE id = $1`,
		id, tracking)
	if err != nil {
		return fmt.Errorf("failed to set organization tracking: %w", err)
	}
	return nil
}

// MarkProblematic excludes an organization from scheduling until manually
// cleared.
func (s *Store) MarkProblematic(ctx context.Context, id uuid.UUID, problematic bool) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE organizations SET is_problematic = $2, updated_at = NOW() WHERE id = $1`,
		id, problematic)
	if err != nil {
		return fmt.Errorf("failed to mark organization problematic: %w", err)
	}
	return nil
}
