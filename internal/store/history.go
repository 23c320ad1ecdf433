package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetLastScrape retrieves the most recent link set recorded for this
// organization and user. Returns nil when that pair was never scraped.
// Records are per user, so one user's scrape never hides what is new for
// another.
func (s *Store) GetLastScrape(ctx context.Context, orgID uuid.UUID, userID string) (*ScrapeRecord, error) {
	var rec ScrapeRecord
	var linksJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT org_id, user_id, links, scraped_at
		 FROM scrape_history WHERE org_id = $1 AND user_id = $2`,
		orgID, userID,
	).Scan(&rec.OrgID, &rec.UserID, &linksJSON, &rec.ScrapedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scrape history: %w", err)
	}

	if err := json.Unmarshal(linksJSON, &rec.Links); err != nil {
		return nil, fmt.Errorf("failed to decode scrape history links: %w", err)
	}
	return &rec, nil
}

// RecordScrape replaces the link set recorded for this organization and
// user.
func (s *Store) RecordScrape(ctx context.Context, orgID uuid.UUID, userID string, links []HistoryLink, at time.Time) error {
	if links == nil {
		links = []HistoryLink{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to encode scrape history links: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scrape_history (org_id, user_id, links, scraped_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (org_id, user_id) DO UPDATE SET links = $3, scraped_at = $4`,
		orgID, userID, linksJSON, at)
	if err != nil {
		return fmt.Errorf("failed to record scrape history: %w", err)
	}
	return nil
}
