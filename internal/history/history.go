// Package history tracks which job links each user has seen on each
// organization's careers page, so repeated scrapes only surface postings
// that are actually new to that user.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scoutly/scoutly/internal/store"
)

// Storage is the persistence the cache needs.
type Storage interface {
	GetLastScrape(ctx context.Context, orgID uuid.UUID, userID string) (*store.ScrapeRecord, error)
	RecordScrape(ctx context.Context, orgID uuid.UUID, userID string, links []store.HistoryLink, at time.Time) error
}

// Cache answers "which of these links are new" against the last scrape
// recorded for an organization and user. Records are keyed per user: one
// user catching up on an organization leaves every other user's notion
// of "new" untouched.
type Cache struct {
	storage Storage
	now     func() time.Time
}

// New creates a Cache backed by storage.
func New(storage Storage) *Cache {
	return &Cache{storage: storage, now: time.Now}
}

// WithClock overrides the clock. Intended for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// GetLast returns the last link set recorded for the organization and
// user, or nil when that pair was never scraped.
func (c *Cache) GetLast(ctx context.Context, orgID uuid.UUID, userID string) (*store.ScrapeRecord, error) {
	return c.storage.GetLastScrape(ctx, orgID, userID)
}

// Record stores the full current link set for the organization and user.
// The full set is always recorded, not just the new links, so the next
// comparison runs against what the page actually showed.
func (c *Cache) Record(ctx context.Context, orgID uuid.UUID, userID string, links []store.HistoryLink) error {
	return c.storage.RecordScrape(ctx, orgID, userID, links, c.now())
}

// FindNew returns the links not present in the last scrape recorded for
// this organization and user. Comparison is by URL only, since titles get
// reworded while the posting stays the same. A never-scraped pair gets
// the entire set back.
func (c *Cache) FindNew(ctx context.Context, orgID uuid.UUID, userID string, links []store.HistoryLink) ([]store.HistoryLink, error) {
	last, err := c.storage.GetLastScrape(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return links, nil
	}

	seen := make(map[string]bool, len(last.Links))
	for _, l := range last.Links {
		seen[l.URL] = true
	}

	fresh := make([]store.HistoryLink, 0, len(links))
	for _, l := range links {
		if !seen[l.URL] {
			fresh = append(fresh, l)
		}
	}
	return fresh, nil
}
