package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutly/scoutly/internal/store"
)

// fakeStorage keeps scrape records in memory, keyed like the real table.
type fakeStorage struct {
	records map[string]*store.ScrapeRecord
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{records: make(map[string]*store.ScrapeRecord)}
}

func key(orgID uuid.UUID, userID string) string {
	return orgID.String() + "/" + userID
}

func (f *fakeStorage) GetLastScrape(_ context.Context, orgID uuid.UUID, userID string) (*store.ScrapeRecord, error) {
	return f.records[key(orgID, userID)], nil
}

func (f *fakeStorage) RecordScrape(_ context.Context, orgID uuid.UUID, userID string, links []store.HistoryLink, at time.Time) error {
	f.records[key(orgID, userID)] = &store.ScrapeRecord{OrgID: orgID, UserID: userID, Links: links, ScrapedAt: at}
	return nil
}

const testUser = "alex@example.com"

func link(url string) store.HistoryLink {
	return store.HistoryLink{URL: url, Title: "Role at " + url}
}

func TestFindNewNeverScraped(t *testing.T) {
	cache := New(newFakeStorage())
	orgID := uuid.New()

	links := []store.HistoryLink{link("a"), link("b")}
	fresh, err := cache.FindNew(context.Background(), orgID, testUser, links)
	require.NoError(t, err)
	assert.Equal(t, links, fresh, "everything is new for a never-scraped org")
}

func TestFindNewAfterRecord(t *testing.T) {
	cache := New(newFakeStorage())
	orgID := uuid.New()
	ctx := context.Background()

	first := []store.HistoryLink{link("a"), link("b")}
	require.NoError(t, cache.Record(ctx, orgID, testUser, first))

	// same set again: nothing new
	fresh, err := cache.FindNew(ctx, orgID, testUser, first)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	// superset: only the additions come back
	second := []store.HistoryLink{link("a"), link("b"), link("c"), link("d")}
	fresh, err = cache.FindNew(ctx, orgID, testUser, second)
	require.NoError(t, err)
	assert.Equal(t, []store.HistoryLink{link("c"), link("d")}, fresh)
}

func TestFindNewIsPerUser(t *testing.T) {
	cache := New(newFakeStorage())
	orgID := uuid.New()
	ctx := context.Background()

	links := []store.HistoryLink{link("a"), link("b")}
	require.NoError(t, cache.Record(ctx, orgID, "a@example.com", links))

	// another user's first look at the same org sees everything
	fresh, err := cache.FindNew(ctx, orgID, "b@example.com", links)
	require.NoError(t, err)
	assert.Equal(t, links, fresh)

	// and recording for that user leaves the first user's history alone
	require.NoError(t, cache.Record(ctx, orgID, "b@example.com", links))
	moreLinks := append(links, link("c"))
	fresh, err = cache.FindNew(ctx, orgID, "a@example.com", moreLinks)
	require.NoError(t, err)
	assert.Equal(t, []store.HistoryLink{link("c")}, fresh)
}

func TestFindNewComparesByURLOnly(t *testing.T) {
	cache := New(newFakeStorage())
	orgID := uuid.New()
	ctx := context.Background()

	require.NoError(t, cache.Record(ctx, orgID, testUser, []store.HistoryLink{
		{URL: "https://x.dev/jobs/1", Title: "Backend Engineer"},
	}))

	// reworded title, same URL: not new
	fresh, err := cache.FindNew(ctx, orgID, testUser, []store.HistoryLink{
		{URL: "https://x.dev/jobs/1", Title: "Senior Backend Engineer (Go)"},
	})
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestRecordReplacesFullSet(t *testing.T) {
	storage := newFakeStorage()
	cache := New(storage)
	orgID := uuid.New()
	ctx := context.Background()

	require.NoError(t, cache.Record(ctx, orgID, testUser, []store.HistoryLink{link("a"), link("b")}))
	require.NoError(t, cache.Record(ctx, orgID, testUser, []store.HistoryLink{link("b"), link("c")}))

	// "a" disappeared from the page, so if it comes back it is new again
	fresh, err := cache.FindNew(ctx, orgID, testUser, []store.HistoryLink{link("a")})
	require.NoError(t, err)
	assert.Equal(t, []store.HistoryLink{link("a")}, fresh)
}

func TestRecordUsesInjectedClock(t *testing.T) {
	storage := newFakeStorage()
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := New(storage).WithClock(func() time.Time { return fixed })
	orgID := uuid.New()

	require.NoError(t, cache.Record(context.Background(), orgID, testUser, []store.HistoryLink{link("a")}))
	assert.Equal(t, fixed, storage.records[key(orgID, testUser)].ScrapedAt)
}
