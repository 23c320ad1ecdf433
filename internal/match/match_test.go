package match

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutly/scoutly/internal/ai"
	"github.com/scoutly/scoutly/internal/cv"
	"github.com/scoutly/scoutly/internal/profile"
	"github.com/scoutly/scoutly/internal/scrape"
	"github.com/scoutly/scoutly/internal/store"
)

type fakeScraper struct {
	mu      sync.Mutex
	pages   map[string]string
	details map[string]*scrape.JobDetail
}

func (f *fakeScraper) FetchHTML(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("page unreachable: %s", url)
	}
	return html, nil
}

func (f *fakeScraper) FetchJobDetail(_ context.Context, url string) (*scrape.JobDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[url]
	if !ok {
		return nil, fmt.Errorf("posting unreachable: %s", url)
	}
	return d, nil
}

type fakeHistory struct {
	mu       sync.Mutex
	recorded map[string][]store.HistoryLink
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{recorded: make(map[string][]store.HistoryLink)}
}

func (f *fakeHistory) Record(_ context.Context, orgID uuid.UUID, userID string, links []store.HistoryLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded[orgID.String()+"/"+userID] = links
	return nil
}

func (f *fakeHistory) FindNew(_ context.Context, orgID uuid.UUID, userID string, links []store.HistoryLink) ([]store.HistoryLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	for _, l := range f.recorded[orgID.String()+"/"+userID] {
		seen[l.URL] = true
	}
	var fresh []store.HistoryLink
	for _, l := range links {
		if !seen[l.URL] {
			fresh = append(fresh, l)
		}
	}
	return fresh, nil
}

type fakeMatcher struct {
	shortlist map[string][]ai.ShortlistMatch
	analysis  []ai.AnalysisResult
}

func (f *fakeMatcher) ShortlistJobs(_ context.Context, _ string, _ string, company string, _ []ai.LinkInput) ([]ai.ShortlistMatch, error) {
	return f.shortlist[company], nil
}

func (f *fakeMatcher) AnalyzeJobs(_ context.Context, _ string, _ string, _ []ai.JobInput) ([]ai.AnalysisResult, error) {
	return f.analysis, nil
}

func (f *fakeMatcher) ExtractCVText(_ context.Context, _ string, _ []byte) (string, error) {
	return "extracted cv", nil
}

type fakeSaver struct {
	mu       sync.Mutex
	inserted []*store.SavedJob
}

func (f *fakeSaver) SavedJobExists(_ context.Context, _ string, _ string, _ string) (bool, error) {
	return false, nil
}

func (f *fakeSaver) InsertSavedJob(_ context.Context, job *store.SavedJob) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, job)
	return uuid.New(), nil
}

func cvServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("cv text with years of Go experience"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBatch(t *testing.T) {
	good := store.Organization{
		ID: uuid.New(), Name: "acme",
		CareersURL: "https://acme.example/careers", Rank: 90,
	}
	broken := store.Organization{
		ID: uuid.New(), Name: "umbrella",
		CareersURL: "https://umbrella.example/careers", Rank: 70,
	}

	jobURL := "https://acme.example/jobs/1"
	deps := &Deps{
		Scraper: &fakeScraper{
			pages: map[string]string{
				good.CareersURL: fmt.Sprintf(
					`<html><body><main><a href="%s">Backend Engineer</a></main></body></html>`, jobURL),
			},
			details: map[string]*scrape.JobDetail{
				jobURL: {URL: jobURL, Title: "Backend Engineer", Content: "Go and Postgres"},
			},
		},
		History: newFakeHistory(),
		Matcher: &fakeMatcher{
			shortlist: map[string][]ai.ShortlistMatch{
				"acme": {{URL: jobURL, Title: "Backend Engineer"}},
			},
			analysis: []ai.AnalysisResult{
				{URL: jobURL, Title: "Backend Engineer", SuitabilityScore: 85},
			},
		},
		Fetcher: cv.NewFetcher(),
		Saver:   &fakeSaver{},
	}

	req := Request{
		Candidate: &profile.Candidate{Summary: "Senior Go engineer with a decade of backend work."},
		CVURL:     cvServer(t).URL,
		UserID:    "user-1",
	}

	results, err := deps.Batch(context.Background(), req, []store.Organization{good, broken})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Processed)
	assert.Equal(t, "acme", results[0].OrgName)
	assert.Equal(t, 1, results[0].Saved)
	require.Len(t, results[0].Analyses, 1)
	assert.Equal(t, 85, results[0].Analyses[0].SuitabilityScore)

	// an unreachable careers page fails that org only, with a reason
	assert.False(t, results[1].Processed)
	assert.NotEmpty(t, results[1].Reason)
}

func TestBatchAbortsOnEmptyProfile(t *testing.T) {
	deps := &Deps{
		Scraper: &fakeScraper{},
		History: newFakeHistory(),
		Matcher: &fakeMatcher{},
		Fetcher: cv.NewFetcher(),
		Saver:   &fakeSaver{},
	}

	req := Request{Candidate: &profile.Candidate{}, CVURL: cvServer(t).URL, UserID: "user-1"}
	_, err := deps.Batch(context.Background(), req, []store.Organization{
		{ID: uuid.New(), Name: "acme", CareersURL: "https://acme.example/careers", Rank: 50},
	})
	assert.Error(t, err, "an unusable candidate profile fails the whole batch")
}
