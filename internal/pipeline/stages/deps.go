// Package stages implements the pipeline stages that take tracked
// organizations through scraping, matching, analysis and persistence.
package stages

import (
	"context"

	"github.com/google/uuid"

	"github.com/scoutly/scoutly/internal/ai"
	"github.com/scoutly/scoutly/internal/scrape"
	"github.com/scoutly/scoutly/internal/store"
)

// PageScraper fetches careers pages and posting pages.
type PageScraper interface {
	FetchHTML(ctx context.Context, url string) (string, error)
	FetchJobDetail(ctx context.Context, url string) (*scrape.JobDetail, error)
}

// HistoryCache answers which scraped links are new for an organization
// and user.
type HistoryCache interface {
	Record(ctx context.Context, orgID uuid.UUID, userID string, links []store.HistoryLink) error
	FindNew(ctx context.Context, orgID uuid.UUID, userID string, links []store.HistoryLink) ([]store.HistoryLink, error)
}

// Matcher runs the model passes.
type Matcher interface {
	ShortlistJobs(ctx context.Context, cvText, candidate, company string, links []ai.LinkInput) ([]ai.ShortlistMatch, error)
	AnalyzeJobs(ctx context.Context, cvText, candidate string, jobs []ai.JobInput) ([]ai.AnalysisResult, error)
	ExtractCVText(ctx context.Context, mimeType string, data []byte) (string, error)
}

// JobSaver persists analyzed jobs.
type JobSaver interface {
	SavedJobExists(ctx context.Context, userID, url, title string) (bool, error)
	InsertSavedJob(ctx context.Context, job *store.SavedJob) (uuid.UUID, error)
}
