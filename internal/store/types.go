package store

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tracked company whose careers page gets scraped.
type Organization struct {
	ID                     uuid.UUID  `json:"id"`
	Name                   string     `json:"name"`
	CareersURL             string     `json:"careers_url"`
	Rank                   int        `json:"rank"`
	IsTracking             bool       `json:"is_tracking"`
	IsProblematic          bool       `json:"is_problematic"`
	LastScrapedAt          *time.Time `json:"last_scraped_at,omitempty"`
	LastSuccessfulScrapeAt *time.Time `json:"last_successful_scrape_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Queue job statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// MaxRetries is the failure count at which an organization is flagged
// problematic instead of being retried again.
const MaxRetries = 3

// QueueJob is one scrape request in the work queue.
type QueueJob struct {
	ID         uuid.UUID  `json:"id"`
	OrgID      uuid.UUID  `json:"org_id"`
	Status     string     `json:"status"`
	Priority   float64    `json:"priority"`
	RetryCount int        `json:"retry_count"`
	LastError  *string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// HistoryLink is one link recorded in an organization's scrape history.
// Context carries the text surrounding the link on the page.
type HistoryLink struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Context string `json:"context,omitempty"`
}

// ScrapeRecord is the last recorded set of links for an organization and
// user.
type ScrapeRecord struct {
	OrgID     uuid.UUID     `json:"org_id"`
	UserID    string        `json:"user_id"`
	Links     []HistoryLink `json:"links"`
	ScrapedAt time.Time     `json:"scraped_at"`
}

// SavedJob is an analyzed job persisted for the user.
type SavedJob struct {
	ID                  uuid.UUID `json:"id"`
	OrgID               uuid.UUID `json:"org_id"`
	UserID              string    `json:"user_id"`
	URL                 string    `json:"url"`
	Title               string    `json:"title"`
	SuitabilityScore    int       `json:"suitability_score"`
	GoodFitReasons      []string  `json:"good_fit_reasons,omitempty"`
	ConsiderationPoints []string  `json:"consideration_points,omitempty"`
	StretchGoals        []string  `json:"stretch_goals,omitempty"`
	Location            *string   `json:"location,omitempty"`
	TechStack           []string  `json:"tech_stack,omitempty"`
	Salary              *string   `json:"salary,omitempty"`
	VisaSponsorship     *bool     `json:"visa_sponsorship,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// QueueStatus is a snapshot of queue depth per status.
type QueueStatus struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
