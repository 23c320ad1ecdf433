// Package pipeline runs the ordered stages that turn tracked
// organizations into saved, analyzed job matches. Stages communicate
// through a shared State value that each stage reads from and adds to.
package pipeline

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/scoutly/scoutly/internal/ai"
	"github.com/scoutly/scoutly/internal/profile"
	"github.com/scoutly/scoutly/internal/scrape"
	"github.com/scoutly/scoutly/internal/store"
)

// State is the shared working set of one pipeline run.
type State struct {
	// Inputs
	Organizations []store.Organization
	Candidate     *profile.Candidate
	CVURL         string
	UserID        string

	// Produced by stages
	CandidateText string
	CVContent     string

	// NewLinks holds the links per organization that were not present in
	// the previous scrape. FullLinks holds everything the page showed.
	NewLinks  map[uuid.UUID][]store.HistoryLink
	FullLinks map[uuid.UUID][]store.HistoryLink

	// Shortlist holds the model-selected matches per organization.
	Shortlist map[uuid.UUID][]ai.ShortlistMatch

	// JobDetails holds fetched posting content keyed by URL. URLs whose
	// fetch failed are absent.
	JobDetails map[string]*scrape.JobDetail

	// Analyses holds scored results per organization, best first.
	Analyses map[uuid.UUID][]ai.AnalysisResult

	// Persistence outcome
	SavedJobIDs       []uuid.UUID
	SavedURLs         map[string]bool
	SkippedDuplicates int

	Log *slog.Logger
}

// NewState creates a State with its maps initialized.
func NewState(log *slog.Logger) *State {
	if log == nil {
		log = slog.Default()
	}
	return &State{
		NewLinks:   make(map[uuid.UUID][]store.HistoryLink),
		FullLinks:  make(map[uuid.UUID][]store.HistoryLink),
		Shortlist:  make(map[uuid.UUID][]ai.ShortlistMatch),
		JobDetails: make(map[string]*scrape.JobDetail),
		Analyses:   make(map[uuid.UUID][]ai.AnalysisResult),
		SavedURLs:  make(map[string]bool),
		Log:        log,
	}
}

// TotalNewLinks counts new links across all organizations.
func (s *State) TotalNewLinks() int {
	n := 0
	for _, links := range s.NewLinks {
		n += len(links)
	}
	return n
}

// TotalShortlisted counts shortlisted matches across all organizations.
func (s *State) TotalShortlisted() int {
	n := 0
	for _, matches := range s.Shortlist {
		n += len(matches)
	}
	return n
}
