// Package match runs the matching pipeline on demand for one or more
// organizations, outside the scheduled queue.
package match

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/scoutly/scoutly/internal/ai"
	"github.com/scoutly/scoutly/internal/cv"
	"github.com/scoutly/scoutly/internal/pipeline"
	"github.com/scoutly/scoutly/internal/pipeline/stages"
	"github.com/scoutly/scoutly/internal/profile"
	"github.com/scoutly/scoutly/internal/store"
)

// Deps bundles everything the pipeline stages need.
type Deps struct {
	Scraper stages.PageScraper
	History stages.HistoryCache
	Matcher stages.Matcher
	Fetcher *cv.Fetcher
	Saver   stages.JobSaver
	Log     *slog.Logger
}

// Request describes one matching run.
type Request struct {
	Candidate *profile.Candidate
	CVURL     string
	UserID    string
}

// Result summarizes the outcome for one organization. Saved counts only
// the jobs actually persisted this run, not everything analyzed.
type Result struct {
	OrgID       uuid.UUID           `json:"org_id"`
	OrgName     string              `json:"org_name"`
	Processed   bool                `json:"processed"`
	Reason      string              `json:"reason,omitempty"`
	NewLinks    int                 `json:"new_links"`
	Shortlisted int                 `json:"shortlisted"`
	Saved       int                 `json:"saved"`
	Duplicates  int                 `json:"duplicates"`
	Analyses    []ai.AnalysisResult `json:"analyses,omitempty"`
}

// One runs the full pipeline for a single organization.
func (d *Deps) One(ctx context.Context, req Request, org store.Organization) (*Result, error) {
	results, err := d.Batch(ctx, req, []store.Organization{org})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// Batch runs the pipeline for each organization in turn. The candidate
// profile and CV are prepared once and shared across all runs. A failing
// organization yields a Result with Processed false and the failure
// reason; only preparation failures abort the whole batch.
func (d *Deps) Batch(ctx context.Context, req Request, orgs []store.Organization) ([]Result, error) {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	// prepare shared inputs once
	prep := pipeline.NewState(log)
	prep.Candidate = req.Candidate
	prep.CVURL = req.CVURL
	prep.UserID = req.UserID

	prepEngine := pipeline.NewEngine([]pipeline.Stage{
		stages.NewCandidateProfile(),
		stages.NewCVIngestion(d.Fetcher, d.Matcher),
	}, pipeline.Options{})
	if _, err := prepEngine.Run(ctx, prep); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(orgs))
	for _, org := range orgs {
		res := Result{OrgID: org.ID, OrgName: org.Name}

		state := pipeline.NewState(log.With("org", org.Name))
		state.Organizations = []store.Organization{org}
		state.Candidate = req.Candidate
		state.CVURL = req.CVURL
		state.UserID = req.UserID
		state.CandidateText = prep.CandidateText
		state.CVContent = prep.CVContent

		engine := pipeline.NewEngine([]pipeline.Stage{
			stages.NewOrganizationScraping(d.Scraper, d.History),
			stages.NewInitialMatch(d.Matcher),
			stages.NewDetailFetch(d.Scraper),
			stages.NewDeepAnalysis(d.Matcher),
			stages.NewResultPersistence(d.Saver),
		}, pipeline.Options{AllowSkipping: true})

		// model calls made during this run are attributed to the org
		runResult, err := engine.Run(ai.WithOrg(ctx, org.ID), state)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			res.Reason = err.Error()
			results = append(results, res)
			continue
		}
		if err := runResult.Err(); err != nil {
			res.Reason = err.Error()
			results = append(results, res)
			continue
		}

		res.Processed = true
		res.NewLinks = state.TotalNewLinks()
		res.Shortlisted = state.TotalShortlisted()
		res.Saved = len(state.SavedJobIDs)
		res.Duplicates = state.SkippedDuplicates
		res.Analyses = state.Analyses[org.ID]
		results = append(results, res)
	}

	return results, nil
}
