package stages

import (
	"context"
	"fmt"

	"github.com/scoutly/scoutly/internal/pipeline"
	"github.com/scoutly/scoutly/internal/store"
)

// ResultPersistence saves analyzed jobs for the user, skipping ones
// already saved under the same URL. A storage failure aborts the run so
// the queue job retries instead of silently dropping results.
type ResultPersistence struct {
	saver JobSaver
}

// NewResultPersistence creates the stage.
func NewResultPersistence(saver JobSaver) *ResultPersistence {
	return &ResultPersistence{saver: saver}
}

func (s *ResultPersistence) Name() string { return "result_persistence" }

// CanSkip reports there being nothing analyzed to save.
func (s *ResultPersistence) CanSkip(state *pipeline.State) bool {
	return len(state.Analyses) == 0
}

func (s *ResultPersistence) Execute(ctx context.Context, state *pipeline.State) error {
	for i := range state.Organizations {
		org := &state.Organizations[i]
		for _, r := range state.Analyses[org.ID] {
			exists, err := s.saver.SavedJobExists(ctx, state.UserID, r.URL, r.Title)
			if err != nil {
				return s.abort(err)
			}
			if exists {
				state.SkippedDuplicates++
				continue
			}

			job := &store.SavedJob{
				OrgID:               org.ID,
				UserID:              state.UserID,
				URL:                 r.URL,
				Title:               r.Title,
				SuitabilityScore:    r.SuitabilityScore,
				GoodFitReasons:      r.GoodFitReasons,
				ConsiderationPoints: r.ConsiderationPoints,
				StretchGoals:        r.StretchGoals,
				TechStack:           r.TechStack,
				VisaSponsorship:     r.VisaSponsorship,
			}
			if r.Location != "" {
				job.Location = &r.Location
			}
			if r.Salary != "" {
				job.Salary = &r.Salary
			}

			id, err := s.saver.InsertSavedJob(ctx, job)
			if err != nil {
				return s.abort(fmt.Errorf("saving %s: %w", r.URL, err))
			}
			state.SavedJobIDs = append(state.SavedJobIDs, id)
			state.SavedURLs[r.URL] = true
		}
	}

	state.Log.Info("results persisted",
		"saved", len(state.SavedJobIDs), "duplicates_skipped", state.SkippedDuplicates)
	return nil
}

func (s *ResultPersistence) abort(err error) error {
	return &pipeline.AbortError{
		Stage: s.Name(),
		Cause: &pipeline.PersistenceError{Stage: s.Name(), Cause: err},
	}
}
