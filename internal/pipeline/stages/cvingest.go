package stages

import (
	"context"

	"github.com/scoutly/scoutly/internal/cv"
	"github.com/scoutly/scoutly/internal/pipeline"
)

// CVIngestion downloads the candidate's CV and extracts its text. Failure
// aborts the run since deep analysis is meaningless without the CV.
type CVIngestion struct {
	fetcher   *cv.Fetcher
	extractor cv.TextExtractor
}

// NewCVIngestion creates the stage.
func NewCVIngestion(fetcher *cv.Fetcher, extractor cv.TextExtractor) *CVIngestion {
	return &CVIngestion{fetcher: fetcher, extractor: extractor}
}

func (s *CVIngestion) Name() string { return "cv_ingestion" }

// CanSkip reports the CV as already ingested.
func (s *CVIngestion) CanSkip(state *pipeline.State) bool {
	return state.CVContent != ""
}

// Validate checks that a CV URL was provided.
func (s *CVIngestion) Validate(state *pipeline.State) error {
	if state.CVURL == "" {
		return &pipeline.ValidationError{Stage: s.Name(), Message: "no CV URL configured"}
	}
	return nil
}

func (s *CVIngestion) Execute(ctx context.Context, state *pipeline.State) error {
	text, err := cv.Ingest(ctx, s.fetcher, s.extractor, state.CVURL)
	if err != nil {
		return &pipeline.AbortError{Stage: s.Name(), Cause: err}
	}
	state.CVContent = text
	state.Log.Info("cv ingested", "chars", len(text))
	return nil
}
