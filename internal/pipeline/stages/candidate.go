package stages

import (
	"context"

	"github.com/scoutly/scoutly/internal/pipeline"
)

// CandidateProfile validates the candidate profile and renders the prompt
// text the matching stages consume. A missing or empty profile aborts the
// run, nothing downstream can work without it.
type CandidateProfile struct{}

// NewCandidateProfile creates the stage.
func NewCandidateProfile() *CandidateProfile { return &CandidateProfile{} }

func (s *CandidateProfile) Name() string { return "candidate_profile" }

// CanSkip reports the profile as already prepared.
func (s *CandidateProfile) CanSkip(state *pipeline.State) bool {
	return state.CandidateText != ""
}

func (s *CandidateProfile) Execute(_ context.Context, state *pipeline.State) error {
	if state.Candidate.IsEmpty() {
		return &pipeline.AbortError{
			Stage: s.Name(),
			Cause: &pipeline.ValidationError{Stage: s.Name(), Message: "candidate profile is empty"},
		}
	}
	if err := state.Candidate.Validate(); err != nil {
		return &pipeline.AbortError{
			Stage: s.Name(),
			Cause: &pipeline.ValidationError{Stage: s.Name(), Message: err.Error()},
		}
	}

	state.CandidateText = state.Candidate.PromptText()
	return nil
}
