package stages

import (
	"context"

	"github.com/scoutly/scoutly/internal/ai"
	"github.com/scoutly/scoutly/internal/pipeline"
)

// InitialMatch shortlists the new links of each organization against the
// CV text and candidate profile. Organizations with no new links are
// passed over without a model call, and a per-organization model failure
// degrades to an empty shortlist.
type InitialMatch struct {
	matcher Matcher
}

// NewInitialMatch creates the stage.
func NewInitialMatch(matcher Matcher) *InitialMatch {
	return &InitialMatch{matcher: matcher}
}

func (s *InitialMatch) Name() string { return "initial_match" }

// Validate requires the candidate prompt text and the ingested CV.
func (s *InitialMatch) Validate(state *pipeline.State) error {
	if state.CandidateText == "" {
		return &pipeline.ValidationError{Stage: s.Name(), Message: "candidate text not prepared"}
	}
	if state.CVContent == "" {
		return &pipeline.ValidationError{Stage: s.Name(), Message: "CV content not ingested"}
	}
	return nil
}

func (s *InitialMatch) Execute(ctx context.Context, state *pipeline.State) error {
	for i := range state.Organizations {
		org := &state.Organizations[i]
		links := state.NewLinks[org.ID]
		if len(links) == 0 {
			continue
		}

		inputs := make([]ai.LinkInput, len(links))
		for j, l := range links {
			inputs[j] = ai.LinkInput{URL: l.URL, Title: l.Title, Context: l.Context}
		}

		matches, err := s.matcher.ShortlistJobs(ctx, state.CVContent, state.CandidateText, org.Name, inputs)
		if err != nil {
			if ctx.Err() != nil {
				return &pipeline.InferenceError{Stage: s.Name(), Cause: err}
			}
			state.Log.Warn("shortlist failed", "org", org.Name, "error", err)
			continue
		}

		// keep only matches whose URL was actually in the input
		valid := matches[:0]
		known := make(map[string]bool, len(links))
		for _, l := range links {
			known[l.URL] = true
		}
		for _, m := range matches {
			if known[m.URL] {
				valid = append(valid, m)
			} else {
				state.Log.Warn("model invented a job URL, dropping", "org", org.Name, "url", m.URL)
			}
		}

		if len(valid) > 0 {
			state.Shortlist[org.ID] = valid
		}
	}

	state.Log.Info("initial match done", "shortlisted", state.TotalShortlisted())
	return nil
}
