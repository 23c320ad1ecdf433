package stages

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/scoutly/scoutly/internal/ai"
	"github.com/scoutly/scoutly/internal/pipeline"
)

// DeepAnalysis scores every shortlisted posting whose detail was fetched
// against the candidate's CV. Results with a zero score are discarded and
// the rest are grouped per organization, best score first.
type DeepAnalysis struct {
	matcher Matcher
}

// NewDeepAnalysis creates the stage.
func NewDeepAnalysis(matcher Matcher) *DeepAnalysis {
	return &DeepAnalysis{matcher: matcher}
}

func (s *DeepAnalysis) Name() string { return "deep_analysis" }

// CanSkip reports there being no fetched postings to analyze.
func (s *DeepAnalysis) CanSkip(state *pipeline.State) bool {
	return len(state.JobDetails) == 0
}

// Validate requires the CV text from the ingestion stage.
func (s *DeepAnalysis) Validate(state *pipeline.State) error {
	if state.CVContent == "" {
		return &pipeline.ValidationError{Stage: s.Name(), Message: "CV content not ingested"}
	}
	return nil
}

func (s *DeepAnalysis) Execute(ctx context.Context, state *pipeline.State) error {
	// preserve shortlist order within each organization
	var jobs []ai.JobInput
	urlToOrg := make(map[string]uuid.UUID)
	for i := range state.Organizations {
		org := &state.Organizations[i]
		for _, m := range state.Shortlist[org.ID] {
			detail, ok := state.JobDetails[m.URL]
			if !ok {
				continue
			}
			title := detail.Title
			if title == "" {
				title = m.Title
			}
			jobs = append(jobs, ai.JobInput{URL: m.URL, Title: title, Content: detail.Content})
			urlToOrg[m.URL] = org.ID
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	results, err := s.matcher.AnalyzeJobs(ctx, state.CVContent, state.CandidateText, jobs)
	if err != nil {
		return &pipeline.InferenceError{Stage: s.Name(), Cause: err}
	}

	kept, dropped := 0, 0
	for _, r := range results {
		orgID, ok := urlToOrg[r.URL]
		if !ok {
			state.Log.Warn("analysis result for unknown URL, dropping", "url", r.URL)
			continue
		}
		if r.SuitabilityScore <= 0 {
			dropped++
			continue
		}
		kept++
		state.Analyses[orgID] = append(state.Analyses[orgID], r)
	}

	for orgID := range state.Analyses {
		rs := state.Analyses[orgID]
		sort.SliceStable(rs, func(i, j int) bool {
			return rs[i].SuitabilityScore > rs[j].SuitabilityScore
		})
	}

	state.Log.Info("deep analysis done",
		"analyzed", len(jobs), "kept", kept, "zero_score", dropped)
	return nil
}

// OnFailure logs how much work was queued up when analysis broke.
func (s *DeepAnalysis) OnFailure(_ context.Context, state *pipeline.State, err error) {
	state.Log.Error("deep analysis failed",
		"shortlisted", state.TotalShortlisted(), "fetched", len(state.JobDetails), "error", err)
}
