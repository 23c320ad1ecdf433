package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scoutly/scoutly/internal/prompts"
	"github.com/scoutly/scoutly/internal/usage"
)

// DefaultBatchDelay is the pause between consecutive analysis batches.
// It spaces out requests so a burst of batches does not trip the
// per-minute limit immediately.
const DefaultBatchDelay = 2 * time.Second

// LinkInput is a scraped careers-page link handed to the shortlist pass.
type LinkInput struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Context string `json:"context,omitempty"`
}

// JobInput is a full job posting handed to the deep analysis pass.
type JobInput struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Model call operations, as they appear in the usage accounting log.
const (
	OpShortlist = "shortlist"
	OpAnalysis  = "analysis"
	OpCVExtract = "cv_extract"
)

// UsageSink receives the token usage of every model call, tagged with
// the operation and the organization the call was attributed to (Nil
// when none). Sinks are best effort and must not block for long.
type UsageSink func(ctx context.Context, op string, orgID uuid.UUID, u Usage)

type orgKey struct{}

// WithOrg attributes subsequent model calls on this context to the
// organization.
func WithOrg(ctx context.Context, orgID uuid.UUID) context.Context {
	return context.WithValue(ctx, orgKey{}, orgID)
}

func orgFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(orgKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// Service runs the matching and analysis prompts against the model,
// enforcing rate limits and recording token usage through the tracker.
type Service struct {
	client     Client
	tracker    *usage.Tracker
	sink       UsageSink
	log        *slog.Logger
	batchDelay time.Duration
}

// NewService creates a Service. The tracker may be nil, in which case no
// rate limiting or usage accounting is performed.
func NewService(client Client, tracker *usage.Tracker, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		client:     client,
		tracker:    tracker,
		log:        log,
		batchDelay: DefaultBatchDelay,
	}
}

// SetBatchDelay overrides the pause between analysis batches.
func (s *Service) SetBatchDelay(d time.Duration) {
	s.batchDelay = d
}

// SetUsageSink installs a per-call usage recorder.
func (s *Service) SetUsageSink(sink UsageSink) {
	s.sink = sink
}

// ShortlistJobs asks the model which of the scraped links plausibly fit
// the candidate, given the CV text and profile. An empty link list
// returns an empty shortlist without a model call.
func (s *Service) ShortlistJobs(ctx context.Context, cvText, candidate, company string, links []LinkInput) ([]ShortlistMatch, error) {
	if len(links) == 0 {
		return []ShortlistMatch{}, nil
	}

	linksJSON, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("failed to encode links: %w", err)
	}

	prompt := prompts.MustGet("matching.json", "shortlist_system") + "\n\n" +
		prompts.Format(prompts.MustGet("matching.json", "shortlist_user"), map[string]string{
			"CV":        cvText,
			"Candidate": candidate,
			"Company":   company,
			"Links":     string(linksJSON),
		})

	raw, err := s.generate(ctx, OpShortlist, prompt)
	if err != nil {
		return nil, err
	}

	resp, err := ParseShortlistResponse(raw)
	if err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// AnalyzeJobs runs the deep suitability analysis over all jobs, in
// sequential batches of AnalysisBatchSize. Usage is recorded after each
// batch, before the next one starts.
func (s *Service) AnalyzeJobs(ctx context.Context, cvText, candidate string, jobs []JobInput) ([]AnalysisResult, error) {
	if len(jobs) == 0 {
		return []AnalysisResult{}, nil
	}

	batches := CreateBatches(jobs, AnalysisBatchSize)
	results := make([]AnalysisResult, 0, len(jobs))

	for i, batch := range batches {
		if i > 0 && s.batchDelay > 0 {
			if err := sleepCtx(ctx, s.batchDelay); err != nil {
				return nil, err
			}
		}
		s.log.Debug("analyzing batch", "batch", i+1, "of", len(batches), "jobs", len(batch))

		batchJSON, err := json.Marshal(batch)
		if err != nil {
			return nil, fmt.Errorf("failed to encode jobs: %w", err)
		}

		prompt := prompts.MustGet("matching.json", "analysis_system") + "\n\n" +
			prompts.Format(prompts.MustGet("matching.json", "analysis_user"), map[string]string{
				"CV":        cvText,
				"Candidate": candidate,
				"Jobs":      string(batchJSON),
			})

		raw, err := s.generate(ctx, OpAnalysis, prompt)
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}

		resp, err := ParseAnalysisResponse(raw)
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}
		results = append(results, resp.Results...)
	}

	return results, nil
}

// ExtractCVText extracts the plain text of a CV document.
func (s *Service) ExtractCVText(ctx context.Context, mimeType string, data []byte) (string, error) {
	if err := s.beforeCall(ctx); err != nil {
		return "", err
	}

	instruction := prompts.MustGet("cv.json", "extract_text")
	text, u, err := s.client.ExtractDocumentText(ctx, instruction, mimeType, data)
	s.afterCall(ctx, OpCVExtract, u)
	if err != nil {
		return "", err
	}
	return text, nil
}

// generate performs a rate-limited JSON generation call.
func (s *Service) generate(ctx context.Context, op, prompt string) (string, error) {
	if err := s.beforeCall(ctx); err != nil {
		return "", err
	}

	raw, u, err := s.client.GenerateJSON(ctx, prompt)
	s.afterCall(ctx, op, u)
	if err != nil {
		return "", err
	}
	return raw, nil
}

func (s *Service) beforeCall(ctx context.Context) error {
	if s.tracker == nil {
		return nil
	}
	s.tracker.CheckDailyReset()
	return s.tracker.CheckRateLimits(ctx)
}

func (s *Service) afterCall(ctx context.Context, op string, u Usage) {
	if s.tracker != nil {
		s.tracker.Update(u.TotalTokens)
	}
	if s.sink != nil {
		s.sink(ctx, op, orgFromContext(ctx), u)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
