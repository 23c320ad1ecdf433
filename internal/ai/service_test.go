package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutly/scoutly/internal/usage"
)

// fakeClient returns canned JSON and records every prompt it was given.
type fakeClient struct {
	prompts   []string
	responses []string
	usage     Usage
	err       error
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string) (string, Usage, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", Usage{}, f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, f.usage, nil
}

func (f *fakeClient) ExtractDocumentText(_ context.Context, _ string, _ string, _ []byte) (string, Usage, error) {
	if f.err != nil {
		return "", Usage{}, f.err
	}
	return "extracted cv text", f.usage, nil
}

func (f *fakeClient) ModelName() string { return "fake-model" }
func (f *fakeClient) Close() error      { return nil }

func analysisJSON(t *testing.T, results []AnalysisResult) string {
	t.Helper()
	data, err := json.Marshal(AnalysisResponse{Results: results})
	require.NoError(t, err)
	return string(data)
}

func TestShortlistJobs(t *testing.T) {
	client := &fakeClient{
		responses: []string{`{"matches":[{"url":"https://x.dev/1","title":"Go Engineer"}]}`},
	}
	svc := NewService(client, nil, nil)

	matches, err := svc.ShortlistJobs(context.Background(), "ten years of Go", "senior gopher", "Acme",
		[]LinkInput{{URL: "https://x.dev/1", Title: "Go Engineer", Context: "Backend team, Berlin"}})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "https://x.dev/1", matches[0].URL)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "ten years of Go", "CV text reaches the shortlist prompt")
	assert.Contains(t, client.prompts[0], "senior gopher")
	assert.Contains(t, client.prompts[0], "Acme")
	assert.Contains(t, client.prompts[0], "https://x.dev/1")
	assert.Contains(t, client.prompts[0], "Backend team, Berlin", "link context reaches the prompt")
}

func TestShortlistJobsEmptyInput(t *testing.T) {
	client := &fakeClient{}
	svc := NewService(client, nil, nil)

	matches, err := svc.ShortlistJobs(context.Background(), "cv", "candidate", "Acme", nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Empty(t, client.prompts, "no model call for empty input")
}

func TestAnalyzeJobsBatching(t *testing.T) {
	jobs := make([]JobInput, 12)
	for i := range jobs {
		jobs[i] = JobInput{
			URL:     fmt.Sprintf("https://x.dev/%d", i),
			Title:   fmt.Sprintf("Role %d", i),
			Content: "posting body",
		}
	}

	// one canned response per expected batch
	var responses []string
	for _, size := range []int{5, 5, 2} {
		results := make([]AnalysisResult, size)
		for i := range results {
			results[i] = AnalysisResult{
				URL:                 "u",
				Title:               "t",
				SuitabilityScore:    50,
				GoodFitReasons:      []string{},
				ConsiderationPoints: []string{},
				StretchGoals:        []string{},
			}
		}
		responses = append(responses, analysisJSON(t, results))
	}
	client := &fakeClient{responses: responses, usage: Usage{TotalTokens: 100}}

	tracker := usage.NewTracker(usage.Limits{ModelName: "fake-model"}, nil)
	svc := NewService(client, tracker, nil)
	svc.SetBatchDelay(0)

	results, err := svc.AnalyzeJobs(context.Background(), "cv text", "candidate", jobs)
	require.NoError(t, err)
	assert.Len(t, results, 12)
	assert.Len(t, client.prompts, 3, "12 jobs should take 3 model calls")

	stats := tracker.Snapshot()
	assert.Equal(t, 3, stats.Calls, "tracker sees one update per batch")
	assert.Equal(t, 300, stats.TotalTokens)

	// each prompt carries only its own batch
	assert.Contains(t, client.prompts[0], "https://x.dev/0")
	assert.NotContains(t, client.prompts[0], "https://x.dev/5")
	assert.Contains(t, client.prompts[2], "https://x.dev/10")
}

func TestAnalyzeJobsEmptyInput(t *testing.T) {
	client := &fakeClient{}
	svc := NewService(client, nil, nil)

	results, err := svc.AnalyzeJobs(context.Background(), "cv", "candidate", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, client.prompts)
}

func TestAnalyzeJobsPropagatesModelError(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("model unavailable")}
	svc := NewService(client, nil, nil)
	svc.SetBatchDelay(0)

	_, err := svc.AnalyzeJobs(context.Background(), "cv", "candidate",
		[]JobInput{{URL: "u", Title: "t", Content: "c"}})
	assert.ErrorContains(t, err, "model unavailable")
}

func TestUsageSinkReceivesEveryCall(t *testing.T) {
	client := &fakeClient{
		responses: []string{`{"matches":[]}`},
		usage:     Usage{PromptTokens: 40, OutputTokens: 10, TotalTokens: 50},
	}
	svc := NewService(client, nil, nil)

	type call struct {
		op    string
		orgID uuid.UUID
		u     Usage
	}
	var calls []call
	svc.SetUsageSink(func(_ context.Context, op string, orgID uuid.UUID, u Usage) {
		calls = append(calls, call{op: op, orgID: orgID, u: u})
	})

	orgID := uuid.New()
	ctx := WithOrg(context.Background(), orgID)

	_, err := svc.ShortlistJobs(ctx, "cv", "candidate", "Acme",
		[]LinkInput{{URL: "https://x.dev/1", Title: "Go Engineer"}})
	require.NoError(t, err)
	_, err = svc.ExtractCVText(context.Background(), "application/pdf", []byte("%PDF-"))
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, OpShortlist, calls[0].op)
	assert.Equal(t, orgID, calls[0].orgID)
	assert.Equal(t, 50, calls[0].u.TotalTokens)
	assert.Equal(t, OpCVExtract, calls[1].op)
	assert.Equal(t, uuid.Nil, calls[1].orgID, "no attribution outside a tagged context")
}

func TestExtractCVText(t *testing.T) {
	client := &fakeClient{}
	svc := NewService(client, nil, nil)

	text, err := svc.ExtractCVText(context.Background(), "application/pdf", []byte("%PDF-"))
	require.NoError(t, err)
	assert.Equal(t, "extracted cv text", text)
}
