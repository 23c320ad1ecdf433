package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/scoutly/scoutly/internal/ai"
	"github.com/scoutly/scoutly/internal/config"
	"github.com/scoutly/scoutly/internal/cv"
	"github.com/scoutly/scoutly/internal/history"
	"github.com/scoutly/scoutly/internal/logger"
	"github.com/scoutly/scoutly/internal/match"
	"github.com/scoutly/scoutly/internal/profile"
	"github.com/scoutly/scoutly/internal/queue"
	"github.com/scoutly/scoutly/internal/scrape"
	"github.com/scoutly/scoutly/internal/store"
	"github.com/scoutly/scoutly/internal/usage"
)

// app bundles the wired-up services a subcommand needs.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	store     *store.Store
	manager   *queue.Manager
	processID uuid.UUID

	// set only when the subcommand asked for AI
	client  *ai.GeminiClient
	tracker *usage.Tracker
	service *ai.Service
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &config.Config{}
	}
	cfg.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp connects storage and, when withAI is set, the model client.
// The returned cleanup must be called before exit.
func newApp(ctx context.Context, withAI bool) (*app, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(log)

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		store:     st,
		manager:   queue.NewManager(st, log),
		processID: uuid.New(),
	}
	a.manager.SetEnqueueCap(cfg.EnqueueCapOrDefault())

	cleanup := func() {
		if a.client != nil {
			_ = a.client.Close()
		}
		st.Close()
	}

	if withAI {
		if cfg.APIKey == "" {
			cleanup()
			return nil, nil, fmt.Errorf("GEMINI_API_KEY is required for this command")
		}
		model := cfg.ModelOrDefault(usage.DefaultModel)
		client, err := ai.NewGeminiClient(ctx, cfg.APIKey, model)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		a.client = client

		limits, ok := usage.LimitsForModel(model)
		if !ok {
			log.Warn("no rate limit preset for model, limits disabled", "model", model)
			limits = usage.Limits{ModelName: model}
		}
		a.tracker = usage.NewTracker(limits, log)
		a.service = ai.NewService(client, a.tracker, log)
		a.service.SetUsageSink(a.appendUsage)
	}

	return a, cleanup, nil
}

// matchDeps assembles the pipeline dependencies for matching runs.
func (a *app) matchDeps() *match.Deps {
	opts := scrape.DefaultOptions()
	opts.UseBrowser = a.cfg.UseBrowser

	return &match.Deps{
		Scraper: scrape.New(opts),
		History: history.New(a.store),
		Matcher: a.service,
		Fetcher: cv.NewFetcher(),
		Saver:   a.store,
		Log:     a.log,
	}
}

// matchRequest loads the candidate profile and builds the match request.
func (a *app) matchRequest() (match.Request, error) {
	if a.cfg.CandidateFile == "" {
		return match.Request{}, fmt.Errorf("candidate_file is not configured")
	}
	candidate, err := profile.Load(a.cfg.CandidateFile)
	if err != nil {
		return match.Request{}, err
	}
	if a.cfg.CVURL == "" {
		return match.Request{}, fmt.Errorf("cv_url is not configured")
	}
	return match.Request{
		Candidate: candidate,
		CVURL:     a.cfg.CVURL,
		UserID:    a.cfg.UserID,
	}, nil
}

// appendUsage writes one accounting row per model call. Best effort: a
// sink failure is logged, never surfaced to the pipeline.
func (a *app) appendUsage(ctx context.Context, op string, orgID uuid.UUID, u ai.Usage) {
	row := &store.TokenUsageRow{
		ProcessID:   a.processID,
		UserID:      a.cfg.UserID,
		Operation:   op,
		Model:       a.tracker.Limits().ModelName,
		TotalTokens: int64(u.TotalTokens),
		Calls:       1,
		EstCost:     a.tracker.Cost(u.PromptTokens, u.OutputTokens),
	}
	if orgID != uuid.Nil {
		row.OrgID = &orgID
	}
	if err := a.store.AppendTokenUsage(context.WithoutCancel(ctx), row); err != nil {
		a.log.Warn("failed to record token usage", "op", op, "error", err)
	}
}
