package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Stage is one step of the pipeline.
type Stage interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// Skippable stages can declare their work already done for this run.
type Skippable interface {
	CanSkip(state *State) bool
}

// Validatable stages check their required inputs before executing.
type Validatable interface {
	Validate(state *State) error
}

// FailureHook stages get a callback after a failed run, typically to log
// diagnostic counts. Hook panics are logged and never propagated.
type FailureHook interface {
	OnFailure(ctx context.Context, state *State, err error)
}

// Stage outcome statuses.
const (
	StageCompleted = "completed"
	StageFailed    = "failed"
	StageSkipped   = "skipped"
)

// StageResult records the outcome of one stage.
type StageResult struct {
	Name     string
	Status   string
	Err      error
	Duration time.Duration
}

// Options configures a pipeline run.
type Options struct {
	// ContinueOnError keeps executing later stages after a degradable
	// failure. Abortive failures stop the run regardless.
	ContinueOnError bool
	// AllowSkipping lets stages skip when their work is already done.
	AllowSkipping bool
	// Timeout bounds the whole run. Zero means no engine-level bound.
	Timeout time.Duration
}

// Result summarizes a pipeline run.
type Result struct {
	Stages    []StageResult
	Completed int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Err returns the first stage failure, or nil when every executed stage
// completed.
func (r *Result) Err() error {
	for _, sr := range r.Stages {
		if sr.Status == StageFailed {
			return sr.Err
		}
	}
	return nil
}

// Engine executes stages in order against a shared State.
type Engine struct {
	stages []Stage
	opts   Options
}

// NewEngine creates an Engine over the given stages.
func NewEngine(stages []Stage, opts Options) *Engine {
	return &Engine{stages: stages, opts: opts}
}

// Run executes the stages. A stage failure stops the run unless
// ContinueOnError is set; an AbortError stops it unconditionally. Stages
// after a stop do not appear in the result.
func (e *Engine) Run(ctx context.Context, state *State) (*Result, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	result := &Result{}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	for _, stage := range e.stages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		log := state.Log.With("stage", stage.Name())

		if e.opts.AllowSkipping {
			if sk, ok := stage.(Skippable); ok && sk.CanSkip(state) {
				log.Info("stage skipped")
				result.Stages = append(result.Stages, StageResult{Name: stage.Name(), Status: StageSkipped})
				result.Skipped++
				continue
			}
		}

		stageStart := time.Now()
		var err error
		if v, ok := stage.(Validatable); ok {
			err = v.Validate(state)
		}
		if err == nil {
			log.Info("stage starting")
			err = stage.Execute(ctx, state)
		}
		elapsed := time.Since(stageStart)

		if err != nil {
			log.Error("stage failed", "error", err, "duration", elapsed)
			result.Stages = append(result.Stages, StageResult{
				Name: stage.Name(), Status: StageFailed, Err: err, Duration: elapsed,
			})
			result.Failed++

			if h, ok := stage.(FailureHook); ok {
				runFailureHook(ctx, h, state, err, log)
			}

			var abort *AbortError
			if errors.As(err, &abort) {
				return result, err
			}
			if !e.opts.ContinueOnError {
				return result, err
			}
			continue
		}

		log.Info("stage completed", "duration", elapsed)
		result.Stages = append(result.Stages, StageResult{
			Name: stage.Name(), Status: StageCompleted, Duration: elapsed,
		})
		result.Completed++
	}

	return result, nil
}

func runFailureHook(ctx context.Context, h FailureHook, state *State, cause error, log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("failure hook panicked", "panic", r)
		}
	}()
	h.OnFailure(ctx, state, cause)
}
