package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scoutly/scoutly/internal/store"
	"github.com/scoutly/scoutly/internal/usage"
)

// Worker defaults.
const (
	DefaultBatchSize    = 5
	DefaultPollInterval = 20 * time.Second
	DefaultJobTimeout   = 10 * time.Minute
	DefaultStuckAfter   = 30 * time.Minute
	DefaultDrainDelay   = 2 * time.Second
)

// JobRunner processes one organization, typically by running the full
// pipeline against it.
type JobRunner func(ctx context.Context, org store.Organization) error

// WorkerOptions configures a Worker.
type WorkerOptions struct {
	BatchSize    int
	PollInterval time.Duration
	JobTimeout   time.Duration
	StuckAfter   time.Duration
	// Drain exits once the queue is empty instead of polling forever,
	// pausing DrainDelay between batches.
	Drain      bool
	DrainDelay time.Duration
}

func (o *WorkerOptions) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = DefaultJobTimeout
	}
	if o.StuckAfter <= 0 {
		o.StuckAfter = DefaultStuckAfter
	}
	if o.DrainDelay < 0 {
		o.DrainDelay = DefaultDrainDelay
	}
}

// Worker claims jobs from the queue and runs them through the pipeline,
// in batches with a per-job timeout. On shutdown, in-flight jobs finish
// before Run returns.
type Worker struct {
	manager *Manager
	runner  JobRunner
	tracker *usage.Tracker
	log     *slog.Logger
	opts    WorkerOptions
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewWorker creates a Worker. The tracker may be nil.
func NewWorker(manager *Manager, runner JobRunner, tracker *usage.Tracker, log *slog.Logger, opts WorkerOptions) *Worker {
	if log == nil {
		log = slog.Default()
	}
	opts.applyDefaults()
	return &Worker{
		manager: manager,
		runner:  runner,
		tracker: tracker,
		log:     log,
		opts:    opts,
		sleep:   sleepCtx,
	}
}

// Run executes the worker loop until the context is canceled, or in drain
// mode until the queue is empty.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker starting",
		"batch_size", w.opts.BatchSize, "poll_interval", w.opts.PollInterval, "drain", w.opts.Drain)

	minuteReset := time.NewTicker(time.Minute)
	defer minuteReset.Stop()

	for {
		if err := ctx.Err(); err != nil {
			w.log.Info("worker stopping")
			return nil
		}

		select {
		case <-minuteReset.C:
			if w.tracker != nil {
				w.tracker.ResetMinute()
			}
		default:
		}

		if _, err := w.manager.SweepStuck(ctx, w.opts.StuckAfter); err != nil {
			w.log.Error("stuck sweep failed", "error", err)
		}

		processed, err := w.runBatch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if processed == 0 {
			if w.opts.Drain {
				w.log.Info("queue drained")
				return nil
			}
			if err := w.sleep(ctx, w.opts.PollInterval); err != nil {
				return nil
			}
			continue
		}

		if w.opts.Drain && w.opts.DrainDelay > 0 {
			if err := w.sleep(ctx, w.opts.DrainDelay); err != nil {
				return nil
			}
		}
	}
}

// runBatch claims up to BatchSize jobs and processes them concurrently.
// Returns how many jobs were claimed.
func (w *Worker) runBatch(ctx context.Context) (int, error) {
	var jobs []*store.QueueJob
	for len(jobs) < w.opts.BatchSize {
		job, err := w.manager.storage.ClaimNext(ctx)
		if err != nil {
			return len(jobs), err
		}
		if job == nil {
			break
		}
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	// in-flight jobs finish even when ctx is canceled mid-batch
	base := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	for _, job := range jobs {
		g.Go(func() error {
			w.processJob(base, job)
			return nil
		})
	}
	_ = g.Wait()

	return len(jobs), ctx.Err()
}

// processJob runs one claimed job with the per-job timeout and settles
// its queue status.
func (w *Worker) processJob(ctx context.Context, job *store.QueueJob) {
	log := w.log.With("job", job.ID, "org", job.OrgID)

	org, err := w.manager.storage.GetOrganization(ctx, job.OrgID)
	if err == nil && org == nil {
		err = fmt.Errorf("organization %s no longer exists", job.OrgID)
	}
	if err != nil {
		w.settleFailure(ctx, log, job, nil, err)
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.opts.JobTimeout)
	defer cancel()

	start := time.Now()
	runErr := w.runner(jobCtx, *org)
	elapsed := time.Since(start)

	if runErr != nil {
		log.Warn("job failed", "error", runErr, "duration", elapsed)
		w.settleFailure(ctx, log, job, org, runErr)
		return
	}

	if err := w.manager.storage.MarkCompleted(ctx, job.ID); err != nil {
		log.Error("failed to mark job completed", "error", err)
	}
	if err := w.manager.storage.StampScraped(ctx, org.ID, time.Now(), true); err != nil {
		log.Error("failed to stamp successful scrape", "error", err)
	}
	log.Info("job completed", "duration", elapsed)
}

// settleFailure records the failure and, when retries are exhausted,
// flags the organization as problematic.
func (w *Worker) settleFailure(ctx context.Context, log *slog.Logger, job *store.QueueJob, org *store.Organization, cause error) {
	failed, err := w.manager.storage.MarkFailed(ctx, job.ID, cause.Error())
	if err != nil {
		log.Error("failed to record job failure", "error", err)
		return
	}

	if org != nil {
		if err := w.manager.storage.StampScraped(ctx, org.ID, time.Now(), false); err != nil {
			log.Error("failed to stamp scrape attempt", "error", err)
		}
	}

	if failed != nil && failed.Status == store.StatusFailed && org != nil {
		log.Warn("retries exhausted, marking organization problematic", "retries", failed.RetryCount)
		if err := w.manager.storage.MarkProblematic(ctx, org.ID, true); err != nil {
			log.Error("failed to mark organization problematic", "error", err)
		}
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
