package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/scoutly/scoutly/internal/queue"
	"github.com/scoutly/scoutly/internal/store"
)

var workerCommand = &cobra.Command{
	Use:   "worker",
	Short: "Run the queue worker loop",
	Long: `Claims scrape jobs from the queue in batches and runs each through the
matching pipeline. Runs until interrupted; with --drain it exits once the
queue is empty. Each loop also enqueues organizations that have become
due and returns abandoned jobs to the queue.`,
	RunE: runWorkerCmd,
}

var (
	workerDrain       bool
	workerEnqueueSpec string
)

func init() {
	workerCommand.Flags().BoolVar(&workerDrain, "drain", false, "Exit when the queue is empty instead of polling")
	workerCommand.Flags().StringVar(&workerEnqueueSpec, "enqueue-schedule", "@every 10m",
		"Cron schedule for enqueueing newly due organizations while running")
	rootCmd.AddCommand(workerCommand)
}

func runWorkerCmd(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	req, err := a.matchRequest()
	if err != nil {
		return err
	}
	deps := a.matchDeps()

	if n, err := a.manager.EnqueueDue(ctx); err != nil {
		return err
	} else if n > 0 {
		a.log.Info("enqueued due organizations", "count", n)
	}

	// keep feeding the queue while the worker runs
	if !workerDrain {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(workerEnqueueSpec, func() {
			if _, err := a.manager.EnqueueDue(ctx); err != nil {
				a.log.Error("scheduling pass failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid enqueue schedule %q: %w", workerEnqueueSpec, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	runner := func(jobCtx context.Context, org store.Organization) error {
		res, err := deps.One(jobCtx, req, org)
		if err != nil {
			return err
		}
		if !res.Processed {
			return fmt.Errorf("pipeline failed: %s", res.Reason)
		}
		a.log.Info("organization matched",
			"org", res.OrgName, "new_links", res.NewLinks,
			"shortlisted", res.Shortlisted, "saved", res.Saved)
		return nil
	}

	w := queue.NewWorker(a.manager, runner, a.tracker, a.log, queue.WorkerOptions{
		BatchSize:    a.cfg.BatchSizeOrDefault(),
		PollInterval: a.cfg.PollInterval(),
		JobTimeout:   a.cfg.JobTimeout(),
		StuckAfter:   a.cfg.StuckAfter(),
		Drain:        workerDrain,
		DrainDelay:   queue.DefaultDrainDelay,
	})

	err = w.Run(ctx)

	if a.tracker != nil {
		fmt.Println(a.tracker.Summary())
	}
	return err
}
