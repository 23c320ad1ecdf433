package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scoutly/scoutly/internal/queue"
	"github.com/scoutly/scoutly/internal/schedule"
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show queue depth and tracked organizations",
	RunE:  runStatusCmd,
}

var sweepCommand = &cobra.Command{
	Use:   "sweep",
	Short: "Return abandoned processing jobs to the queue",
	RunE:  runSweepCmd,
}

var (
	statusJobs int
	sweepPrune time.Duration
)

func init() {
	statusCommand.Flags().IntVar(&statusJobs, "jobs", 0,
		"also list the top N saved jobs for the configured user")
	sweepCommand.Flags().DurationVar(&sweepPrune, "prune-older-than", 0,
		"also delete completed and failed queue jobs older than this (e.g. 720h)")
	rootCmd.AddCommand(statusCommand)
	rootCmd.AddCommand(sweepCommand)
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, cleanup, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	status, err := a.manager.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), queue.FormatStatus(status))

	stuck, err := a.manager.Stuck(ctx, a.cfg.StuckAfter())
	if err != nil {
		return err
	}
	if len(stuck) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nStuck jobs (%d):\n", len(stuck))
		for _, j := range stuck {
			started := "unknown"
			if j.StartedAt != nil {
				started = fmt.Sprintf("%s ago", time.Since(*j.StartedAt).Round(time.Minute))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-24s started %s  retries %d\n",
				j.OrgName, started, j.RetryCount)
		}
	}

	orgs, err := a.store.ListTracked(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nTracked organizations (%d):\n", len(orgs))
	now := time.Now()
	for _, org := range orgs {
		freq, err := schedule.FrequencyDescription(org.Rank)
		if err != nil {
			freq = "invalid rank"
		}
		last := "never"
		if org.LastScrapedAt != nil {
			last = fmt.Sprintf("%s ago", now.Sub(*org.LastScrapedAt).Round(time.Minute))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-24s rank %3d  %-14s last scraped %s\n",
			org.Name, org.Rank, freq, last)
	}

	if statusJobs > 0 {
		jobs, err := a.store.ListSavedJobs(ctx, a.cfg.UserID, statusJobs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nSaved jobs (%d):\n", len(jobs))
		for _, j := range jobs {
			fmt.Fprintf(cmd.OutOrStdout(), "  %3d  %-40s %s\n",
				j.SuitabilityScore, j.Title, j.URL)
		}
	}
	return nil
}

func runSweepCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, cleanup, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := a.manager.SweepStuck(ctx, a.cfg.StuckAfter())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reset %d stuck job(s)\n", n)

	if sweepPrune > 0 {
		pruned, err := a.store.PruneFinished(ctx, sweepPrune)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d finished job(s)\n", pruned)
	}
	return nil
}
