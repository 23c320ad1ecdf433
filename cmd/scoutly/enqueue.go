package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var enqueueCommand = &cobra.Command{
	Use:   "enqueue",
	Short: "Run one scheduling pass",
	Long: `Checks every tracked organization against its rank-driven scrape
interval and enqueues the due ones, highest priority first. Already
queued organizations are left alone.`,
	RunE: runEnqueueCmd,
}

func init() {
	rootCmd.AddCommand(enqueueCommand)
}

func runEnqueueCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, cleanup, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := a.manager.EnqueueDue(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %d organization(s)\n", n)
	return nil
}
