package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scoutly/scoutly/internal/schedule"
)

var orgCommand = &cobra.Command{
	Use:   "org",
	Short: "Manage tracked organizations",
}

var orgAddCommand = &cobra.Command{
	Use:   "add",
	Short: "Track an organization's careers page",
	RunE:  runOrgAddCmd,
}

var orgListCommand = &cobra.Command{
	Use:   "list",
	Short: "List tracked organizations",
	RunE:  runOrgListCmd,
}

var orgPauseCommand = &cobra.Command{
	Use:   "pause <name>",
	Short: "Pause scheduling for an organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setOrgTracking(cmd, args[0], false)
	},
}

var orgResumeCommand = &cobra.Command{
	Use:   "resume <name>",
	Short: "Resume scheduling for a paused organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setOrgTracking(cmd, args[0], true)
	},
}

var (
	orgName string
	orgURL  string
	orgRank int
)

func init() {
	orgAddCommand.Flags().StringVar(&orgName, "name", "", "Organization name")
	orgAddCommand.Flags().StringVar(&orgURL, "url", "", "Careers page URL")
	orgAddCommand.Flags().IntVar(&orgRank, "rank", 50, "Interest rank 1-100, higher scrapes more often")
	_ = orgAddCommand.MarkFlagRequired("name")
	_ = orgAddCommand.MarkFlagRequired("url")

	orgCommand.AddCommand(orgAddCommand)
	orgCommand.AddCommand(orgListCommand)
	orgCommand.AddCommand(orgPauseCommand)
	orgCommand.AddCommand(orgResumeCommand)
	rootCmd.AddCommand(orgCommand)
}

func runOrgAddCmd(cmd *cobra.Command, _ []string) error {
	freq, err := schedule.FrequencyDescription(orgRank)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, cleanup, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	org, err := a.store.UpsertOrganization(ctx, orgName, orgURL, orgRank)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tracking %s (rank %d, %s): %s\n",
		org.Name, org.Rank, freq, org.CareersURL)
	return nil
}

func setOrgTracking(cmd *cobra.Command, name string, tracking bool) error {
	ctx := context.Background()
	a, cleanup, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	org, err := a.store.FindOrganizationByName(ctx, name)
	if err != nil {
		return err
	}
	if org == nil {
		return fmt.Errorf("no organization named %q", name)
	}
	if err := a.store.SetTracking(ctx, org.ID, tracking); err != nil {
		return err
	}
	verb := "Paused"
	if tracking {
		verb = "Resumed"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s tracking for %s\n", verb, org.Name)
	return nil
}

func runOrgListCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, cleanup, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	orgs, err := a.store.ListTracked(ctx)
	if err != nil {
		return err
	}
	if len(orgs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tracked organizations. Add one with: scoutly org add")
		return nil
	}
	for _, org := range orgs {
		freq, _ := schedule.FrequencyDescription(org.Rank)
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s rank %3d  %-14s %s\n",
			org.Name, org.Rank, freq, org.CareersURL)
	}
	return nil
}
