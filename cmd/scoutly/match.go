package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scoutly/scoutly/internal/store"
)

var matchCommand = &cobra.Command{
	Use:   "match",
	Short: "Match organizations on demand",
	Long: `Runs the full matching pipeline immediately for the named
organizations (or all tracked ones with --all), bypassing the queue and
the scrape schedule.`,
	RunE: runMatchCmd,
}

var (
	matchOrgNames []string
	matchAll      bool
)

func init() {
	matchCommand.Flags().StringSliceVar(&matchOrgNames, "org", nil, "Organization name to match (repeatable)")
	matchCommand.Flags().BoolVar(&matchAll, "all", false, "Match every tracked organization")
	rootCmd.AddCommand(matchCommand)
}

func runMatchCmd(cmd *cobra.Command, _ []string) error {
	if !matchAll && len(matchOrgNames) == 0 {
		return fmt.Errorf("pass --org at least once, or --all")
	}

	ctx := context.Background()

	a, cleanup, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	req, err := a.matchRequest()
	if err != nil {
		return err
	}

	tracked, err := a.store.ListTracked(ctx)
	if err != nil {
		return err
	}

	var orgs []store.Organization
	if matchAll {
		orgs = tracked
	} else {
		wanted := make(map[string]bool, len(matchOrgNames))
		for _, n := range matchOrgNames {
			wanted[strings.ToLower(n)] = true
		}
		for _, org := range tracked {
			if wanted[strings.ToLower(org.Name)] {
				orgs = append(orgs, org)
			}
		}
		if len(orgs) == 0 {
			return fmt.Errorf("no tracked organization matches %v", matchOrgNames)
		}
	}

	results, err := a.matchDeps().Batch(ctx, req, orgs)
	if err != nil {
		return err
	}

	for _, res := range results {
		if !res.Processed {
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s FAILED: %s\n", res.OrgName, res.Reason)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s new %d, shortlisted %d, saved %d, duplicates %d\n",
			res.OrgName, res.NewLinks, res.Shortlisted, res.Saved, res.Duplicates)
	}

	if a.tracker != nil {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), a.tracker.Summary())
	}
	return nil
}
