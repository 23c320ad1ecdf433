// Package main provides the scoutly CLI: a job-scouting engine that
// scrapes tracked careers pages on a rank-driven schedule and matches
// postings against a candidate profile.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scoutly",
	Short: "Rank-scheduled job scraping and AI matching",
	Long: `Scoutly tracks company careers pages, scrapes them on a schedule driven
by each company's rank, and runs new postings through an AI matching
pipeline against your CV and preferences.`,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json (env vars fill the gaps)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
