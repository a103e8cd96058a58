// Package main is the entry point for the milestone-report CLI.
//
// milestone-report is a CI-time utility: it triggers a remote milestone
// report job, polls until the job completes, and writes the normalized
// result set to a JSON file.
//
// Usage:
//
//	milestone-report run                      # config from environment
//	milestone-report run -c report.yaml       # config from file
//	milestone-report validate -c report.yaml  # validate configuration
//	milestone-report version                  # show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "milestone-report",
	Short: "Snapshot project milestone data into a JSON report",
	Long: `milestone-report triggers a remote milestone report job, polls its
status until completion, and writes the result to a JSON file.

It is built to run as a pipeline step. Minimal invocation:

  PROJECT_IDS=1000107,1100214 milestone-report run

Configuration precedence: flags > environment > config file > defaults.

Environment variables:
  PROJECT_IDS          comma-separated project identifiers (required)
  REPORT_OUTPUT        output file path (default data/milestones-report.json)
  MILESTONES_BASE_URL  remote service base URL`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this milestone-report binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("milestone-report %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
