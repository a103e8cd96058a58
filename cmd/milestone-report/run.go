package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	milestonereport "github.com/catalyst-tools/milestone-report"
	"github.com/catalyst-tools/milestone-report/config"
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// runCmd executes the report pipeline.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trigger the report job and write the result file",
	Long: `Trigger the remote report job, poll its status until completion,
and write the normalized report to the output path.

The command will:
  - Build configuration from defaults, optional config file, environment
    variables, and flags (in increasing precedence)
  - POST the trigger endpoint once (never retried)
  - GET the status endpoint at a fixed interval until the job reports
    completed or partial with data available
  - Fetch the full result set, normalize it, and write the JSON file

Exit codes:
  0 - Report written
  1 - Any fatal error (bad config, trigger rejection, poll timeout,
      write failure); the error is printed first

Example:
  PROJECT_IDS=1000107,1100214 milestone-report run
  milestone-report run -c report.yaml -o data/report.json`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
	runCmd.Flags().String("project-ids", "", "comma-separated project identifiers")
	runCmd.Flags().StringP("output", "o", "", "output file path")
}

// buildConfig layers file, environment, and flag values into one config.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.Default()
	}

	cfg.ApplyEnv()

	if ids, _ := cmd.Flags().GetString("project-ids"); ids != "" {
		cfg.ProjectIDs = config.SplitProjectIDs(ids)
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Output = output
	}

	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// one correlation ID per run so pipeline logs are greppable
	runID := uuid.NewString()
	logger := newLogger().With("run_id", runID)

	reporter, err := milestonereport.New(cfg, milestonereport.WithLogger(logger))
	if err != nil {
		return err
	}

	// cancel on SIGINT/SIGTERM so a stuck poll doesn't hang the pipeline step
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bar := newSpinner("Waiting for report job")
	result, err := reporter.Run(ctx)
	finishBar(bar)
	if err != nil {
		return err
	}

	fmt.Printf("Report written to %s\n", result.Path)
	fmt.Printf("  Projects: %d\n", result.Projects)
	fmt.Printf("  Status:   %s\n", result.Status)
	fmt.Printf("  Attempts: %d\n", result.Attempts)

	return nil
}

// newSpinner renders an indeterminate spinner while the poll loop waits.
func newSpinner(description string) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	_ = bar.RenderBlank()
	return bar
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}
