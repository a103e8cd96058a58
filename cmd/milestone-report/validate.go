package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd validates the layered configuration without triggering anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration without running",
	Long: `Validate the layered milestone-report configuration (file, environment,
flags) without contacting the remote service.

This is useful as a CI pre-flight check before the run step.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  milestone-report validate -c report.yaml
  PROJECT_IDS=1000107 milestone-report validate`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
	validateCmd.Flags().String("project-ids", "", "comma-separated project identifiers")
	validateCmd.Flags().StringP("output", "o", "", "output file path")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Projects:      %d\n", len(cfg.ProjectIDs))
	fmt.Printf("  Output:        %s\n", cfg.Output)
	fmt.Printf("  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Max attempts:  %d\n", cfg.MaxAttempts)
	fmt.Printf("  Trigger:       %s\n", cfg.TriggerURL())
	fmt.Printf("  Status:        %s\n", cfg.StatusURL())
	if proposals := cfg.ProposalsURL(); proposals != "" {
		fmt.Printf("  Proposals:     %s\n", proposals)
	} else {
		fmt.Printf("  Proposals:     (inline results)\n")
	}

	return nil
}
