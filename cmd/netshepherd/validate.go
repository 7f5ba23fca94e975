package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MattHedgcorth/net-shepherd/config"
	"github.com/MattHedgcorth/net-shepherd/internal/inventory"
)

// validateCmd validates a config file and its inventory without serving.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file and its inventory",
	Long: `Validate a NetShepherd configuration file and the inventory it points to
without starting the server.

This command parses the YAML, expands environment variables, validates all
fields, then loads and validates servers.json. It's useful for CI/CD
pipelines or pre-deployment checks.

Exit codes:
  0 - Config and inventory are valid
  1 - Config or inventory is invalid (error details printed to stderr)

Example:
  netshepherd validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	servers, err := inventory.Load(cfg.Inventory)
	if err != nil {
		return fmt.Errorf("invalid inventory: %w", err)
	}

	websites := 0
	for _, s := range servers {
		websites += len(s.Websites)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:            %d\n", cfg.Port)
	fmt.Fprintf(out, "  Checker:         %s\n", cfg.Checker.Mode)
	fmt.Fprintf(out, "  Max concurrency: %d\n", cfg.MaxConcurrency)
	fmt.Fprintf(out, "  Pacing:          %s\n", cfg.PacingDuration())
	fmt.Fprintf(out, "  Inventory:       %d servers, %d websites\n", len(servers), websites)

	return nil
}
