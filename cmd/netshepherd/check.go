package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MattHedgcorth/net-shepherd/internal/probe"
)

// checkCmd probes one URL and prints the result.
var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Probe a single URL",
	Long: `Probe a single URL the way a polling run does and print the result as
JSON, in the same shape as GET /api/WebsiteStatus/check.

A HEAD request is sent first; if the site rejects HEAD, a GET follows.

Example:
  netshepherd check https://example.com
  netshepherd check --timeout 2s https://example.com/health`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Duration("timeout", probe.DefaultTimeout, "probe timeout")
	checkCmd.Flags().String("user-agent", probe.DefaultUserAgent, "User-Agent header of the probe")
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ua, _ := cmd.Flags().GetString("user-agent")

	prober := probe.NewProber(timeout, ua, logger)
	defer prober.Close()

	res := prober.Check(cmd.Context(), args[0])

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
