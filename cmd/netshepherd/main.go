// Package main is the entry point for the netshepherd CLI.
//
// NetShepherd can be embedded as a library (SDK) or run as a standalone
// binary with YAML configuration. This CLI provides the standalone binary.
//
// Usage:
//
//	netshepherd serve -c config.yaml     # Start the API and dashboard
//	netshepherd validate -c config.yaml  # Validate configuration and inventory
//	netshepherd check https://example.com
//	netshepherd poll -c config.yaml      # Run one pass and print the results
//	netshepherd version                  # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

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
var rootCmd = &cobra.Command{
	Use:   "netshepherd",
	Short: "Fleet website availability monitor",
	Long: `NetShepherd keeps an inventory of servers and the websites they host,
probes every website over HTTP, and serves the results through a JSON API,
a Server-Sent Events stream, and a web dashboard.

Quick start:
  1. Describe your fleet in servers.json
  2. Point a config file (netshepherd.yaml) at it
  3. Run: netshepherd serve -c netshepherd.yaml
  4. Open http://localhost:5085 in your browser

Example config:
  port: 5085
  inventory: ./servers.json
  max_concurrency: 10
  pacing: 1s
  auto_poll: 5m`,
	SilenceUsage: true,
}

// Execute runs the root command.
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
	Long:  `Print the version, commit hash, and build date of this netshepherd binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "netshepherd %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(versionCmd)
}

// newLogger creates a JSON logger on stderr at the level of --log-level.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := parseLevel(raw)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
