package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	netshepherd "github.com/MattHedgcorth/net-shepherd"
	"github.com/MattHedgcorth/net-shepherd/config"
)

// pollCmd runs a single pass without serving.
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run one polling pass and print the results",
	Long: `Probe every website of the inventory once, or only the websites of one
server with --server, and print a status table and a run summary.

Concurrency, pacing, and the checker mode come from the config file. Ctrl+C
stops the run; results already written are still printed.

Exit codes:
  0 - The run completed (and, with --strict, every website answered 200)
  1 - The run could not start, or --strict and a website is down

Example:
  netshepherd poll -c config.yaml
  netshepherd poll -c config.yaml --server web-01 --strict`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)

	pollCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	pollCmd.Flags().StringP("server", "s", "", "only poll the websites of this server")
	pollCmd.Flags().Bool("strict", false, "exit non-zero when any website is down")
	_ = pollCmd.MarkFlagRequired("config")
}

func runPoll(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	serverID, _ := cmd.Flags().GetString("server")
	strict, _ := cmd.Flags().GetBool("strict")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := append(config.BuildOptions(cfg), netshepherd.WithLogger(logger))
	sh, err := netshepherd.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create NetShepherd: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := sh.Poll(ctx, serverID)
	if err != nil {
		return fmt.Errorf("poll failed: %w", err)
	}

	printResults(cmd, sh.Servers(), serverID)

	fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s: %d checked, %d running, %d failed, %d skipped in %s\n",
		sum.RunID, sum.Checked, sum.Running, sum.Failed, sum.Skipped, sum.Duration.Round(time.Millisecond))
	if sum.Stopped {
		fmt.Fprintln(cmd.OutOrStdout(), "run was stopped before completion")
	}

	if strict && sum.Failed > 0 {
		return fmt.Errorf("%d of %d websites are down", sum.Failed, sum.Total)
	}
	return nil
}

func printResults(cmd *cobra.Command, servers []netshepherd.Server, serverID string) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVER\tWEBSITE\tSTATUS\tCODE\tTIME\tURL")
	for _, s := range servers {
		if serverID != "" && s.ID != serverID {
			continue
		}
		for _, w := range s.Websites {
			state := "down"
			switch {
			case w.Status.LastChecked.IsZero():
				state = "unchecked"
			case w.Status.IsRunning:
				state = "up"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%dms\t%s\n",
				s.ID, w.ID, state, w.Status.LastStatusCode, w.Status.ResponseTime, w.PrimaryURL)
		}
	}
	_ = tw.Flush()
}
