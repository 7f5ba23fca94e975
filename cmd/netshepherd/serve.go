package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	netshepherd "github.com/MattHedgcorth/net-shepherd"
	"github.com/MattHedgcorth/net-shepherd/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the NetShepherd API and dashboard.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API and dashboard server",
	Long: `Start the NetShepherd server.

The server will:
  - Load configuration and the server inventory
  - Serve the JSON API, the SSE stream, and the dashboard UI
  - Start an all-servers run every auto_poll interval, if configured

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  netshepherd serve -c config.yaml
  netshepherd serve --config /etc/netshepherd/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"inventory", cfg.Inventory,
		"checker", cfg.Checker.Mode,
	)
	logger.Info("starting server",
		"port", cfg.Port,
		"max_concurrency", cfg.MaxConcurrency,
		"pacing", cfg.PacingDuration().String(),
	)

	opts := append(config.BuildOptions(cfg), netshepherd.WithLogger(logger))
	sh, err := netshepherd.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create NetShepherd: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- sh.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
