package netshepherd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/MattHedgcorth/net-shepherd/dashboard"
	"github.com/MattHedgcorth/net-shepherd/internal/inventory"
	"github.com/MattHedgcorth/net-shepherd/internal/poller"
	"github.com/MattHedgcorth/net-shepherd/internal/probe"
	"github.com/MattHedgcorth/net-shepherd/internal/server"
)

const (
	defaultPort           = 5085
	defaultMaxConcurrency = 10
	defaultPacing         = time.Second
	defaultRateRequests   = 120
	defaultRateWindow     = time.Minute
)

// Shepherd owns the inventory, the polling orchestrator, and the HTTP
// server. It is created using [New] with functional options and served
// with [Shepherd.Start].
//
// The typical lifecycle is:
//
//	sh, err := netshepherd.New(netshepherd.WithInventoryFile("servers.json"))
//	if err != nil {
//	    slog.Error("failed to create netshepherd", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	sh.Start(ctx) // blocks until context cancelled
type Shepherd struct {
	title           string
	port            int
	autoPoll        time.Duration
	rateLimit       server.RateLimit
	checkerMode     string
	logger          *slog.Logger
	statusCallbacks []func(StatusUpdate)

	store  *inventory.MemoryStore
	prober *probe.Prober
	orch   *poller.Orchestrator
}

// New creates a new [Shepherd] instance with the given options.
//
// An inventory must be configured via [WithInventoryFile] or [WithInventory].
// Other options have defaults:
//   - Port: 5085
//   - Max concurrency: 10
//   - Pacing: 1 second
//   - Probe timeout: 5 seconds
//   - Probe endpoint rate limit: 120 requests per minute per client IP
//
// Returns an error if the inventory is missing or invalid, or if any option
// is invalid.
func New(opts ...Option) (*Shepherd, error) {
	cfg := &shepherdConfig{
		port:           defaultPort,
		maxConcurrency: defaultMaxConcurrency,
		pacing:         defaultPacing,
		rateRequests:   defaultRateRequests,
		rateWindow:     defaultRateWindow,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	servers, err := resolveInventory(cfg)
	if err != nil {
		return nil, err
	}

	prober := probe.NewProber(cfg.probeTimeout, cfg.userAgent, logger)

	var checker poller.Checker = poller.NewLocalChecker(prober)
	mode := "local"
	if cfg.remoteEndpoint != "" {
		remote, err := poller.NewRemoteChecker(cfg.remoteEndpoint, cfg.remoteTimeout, poller.BreakerConfig{
			Failures: cfg.breakerFailures,
			Cooldown: cfg.breakerCooldown,
		}, logger)
		if err != nil {
			return nil, err
		}
		checker = remote
		mode = "remote"
	}

	sh := &Shepherd{
		title:           cfg.title,
		port:            cfg.port,
		autoPoll:        cfg.autoPoll,
		rateLimit:       server.RateLimit{Requests: cfg.rateRequests, Window: cfg.rateWindow},
		checkerMode:     mode,
		logger:          logger,
		statusCallbacks: cfg.statusCallbacks,
		store:           inventory.NewMemoryStore(servers),
		prober:          prober,
	}

	sh.orch = poller.NewOrchestrator(sh.store, checker, poller.Config{
		MaxConcurrency: cfg.maxConcurrency,
		Pacing:         cfg.pacing,
		Logger:         logger,
		OnUpdate:       sh.dispatchUpdate,
	})

	return sh, nil
}

func resolveInventory(cfg *shepherdConfig) ([]Server, error) {
	switch {
	case cfg.inventoryFile != "" && len(cfg.servers) > 0:
		return nil, errors.New("inventory file and inline inventory are mutually exclusive")
	case cfg.inventoryFile != "":
		return inventory.Load(cfg.inventoryFile)
	case len(cfg.servers) > 0:
		if err := inventory.Validate(cfg.servers); err != nil {
			return nil, fmt.Errorf("invalid inventory: %w", err)
		}
		return cfg.servers, nil
	default:
		return nil, errors.New("an inventory is required")
	}
}

// Start serves the HTTP API and dashboard until ctx is cancelled.
//
// When auto-polling is configured, an all-servers run starts immediately and
// then at every interval. On shutdown any active run is stopped.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (sh *Shepherd) Start(ctx context.Context) error {
	sh.logger.Info("netshepherd starting",
		"server_count", len(sh.store.Servers()),
		"checker", sh.checkerMode,
	)

	if ctx.Err() != nil {
		return nil
	}

	httpServer := server.New(sh.store, sh.prober, sh.orch, server.Config{
		Port:      sh.port,
		Title:     sh.title,
		Assets:    dashboard.Assets,
		RateLimit: sh.rateLimit,
		Logger:    sh.logger,
	})
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	sh.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", sh.port))

	done := make(chan struct{})
	if sh.autoPoll > 0 {
		sh.logger.Info("auto-poll configured", "interval", sh.autoPoll.String())
		go func() {
			defer close(done)
			sh.autoPollLoop(ctx)
		}()
	} else {
		close(done)
	}

	<-ctx.Done()
	<-done
	sh.orch.Stop()
	sh.prober.Close()
	sh.logger.Info("netshepherd stopped")
	return nil
}

// autoPollLoop starts an all-servers run now and on every tick.
func (sh *Shepherd) autoPollLoop(ctx context.Context) {
	ticker := time.NewTicker(sh.autoPoll)
	defer ticker.Stop()

	for {
		sh.startAutoRun(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (sh *Shepherd) startAutoRun(ctx context.Context) {
	runID, err := sh.orch.Start(ctx, poller.AllServers)
	switch {
	case err == nil:
		sh.logger.Debug("auto-poll run started", "run_id", runID)
	case errors.Is(err, poller.ErrPollInProgress):
		sh.logger.Debug("auto-poll skipped, run in progress")
	default:
		sh.logger.Error("auto-poll failed to start", "error", err)
	}
}

// Poll runs one pass over serverID's websites, or over every website when
// serverID is empty, and blocks until it completes or ctx is cancelled. It
// does not need [Shepherd.Start].
//
// Returns [ErrPollInProgress] if a run is already active and an error
// wrapping [ErrServerNotFound] for an unknown server.
func (sh *Shepherd) Poll(ctx context.Context, serverID string) (RunSummary, error) {
	sum, err := sh.orch.Poll(ctx, poller.Scope(serverID))
	if err != nil {
		return RunSummary{}, err
	}
	return summaryFromPoller(sum), nil
}

// StartPolling begins a run in the background and returns its id. ctx
// bounds the run's lifetime.
func (sh *Shepherd) StartPolling(ctx context.Context, serverID string) (string, error) {
	return sh.orch.Start(ctx, poller.Scope(serverID))
}

// TogglePause flips the pause flag of the orchestrator and returns it.
func (sh *Shepherd) TogglePause() bool {
	return sh.orch.TogglePause()
}

// StopPolling stops the active run and reports whether one was active.
func (sh *Shepherd) StopPolling() bool {
	return sh.orch.Stop()
}

// State returns a snapshot of the polling state.
func (sh *Shepherd) State() PollingState {
	return sh.orch.State()
}

// Servers returns a snapshot of the inventory with current statuses.
func (sh *Shepherd) Servers() []Server {
	return sh.store.Servers()
}

// Server returns one server of the inventory.
func (sh *Shepherd) Server(id string) (Server, bool) {
	return sh.store.Server(id)
}

// Port returns the configured HTTP port.
func (sh *Shepherd) Port() int {
	return sh.port
}

// dispatchUpdate fans a status write out to the registered callbacks.
func (sh *Shepherd) dispatchUpdate(u poller.Update) {
	if len(sh.statusCallbacks) == 0 {
		return
	}
	update := updateFromPoller(u)
	for _, cb := range sh.statusCallbacks {
		invokeCallbackSafe(cb, update, sh.logger)
	}
}

// invokeCallbackSafe calls a status callback with panic recovery.
// Panics are logged with a correlation ID and stack trace but do not propagate.
func invokeCallbackSafe(cb func(StatusUpdate), update StatusUpdate, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("status callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"server_id", update.ServerID,
				"website_id", update.WebsiteID,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(update)
}
