package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MattHedgcorth/net-shepherd/internal/inventory"
)

// DefaultMaxConcurrency is the default size of the worker pool.
const DefaultMaxConcurrency = 10

// ErrPollInProgress is returned when a run is requested while another run is
// active. Callers that follow the "drop silently" contract treat it as a no-op.
var ErrPollInProgress = errors.New("poll already in progress")

// errRunStopped ends a worker whose run was stopped before its context
// cancellation became visible.
var errRunStopped = errors.New("run stopped")

// Scope selects the websites a run covers: one server's websites, or every
// website when it is [AllServers].
type Scope string

// AllServers is the scope covering every server in the inventory.
const AllServers Scope = ""

func (s Scope) String() string {
	if s == AllServers {
		return "all"
	}
	return string(s)
}

// Update describes one status written into the inventory by a run.
type Update struct {
	RunID     string
	ServerID  string
	WebsiteID string
	URL       string
	Status    inventory.Status

	// Err is the checker error the status was synthesized from, if any.
	Err error
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID string
	Scope Scope

	// Total is the number of websites in scope when the run started.
	Total int

	// Checked is the number of statuses written. Running and Failed split
	// it by the resulting isRunning flag.
	Checked int
	Running int
	Failed  int

	// Skipped is Total minus Checked: websites never probed, or whose
	// result was discarded because the run was stopped.
	Skipped int

	// Stopped reports whether the run ended by stop or cancellation rather
	// than by exhausting its queue.
	Stopped bool

	Duration time.Duration
}

// State is the externally observable orchestrator state.
type State struct {
	IsPolling bool `json:"isPolling"`
	IsPaused  bool `json:"isPaused"`

	// PollingServerID is the server targeted by the active run. It is nil
	// when idle or when the run covers all servers.
	PollingServerID *string `json:"pollingServerId"`

	// PollingWebsiteIDs holds the ids of websites with a probe in flight,
	// sorted.
	PollingWebsiteIDs []string `json:"pollingWebsiteIds"`

	RunID string `json:"runId,omitempty"`
}

// Config configures an [Orchestrator].
type Config struct {
	// MaxConcurrency bounds the number of probes in flight.
	// Default: 10
	MaxConcurrency int

	// Pacing is the delay each worker waits before every probe it
	// dispatches. Zero disables pacing.
	Pacing time.Duration

	// Logger receives run lifecycle and per-probe events.
	// Default: slog.Default()
	Logger *slog.Logger

	// OnUpdate, when set, is called after each status write. It runs on the
	// worker goroutine and must not block for long.
	OnUpdate func(Update)
}

// run is the state owned by one orchestrator invocation. Its mutable fields
// are guarded by the orchestrator's mutex.
type run struct {
	id      string
	scope   Scope
	targets []inventory.Target
	started time.Time

	ctx    context.Context
	cancel context.CancelFunc

	inflight map[string]struct{}
	stopped  bool

	checked int
	running int
	failed  int
}

// Orchestrator runs polling passes over the inventory with a bounded worker
// pool. At most one run is active at a time.
//
// Pause is a property of the orchestrator, not of a run: it survives the
// end of a run and gates the next one until toggled off.
//
// All methods are safe for concurrent use.
type Orchestrator struct {
	store          inventory.Store
	checker        Checker
	maxConcurrency int
	pacing         time.Duration
	logger         *slog.Logger
	onUpdate       func(Update)

	mu      sync.Mutex
	current *run
	paused  bool
	resumed chan struct{} // closed on resume; replaced on pause
}

// NewOrchestrator creates an [Orchestrator] that reads targets from and
// writes statuses to store, probing through checker.
func NewOrchestrator(store inventory.Store, checker Checker, cfg Config) *Orchestrator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	resumed := make(chan struct{})
	close(resumed)

	return &Orchestrator{
		store:          store,
		checker:        checker,
		maxConcurrency: cfg.MaxConcurrency,
		pacing:         cfg.Pacing,
		logger:         cfg.Logger,
		onUpdate:       cfg.OnUpdate,
		resumed:        resumed,
	}
}

// Poll runs one pass over scope and blocks until it completes, is stopped,
// or ctx is cancelled.
//
// It returns [ErrPollInProgress] if another run is active, or an error
// wrapping [inventory.ErrServerNotFound] for an unknown server.
func (o *Orchestrator) Poll(ctx context.Context, scope Scope) (Summary, error) {
	r, err := o.begin(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	return o.execute(r), nil
}

// Start begins a run over scope in a background goroutine and returns its
// id. ctx bounds the run's lifetime, so it should outlive the caller's
// request. Errors are those of [Orchestrator.Poll].
func (o *Orchestrator) Start(ctx context.Context, scope Scope) (string, error) {
	r, err := o.begin(ctx, scope)
	if err != nil {
		return "", err
	}
	go o.execute(r)
	return r.id, nil
}

// TogglePause flips the pause flag and returns the new value. While paused
// no new probe is dispatched and no completed probe writes its status.
// Workers keep their slots.
func (o *Orchestrator) TogglePause() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.paused = !o.paused
	if o.paused {
		o.resumed = make(chan struct{})
	} else {
		close(o.resumed)
	}

	runID := ""
	if o.current != nil {
		runID = o.current.id
	}
	o.logger.Info("polling pause toggled", "paused", o.paused, "run_id", runID)
	return o.paused
}

// Stop ends the active run. The observable state resets immediately: the
// run is no longer current and the in-flight set is cleared. Probes already
// in flight are cancelled and any result they still produce is discarded.
//
// Stop reports whether a run was active.
func (o *Orchestrator) Stop() bool {
	o.mu.Lock()
	r := o.current
	if r == nil {
		o.mu.Unlock()
		return false
	}
	r.stopped = true
	r.inflight = make(map[string]struct{})
	o.current = nil
	o.mu.Unlock()

	r.cancel()
	o.logger.Info("poll run stopped", "run_id", r.id, "scope", r.scope.String())
	return true
}

// State returns a snapshot of the orchestrator state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := State{
		IsPaused:          o.paused,
		PollingWebsiteIDs: []string{},
	}
	r := o.current
	if r == nil {
		return st
	}

	st.IsPolling = true
	st.RunID = r.id
	if r.scope != AllServers {
		id := string(r.scope)
		st.PollingServerID = &id
	}
	for id := range r.inflight {
		st.PollingWebsiteIDs = append(st.PollingWebsiteIDs, id)
	}
	sort.Strings(st.PollingWebsiteIDs)
	return st
}

func (o *Orchestrator) begin(ctx context.Context, scope Scope) (*run, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		return nil, fmt.Errorf("%w: run %s", ErrPollInProgress, o.current.id)
	}

	targets, err := o.store.Targets(string(scope))
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		id:       uuid.NewString(),
		scope:    scope,
		targets:  targets,
		started:  time.Now(),
		ctx:      runCtx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
	}
	o.current = r
	return r, nil
}

func (o *Orchestrator) execute(r *run) Summary {
	defer o.finish(r)

	workers := min(o.maxConcurrency, len(r.targets))
	o.logger.Info("poll run started",
		"run_id", r.id,
		"scope", r.scope.String(),
		"websites", len(r.targets),
		"workers", workers,
	)

	jobs := make(chan inventory.Target)
	g, gctx := errgroup.WithContext(r.ctx)
	for range workers {
		g.Go(func() error {
			for t := range jobs {
				if err := o.process(gctx, r, t); err != nil {
					return err
				}
			}
			return nil
		})
	}

feed:
	for _, t := range r.targets {
		select {
		case jobs <- t:
		case <-gctx.Done():
			break feed
		}
	}
	close(jobs)
	_ = g.Wait()

	o.mu.Lock()
	sum := Summary{
		RunID:    r.id,
		Scope:    r.scope,
		Total:    len(r.targets),
		Checked:  r.checked,
		Running:  r.running,
		Failed:   r.failed,
		Skipped:  len(r.targets) - r.checked,
		Stopped:  r.stopped || r.ctx.Err() != nil,
		Duration: time.Since(r.started),
	}
	o.mu.Unlock()

	o.logger.Info("poll run completed",
		"run_id", sum.RunID,
		"scope", sum.Scope.String(),
		"checked", sum.Checked,
		"running", sum.Running,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"stopped", sum.Stopped,
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return sum
}

// finish releases the run slot unless Stop already did.
func (o *Orchestrator) finish(r *run) {
	o.mu.Lock()
	if o.current == r {
		o.current = nil
	}
	o.mu.Unlock()
	r.cancel()
}

// process handles one website: pace, wait out a pause, probe, wait out a
// pause again, then commit. A non-nil error means the run is over.
func (o *Orchestrator) process(ctx context.Context, r *run, t inventory.Target) error {
	if err := sleepContext(ctx, o.pacing); err != nil {
		return err
	}
	if err := o.waitWhilePaused(ctx); err != nil {
		return err
	}
	if !o.markInFlight(r, t.WebsiteID) {
		return errRunStopped
	}

	start := time.Now()
	res, checkErr := o.checker.Check(ctx, t.PrimaryURL)
	if ctx.Err() != nil {
		o.clearInFlight(r, t.WebsiteID)
		return ctx.Err()
	}

	status := inventory.Status{LastChecked: time.Now().UTC()}
	if checkErr != nil {
		status.LastStatusCode = failureStatusCode(checkErr)
	} else {
		status.IsRunning = res.IsRunning
		status.LastStatusCode = res.StatusCode
		status.ResponseTime = res.ResponseTime
	}

	if checkErr != nil || !status.IsRunning {
		o.logger.Warn("website check failed",
			"run_id", r.id,
			"server_id", t.ServerID,
			"website_id", t.WebsiteID,
			"url", t.PrimaryURL,
			"status_code", status.LastStatusCode,
			"error", errorString(checkErr, res.Error),
		)
	} else {
		o.logger.Debug("website check ok",
			"run_id", r.id,
			"server_id", t.ServerID,
			"website_id", t.WebsiteID,
			"url", t.PrimaryURL,
			"status_code", status.LastStatusCode,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}

	if err := o.waitWhilePaused(ctx); err != nil {
		o.clearInFlight(r, t.WebsiteID)
		return err
	}
	if !o.commit(r, t, status) {
		return errRunStopped
	}

	if o.onUpdate != nil {
		o.onUpdate(Update{
			RunID:     r.id,
			ServerID:  t.ServerID,
			WebsiteID: t.WebsiteID,
			URL:       t.PrimaryURL,
			Status:    status,
			Err:       checkErr,
		})
	}
	return nil
}

func (o *Orchestrator) markInFlight(r *run, websiteID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if r.stopped {
		return false
	}
	r.inflight[websiteID] = struct{}{}
	return true
}

func (o *Orchestrator) clearInFlight(r *run, websiteID string) {
	o.mu.Lock()
	delete(r.inflight, websiteID)
	o.mu.Unlock()
}

// commit writes status unless the run was stopped. The store write happens
// under the orchestrator mutex so Stop cannot interleave between the check
// and the write.
func (o *Orchestrator) commit(r *run, t inventory.Target, status inventory.Status) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(r.inflight, t.WebsiteID)
	if r.stopped {
		return false
	}

	if err := o.store.UpdateStatus(t.ServerID, t.WebsiteID, status); err != nil {
		// website removed from the inventory mid-run; nothing to update
		o.logger.Error("failed to update website status",
			"run_id", r.id,
			"server_id", t.ServerID,
			"website_id", t.WebsiteID,
			"error", err,
		)
		return true
	}

	r.checked++
	if status.IsRunning {
		r.running++
	} else {
		r.failed++
	}
	return true
}

// waitWhilePaused blocks until the orchestrator is not paused or ctx is done.
func (o *Orchestrator) waitWhilePaused(ctx context.Context) error {
	for {
		o.mu.Lock()
		if !o.paused {
			o.mu.Unlock()
			return nil
		}
		resumed := o.resumed
		o.mu.Unlock()

		select {
		case <-resumed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errorString(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
