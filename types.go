package netshepherd

import (
	"time"

	"github.com/MattHedgcorth/net-shepherd/internal/inventory"
	"github.com/MattHedgcorth/net-shepherd/internal/poller"
)

// Inventory types.
type (
	Server        = inventory.Server
	Website       = inventory.Website
	WebsiteStatus = inventory.Status
	WebsiteType   = inventory.WebsiteType
	Stats         = inventory.Stats
	Health        = inventory.Health
)

// Website types.
const (
	TypeWebsite  = inventory.TypeWebsite
	TypeAPI      = inventory.TypeAPI
	TypeRedirect = inventory.TypeRedirect
)

// Server health levels.
const (
	HealthHealthy  = inventory.HealthHealthy
	HealthDegraded = inventory.HealthDegraded
	HealthDown     = inventory.HealthDown
)

// PollingState is the observable state of the polling orchestrator.
type PollingState = poller.State

var (
	// ErrPollInProgress is returned when a run is requested while another
	// run is active.
	ErrPollInProgress = poller.ErrPollInProgress

	// ErrServerNotFound is returned when a run targets an unknown server.
	ErrServerNotFound = inventory.ErrServerNotFound
)

// ComputeStats counts the running, offline, and responding websites of s.
func ComputeStats(s Server) Stats {
	return inventory.ComputeStats(s)
}

// StatusUpdate is delivered to status callbacks each time a run writes a
// website status.
//
// StatusUpdate is a value type; it shares no memory with the inventory.
type StatusUpdate struct {
	// RunID identifies the run that produced the update.
	RunID string

	ServerID  string
	WebsiteID string

	// URL is the primary URL that was probed.
	URL string

	// IsRunning is true only when the site answered 200.
	IsRunning bool

	// StatusCode is the HTTP status of the site, or the synthesized failure
	// code (408 timeout, 503 unreachable, 500 other).
	StatusCode int

	// ResponseTime is the probe latency. Zero on failure.
	ResponseTime time.Duration

	// CheckedAt is when the probe completed.
	CheckedAt time.Time

	// Error is the checker error the status was synthesized from, if any.
	Error error
}

// RunSummary reports the outcome of one polling run.
type RunSummary struct {
	RunID string

	// ServerID is the polled server, or empty for an all-servers run.
	ServerID string

	Total   int
	Checked int
	Running int
	Failed  int
	Skipped int

	// Stopped is true when the run was stopped or its context cancelled.
	Stopped bool

	Duration time.Duration
}

func summaryFromPoller(s poller.Summary) RunSummary {
	return RunSummary{
		RunID:    s.RunID,
		ServerID: string(s.Scope),
		Total:    s.Total,
		Checked:  s.Checked,
		Running:  s.Running,
		Failed:   s.Failed,
		Skipped:  s.Skipped,
		Stopped:  s.Stopped,
		Duration: s.Duration,
	}
}

func updateFromPoller(u poller.Update) StatusUpdate {
	return StatusUpdate{
		RunID:        u.RunID,
		ServerID:     u.ServerID,
		WebsiteID:    u.WebsiteID,
		URL:          u.URL,
		IsRunning:    u.Status.IsRunning,
		StatusCode:   u.Status.LastStatusCode,
		ResponseTime: time.Duration(u.Status.ResponseTime) * time.Millisecond,
		CheckedAt:    u.Status.LastChecked,
		Error:        u.Err,
	}
}
