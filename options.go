package netshepherd

import (
	"errors"
	"log/slog"
	"time"
)

// shepherdConfig holds mutable state during Shepherd construction.
type shepherdConfig struct {
	title           string
	inventoryFile   string
	servers         []Server
	port            int
	maxConcurrency  int
	pacing          time.Duration
	probeTimeout    time.Duration
	userAgent       string
	remoteEndpoint  string
	remoteTimeout   time.Duration
	breakerFailures uint32
	breakerCooldown time.Duration
	rateRequests    int
	rateWindow      time.Duration
	autoPoll        time.Duration
	logger          *slog.Logger
	statusCallbacks []func(StatusUpdate)
}

// Option is a function that configures a [Shepherd] instance during construction.
//
// Options return an error if validation fails.
type Option func(*shepherdConfig) error

// WithInventoryFile loads the inventory from a servers.json file when [New]
// runs. Exactly one of WithInventoryFile and [WithInventory] is required.
func WithInventoryFile(path string) Option {
	return func(cfg *shepherdConfig) error {
		if path == "" {
			return errors.New("inventory file path cannot be empty")
		}
		cfg.inventoryFile = path
		return nil
	}
}

// WithInventory uses servers as the inventory. The slice is copied.
//
// Example:
//
//	sh, err := netshepherd.New(
//	    netshepherd.WithInventory(netshepherd.Server{
//	        ID:         "web-01",
//	        CommonName: "Web 01",
//	        Websites: []netshepherd.Website{
//	            {ID: "shop", Name: "Shop", PrimaryURL: "https://shop.example.com"},
//	        },
//	    }),
//	)
func WithInventory(servers ...Server) Option {
	return func(cfg *shepherdConfig) error {
		cfg.servers = append(cfg.servers, servers...)
		return nil
	}
}

// WithPort sets the HTTP port for the API and dashboard.
// Defaults to 5085 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *shepherdConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency sets how many probes a run keeps in flight.
// Defaults to 10 if not specified.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *shepherdConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithPacing sets the delay a worker waits before each probe, which spreads
// load on the targeted hosts. Defaults to 1 second; zero disables pacing.
func WithPacing(d time.Duration) Option {
	return func(cfg *shepherdConfig) error {
		if d < 0 {
			return errors.New("pacing cannot be negative")
		}
		cfg.pacing = d
		return nil
	}
}

// WithProbeTimeout bounds each request of a probe. Defaults to 5 seconds.
func WithProbeTimeout(d time.Duration) Option {
	return func(cfg *shepherdConfig) error {
		if d <= 0 {
			return errors.New("probe timeout must be positive")
		}
		cfg.probeTimeout = d
		return nil
	}
}

// WithUserAgent sets the User-Agent header of probe requests.
// Defaults to "NetShepherd-WebsiteStatusChecker".
func WithUserAgent(ua string) Option {
	return func(cfg *shepherdConfig) error {
		if ua == "" {
			return errors.New("user agent cannot be empty")
		}
		cfg.userAgent = ua
		return nil
	}
}

// WithRemoteChecker makes runs probe through the check endpoint of another
// NetShepherd instance at endpoint (for example "http://checker:5085")
// instead of in-process. A zero timeout selects 10 seconds.
//
// The local probe endpoint keeps probing in-process either way.
func WithRemoteChecker(endpoint string, timeout time.Duration) Option {
	return func(cfg *shepherdConfig) error {
		if endpoint == "" {
			return errors.New("remote checker endpoint cannot be empty")
		}
		if timeout < 0 {
			return errors.New("remote checker timeout cannot be negative")
		}
		cfg.remoteEndpoint = endpoint
		cfg.remoteTimeout = timeout
		return nil
	}
}

// WithBreaker tunes the remote checker's circuit breaker: it opens after
// failures consecutive endpoint failures and stays open for cooldown.
// Defaults to 5 failures and 30 seconds. Ignored without [WithRemoteChecker].
func WithBreaker(failures int, cooldown time.Duration) Option {
	return func(cfg *shepherdConfig) error {
		if failures <= 0 {
			return errors.New("breaker failures must be positive")
		}
		if cooldown <= 0 {
			return errors.New("breaker cooldown must be positive")
		}
		cfg.breakerFailures = uint32(failures)
		cfg.breakerCooldown = cooldown
		return nil
	}
}

// WithRateLimit limits the probe endpoint to requests per window per client
// IP. Defaults to 120 per minute; zero requests disables the limit.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(cfg *shepherdConfig) error {
		if requests < 0 {
			return errors.New("rate limit requests cannot be negative")
		}
		if requests > 0 && window <= 0 {
			return errors.New("rate limit window must be positive")
		}
		cfg.rateRequests = requests
		cfg.rateWindow = window
		return nil
	}
}

// WithAutoPoll starts an all-servers run every interval while [Shepherd.Start]
// is running. A tick that finds a run active is skipped. Zero (the default)
// disables automatic runs.
func WithAutoPoll(interval time.Duration) Option {
	return func(cfg *shepherdConfig) error {
		if interval < 0 {
			return errors.New("auto poll interval cannot be negative")
		}
		cfg.autoPoll = interval
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Shepherd instance.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *shepherdConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
// If not specified, defaults to "NetShepherd".
func WithTitle(title string) Option {
	return func(cfg *shepherdConfig) error {
		cfg.title = title
		return nil
	}
}

// WithStatusCallback registers a function to be called after every status
// write of a run.
//
// Multiple callbacks may be registered; they execute in registration order.
// Callbacks run on the worker goroutine that produced the update, so they
// hold a concurrency slot while they execute and must be non-blocking.
// Panics within callbacks are recovered and logged.
//
// Example:
//
//	sh, err := netshepherd.New(
//	    netshepherd.WithInventoryFile("servers.json"),
//	    netshepherd.WithStatusCallback(func(u netshepherd.StatusUpdate) {
//	        if !u.IsRunning {
//	            log.Printf("ALERT: %s/%s returned %d", u.ServerID, u.WebsiteID, u.StatusCode)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithStatusCallback(cb func(StatusUpdate)) Option {
	return func(cfg *shepherdConfig) error {
		if cb == nil {
			return nil
		}
		cfg.statusCallbacks = append(cfg.statusCallbacks, cb)
		return nil
	}
}
