package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/MattHedgcorth/net-shepherd/internal/probe"
)

const (
	// DefaultRemoteTimeout bounds one call to the probe endpoint. It is
	// longer than the probe's own timeout so a slow target is reported by
	// the endpoint as 408 instead of timing out here.
	DefaultRemoteTimeout = 10 * time.Second

	// CheckPath is the probe endpoint route.
	CheckPath = "/api/WebsiteStatus/check"

	maxResponseBodySize = 1 << 20 // 1MB
)

// ErrCheckerUnavailable is returned while the remote checker's circuit
// breaker is open.
var ErrCheckerUnavailable = errors.New("status checker unavailable")

// APIError is returned when the probe endpoint answers with a non-2xx status.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// BreakerConfig configures the remote checker's circuit breaker.
type BreakerConfig struct {
	// Failures is the number of consecutive transport failures that opens
	// the breaker. Default: 5
	Failures uint32

	// Cooldown is how long the breaker stays open before letting a trial
	// request through. Default: 30 seconds
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Failures: 5, Cooldown: 30 * time.Second}
}

// RemoteChecker calls a probe endpoint over HTTP:
//
//	GET <endpoint>/api/WebsiteStatus/check?url=<target>
//
// Calls run through a circuit breaker so that when the endpoint itself is
// down the remaining websites of a run fail fast with 503 instead of each
// waiting for its own connection failure.
type RemoteChecker struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[probe.Result]
	logger     *slog.Logger
}

// NewRemoteChecker creates a [RemoteChecker] for the endpoint base URL.
//
// A zero timeout selects [DefaultRemoteTimeout]; zero breaker fields select
// the [DefaultBreakerConfig] values.
func NewRemoteChecker(endpoint string, timeout time.Duration, bc BreakerConfig, logger *slog.Logger) (*RemoteChecker, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid checker endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("checker endpoint scheme must be http or https, got %q", u.Scheme)
	}

	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	defaults := DefaultBreakerConfig()
	if bc.Failures == 0 {
		bc.Failures = defaults.Failures
	}
	if bc.Cooldown <= 0 {
		bc.Cooldown = defaults.Cooldown
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &RemoteChecker{
		httpClient: &http.Client{},
		endpoint:   strings.TrimRight(endpoint, "/"),
		timeout:    timeout,
		logger:     logger,
	}

	failures := bc.Failures
	c.breaker = gobreaker.NewCircuitBreaker[probe.Result](gobreaker.Settings{
		Name:        "probe-endpoint",
		MaxRequests: 1,
		Timeout:     bc.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("checker circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c, nil
}

// Check asks the probe endpoint to check target.
func (c *RemoteChecker) Check(ctx context.Context, target string) (probe.Result, error) {
	res, err := c.breaker.Execute(func() (probe.Result, error) {
		return c.fetch(ctx, target)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return probe.Result{}, fmt.Errorf("%w: %w", ErrCheckerUnavailable, err)
	}
	return res, err
}

// BreakerState returns the current circuit breaker state.
func (c *RemoteChecker) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *RemoteChecker) fetch(ctx context.Context, target string) (probe.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.endpoint + CheckPath + "?url=" + url.QueryEscape(target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return probe.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return probe.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return probe.Result{}, &APIError{StatusCode: resp.StatusCode}
	}

	var res probe.Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&res); err != nil {
		return probe.Result{}, fmt.Errorf("failed to decode checker response: %w", err)
	}
	return res, nil
}

// isBreakerSuccess counts only endpoint outages against the breaker. A 4xx
// reply means the endpoint is up, and a cancelled run is not the endpoint's
// fault.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < 500
	}
	return false
}
