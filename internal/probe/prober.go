package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout bounds each request of a check.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent identifies probe traffic to target hosts.
	DefaultUserAgent = "NetShepherd-WebsiteStatusChecker"

	// maxDrainSize caps how much of a GET body is read before closing, so the
	// connection can be reused without downloading large pages.
	maxDrainSize = 64 << 10
)

// connection pooling limits to prevent resource exhaustion when probing many hosts
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Prober checks website URLs.
//
// Prober uses per-request timeouts via context rather than a global client
// timeout. Redirects are followed, so a redirecting site reports the status
// of its final destination.
type Prober struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
}

// NewProber creates a [Prober].
//
// A zero timeout selects [DefaultTimeout] and an empty userAgent selects
// [DefaultUserAgent]. A nil logger selects slog.Default().
func NewProber(timeout time.Duration, userAgent string, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Prober{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		timeout:   timeout,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Timeout returns the per-request timeout.
func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

// Check probes target once and always returns a [Result].
//
// A HEAD request is sent first; on 405 the same URL is requested with GET
// and the GET status is reported. IsRunning is true only for 200.
func (p *Prober) Check(ctx context.Context, target string) Result {
	p.logger.Debug("checking website status", "url", target)

	if err := validateTarget(target); err != nil {
		return p.failure(target, err)
	}

	start := time.Now()

	code, err := p.send(ctx, http.MethodHead, target)
	if err == nil && code == http.StatusMethodNotAllowed {
		p.logger.Debug("HEAD not supported, trying GET", "url", target)
		code, err = p.send(ctx, http.MethodGet, target)
	}
	if err != nil {
		return p.failure(target, err)
	}

	elapsed := time.Since(start).Milliseconds()
	p.logger.Debug("website responded",
		"url", target,
		"status_code", code,
		"latency_ms", elapsed,
	)

	return Result{
		URL:          target,
		StatusCode:   code,
		ResponseTime: elapsed,
		IsRunning:    code == http.StatusOK,
	}
}

// send performs one request with its own timeout and returns the status code.
func (p *Prober) send(ctx context.Context, method, target string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainSize))

	return resp.StatusCode, nil
}

// failure builds the synthesized result for a request that did not complete.
func (p *Prober) failure(target string, err error) Result {
	code := StatusCodeFor(err)
	msg := err.Error()
	if code == http.StatusRequestTimeout {
		msg = "Request timed out"
	}

	p.logger.Warn("error checking website",
		"url", target,
		"status_code", code,
		"error", err.Error(),
	)

	return Result{
		URL:        target,
		StatusCode: code,
		IsRunning:  false,
		Error:      msg,
	}
}

// Close closes idle connections in the prober's pool. Safe to call multiple times.
func (p *Prober) Close() {
	if p == nil || p.httpClient == nil {
		return
	}
	if transport, ok := p.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

func validateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
