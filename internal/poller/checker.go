package poller

import (
	"context"
	"errors"
	"net/http"

	"github.com/MattHedgcorth/net-shepherd/internal/probe"
)

// Checker performs one health check against a URL.
//
// A nil error means the check completed and the Result describes the
// website, even when that Result is itself a synthesized failure. A non-nil
// error means the check could not be performed; the orchestrator then
// synthesizes a failure status from the error.
type Checker interface {
	Check(ctx context.Context, url string) (probe.Result, error)
}

// CheckerFunc adapts a function to the [Checker] interface.
type CheckerFunc func(ctx context.Context, url string) (probe.Result, error)

// Check calls f.
func (f CheckerFunc) Check(ctx context.Context, url string) (probe.Result, error) {
	return f(ctx, url)
}

// LocalChecker runs checks in-process with a [probe.Prober].
type LocalChecker struct {
	prober *probe.Prober
}

// NewLocalChecker wraps p.
func NewLocalChecker(p *probe.Prober) *LocalChecker {
	return &LocalChecker{prober: p}
}

// Check probes url. It never returns an error; transport failures are
// already folded into the Result.
func (c *LocalChecker) Check(ctx context.Context, url string) (probe.Result, error) {
	return c.prober.Check(ctx, url), nil
}

// failureStatusCode maps a Checker error to the status code recorded for the
// website: the probe endpoint's own reply code when it answered non-2xx,
// 503 when the endpoint is unreachable or its breaker is open, otherwise the
// transport classification (408 timeout, 503 network, 500 other).
func failureStatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	if errors.Is(err, ErrCheckerUnavailable) {
		return http.StatusServiceUnavailable
	}
	return probe.StatusCodeFor(err)
}
