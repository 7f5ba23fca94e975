package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
)

// ErrInvalidURL is returned when the target cannot be turned into a request.
var ErrInvalidURL = errors.New("invalid url")

// Result is the outcome of one check.
type Result struct {
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`

	// ResponseTime is in milliseconds; 0 on failure.
	ResponseTime int64 `json:"responseTime"`

	// IsRunning is true only for a 200 response.
	IsRunning bool `json:"isRunning"`

	// Error is set only on failure paths.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the check failed before a response was received.
func (r Result) Failed() bool {
	return r.Error != ""
}

// StatusCodeFor maps a transport-level error to the status code reported
// for it: 408 for timeouts and cancellation, 503 for connectivity failures,
// 500 for everything else.
func StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusRequestTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusRequestTimeout
	}

	if errors.Is(err, ErrInvalidURL) {
		return http.StatusInternalServerError
	}

	if isConnectivityError(err) {
		return http.StatusServiceUnavailable
	}

	// anything else the HTTP client reports is a generic request failure
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func isConnectivityError(err error) bool {
	var (
		opErr   *net.OpError
		dnsErr  *net.DNSError
		certErr *tls.CertificateVerificationError
		recErr  tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return true
	case errors.As(err, &certErr), errors.As(err, &recErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}
