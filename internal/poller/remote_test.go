package poller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MattHedgcorth/net-shepherd/internal/probe"
)

func TestRemoteChecker_Check(t *testing.T) {
	seen := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r
		if r.URL.Path != CheckPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(probe.Result{
			URL:          r.URL.Query().Get("url"),
			StatusCode:   200,
			ResponseTime: 42,
			IsRunning:    true,
		})
	}))
	defer srv.Close()

	c, err := NewRemoteChecker(srv.URL+"/", 0, BreakerConfig{}, testLogger())
	require.NoError(t, err)

	res, err := c.Check(context.Background(), "https://example.com/a?b=c")
	require.NoError(t, err)

	req := <-seen
	assert.Equal(t, "https://example.com/a?b=c", req.URL.Query().Get("url"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, int64(42), res.ResponseTime)
	assert.True(t, res.IsRunning)
}

func TestRemoteChecker_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "URL is required", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewRemoteChecker(srv.URL, 0, BreakerConfig{}, testLogger())
	require.NoError(t, err)

	_, err = c.Check(context.Background(), "https://example.com")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "API error: 400", apiErr.Error())
	assert.Equal(t, http.StatusBadRequest, failureStatusCode(err))
}

func TestRemoteChecker_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c, err := NewRemoteChecker(srv.URL, 0, BreakerConfig{}, testLogger())
	require.NoError(t, err)

	_, err = c.Check(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
	assert.Equal(t, http.StatusInternalServerError, failureStatusCode(err))
}

func TestRemoteChecker_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c, err := NewRemoteChecker(srv.URL, 50*time.Millisecond, BreakerConfig{}, testLogger())
	require.NoError(t, err)

	_, err = c.Check(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestTimeout, failureStatusCode(err))
}

func TestRemoteChecker_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c, err := NewRemoteChecker(endpoint, time.Second, BreakerConfig{}, testLogger())
	require.NoError(t, err)

	_, err = c.Check(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, failureStatusCode(err))
}

func TestRemoteChecker_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewRemoteChecker(srv.URL, time.Second, BreakerConfig{Failures: 2, Cooldown: time.Minute}, testLogger())
	require.NoError(t, err)

	for range 2 {
		_, err := c.Check(context.Background(), "https://example.com")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err = c.Check(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrCheckerUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, failureStatusCode(err))
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the endpoint")
}

func TestRemoteChecker_ClientErrorsKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewRemoteChecker(srv.URL, time.Second, BreakerConfig{Failures: 1, Cooldown: time.Minute}, testLogger())
	require.NoError(t, err)

	for range 3 {
		_, err := c.Check(context.Background(), "https://example.com")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	}
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestRemoteChecker_BreakerRecovers(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(probe.Result{StatusCode: 200, IsRunning: true})
	}))
	defer srv.Close()

	c, err := NewRemoteChecker(srv.URL, time.Second, BreakerConfig{Failures: 1, Cooldown: 50 * time.Millisecond}, testLogger())
	require.NoError(t, err)

	_, err = c.Check(context.Background(), "https://example.com")
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, c.BreakerState())

	healthy.Store(true)
	time.Sleep(80 * time.Millisecond)

	res, err := c.Check(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.True(t, res.IsRunning)
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestNewRemoteChecker_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"ftp://checker", "checker:5085", "://bad"} {
		_, err := NewRemoteChecker(endpoint, 0, BreakerConfig{}, nil)
		assert.Error(t, err, endpoint)
	}
}

func TestIsBreakerSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"canceled", context.Canceled, true},
		{"client error", &APIError{StatusCode: 400}, true},
		{"server error", &APIError{StatusCode: 503}, false},
		{"transport", errors.New("connection refused"), false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBreakerSuccess(tt.err))
		})
	}
}

func TestLocalChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := probe.NewProber(time.Second, "", testLogger())
	defer p.Close()

	res, err := NewLocalChecker(p).Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.True(t, res.IsRunning)
}
