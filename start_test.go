package netshepherd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	sh, err := New(validInventory(), WithPort(19001), WithLogger(testLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sh.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns immediately if the context is already cancelled.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	sh, err := New(validInventory(), WithPort(19002), WithLogger(testLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- sh.Start(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start() should return immediately when context is already cancelled")
	}
}

func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":19003")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	sh, err := New(validInventory(), WithPort(19003), WithLogger(testLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = sh.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start HTTP server")
}

func TestStart_ServesAPI(t *testing.T) {
	sh, err := New(validInventory(), WithPort(19004), WithLogger(testLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sh.Start(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://127.0.0.1:19004/api/servers")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 20*time.Millisecond)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	dash, err := http.Get("http://127.0.0.1:19004/")
	require.NoError(t, err)
	defer func() { _ = dash.Body.Close() }()
	assert.Equal(t, http.StatusOK, dash.StatusCode)
}

func TestStart_AutoPoll(t *testing.T) {
	var hits atomic.Int32
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	sh, err := New(
		WithInventory(Server{
			ID: "web-01",
			Websites: []Website{
				{ID: "shop", Name: "Shop", PrimaryURL: fmt.Sprintf("%s/shop", target.URL)},
			},
		}),
		WithPort(19005),
		WithPacing(0),
		WithAutoPoll(50*time.Millisecond),
		WithLogger(testLogger()),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sh.Start(ctx) }()

	require.Eventually(t, func() bool {
		return hits.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond, "expected repeated automatic runs")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}
	assert.False(t, sh.State().IsPolling)

	srv, _ := sh.Server("web-01")
	assert.True(t, srv.Websites[0].Status.IsRunning)
}
