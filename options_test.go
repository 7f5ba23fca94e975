package netshepherd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInventory() Option {
	return WithInventory(fleet("https://up.example.com", "https://down.example.com")...)
}

func TestNew_Defaults(t *testing.T) {
	sh, err := New(validInventory(), WithLogger(testLogger()))
	require.NoError(t, err)

	assert.Equal(t, 5085, sh.Port())
	assert.Equal(t, "local", sh.checkerMode)
	assert.Equal(t, 120, sh.rateLimit.Requests)
	assert.Equal(t, time.Minute, sh.rateLimit.Window)
	assert.Zero(t, sh.autoPoll)
	assert.Len(t, sh.Servers(), 2)
	assert.Equal(t, 5*time.Second, sh.prober.Timeout())
}

func TestNew_RequiresInventory(t *testing.T) {
	_, err := New(WithLogger(testLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventory is required")
}

func TestNew_InventoryFileAndInlineAreExclusive(t *testing.T) {
	_, err := New(validInventory(), WithInventoryFile("servers.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestNew_InvalidInlineInventory(t *testing.T) {
	_, err := New(WithInventory(Server{
		ID:       "web-01",
		Websites: []Website{{ID: "x", PrimaryURL: "ftp://x.example.com"}},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid inventory")
}

func TestNew_InventoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	data := `{
	  "servers": [{
	    "id": "web-01", "commonName": "Web 01", "machineName": "WEB01",
	    "ipAddresses": ["10.0.0.1"], "icon": "server",
	    "websites": [{"id": "shop", "name": "Shop", "type": "website",
	      "primaryUrl": "https://shop.example.com", "additionalUrls": [],
	      "status": {"isRunning": false, "lastStatusCode": 0, "lastChecked": "", "responseTime": 0},
	      "screenshot": null}]
	  }],
	  "userLayouts": {}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	sh, err := New(WithInventoryFile(path), WithLogger(testLogger()))
	require.NoError(t, err)

	srv, ok := sh.Server("web-01")
	require.True(t, ok)
	assert.Equal(t, "WEB01", srv.MachineName)
	require.Len(t, srv.Websites, 1)
	assert.Equal(t, TypeWebsite, srv.Websites[0].Type)
}

func TestNew_MissingInventoryFile(t *testing.T) {
	_, err := New(WithInventoryFile(filepath.Join(t.TempDir(), "missing.json")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read inventory file")
}

func TestNew_RemoteChecker(t *testing.T) {
	sh, err := New(validInventory(),
		WithRemoteChecker("http://checker:5085", 0),
		WithBreaker(3, 10*time.Second),
		WithLogger(testLogger()),
	)
	require.NoError(t, err)
	assert.Equal(t, "remote", sh.checkerMode)

	_, err = New(validInventory(), WithRemoteChecker("checker:5085", 0))
	require.Error(t, err)
}

func TestOptions_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty inventory file", WithInventoryFile("")},
		{"port zero", WithPort(0)},
		{"port too high", WithPort(70000)},
		{"zero concurrency", WithMaxConcurrency(0)},
		{"negative pacing", WithPacing(-time.Second)},
		{"zero probe timeout", WithProbeTimeout(0)},
		{"empty user agent", WithUserAgent("")},
		{"empty remote endpoint", WithRemoteChecker("", time.Second)},
		{"negative remote timeout", WithRemoteChecker("http://x", -time.Second)},
		{"zero breaker failures", WithBreaker(0, time.Second)},
		{"zero breaker cooldown", WithBreaker(1, 0)},
		{"negative rate limit", WithRateLimit(-1, time.Minute)},
		{"rate limit without window", WithRateLimit(10, 0)},
		{"negative auto poll", WithAutoPoll(-time.Second)},
		{"nil logger", WithLogger(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(validInventory(), tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestOptions_Accepted(t *testing.T) {
	sh, err := New(validInventory(),
		WithPort(9090),
		WithMaxConcurrency(3),
		WithPacing(0),
		WithProbeTimeout(2*time.Second),
		WithUserAgent("probe/1.0"),
		WithRateLimit(0, 0),
		WithAutoPoll(time.Minute),
		WithTitle("Fleet"),
		WithStatusCallback(nil),
		WithLogger(testLogger()),
	)
	require.NoError(t, err)

	assert.Equal(t, 9090, sh.Port())
	assert.Equal(t, "Fleet", sh.title)
	assert.Equal(t, time.Minute, sh.autoPoll)
	assert.Zero(t, sh.rateLimit.Requests)
	assert.Equal(t, 2*time.Second, sh.prober.Timeout())
	assert.Empty(t, sh.statusCallbacks)
}
