package inventory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validInventory = `{
  "servers": [
    {
      "id": "1",
      "commonName": "Production Web",
      "machineName": "PRD-WEB-01",
      "ipAddresses": ["192.168.1.10", "10.0.0.10"],
      "icon": "server",
      "websites": [
        {
          "id": "w1",
          "name": "Corporate Site",
          "type": "website",
          "technology": "WordPress",
          "primaryUrl": "https://www.example.com",
          "additionalUrls": ["https://example.com"],
          "status": {"isRunning": true, "lastStatusCode": 200, "lastChecked": "2024-03-01T10:00:00Z", "responseTime": 250},
          "screenshot": null
        },
        {
          "id": "w2",
          "name": "Orders API",
          "type": "api",
          "technology": ".Net Core",
          "primaryUrl": "https://api.example.com/health",
          "additionalUrls": [],
          "status": {"isRunning": false, "lastStatusCode": 0, "lastChecked": "", "responseTime": 0},
          "screenshot": "/shots/api.png"
        }
      ]
    }
  ],
  "userLayouts": {"john.doe": {"layout": [{"i": "1", "x": 0, "y": 0, "w": 2, "h": 2}]}}
}`

func TestParse_Valid(t *testing.T) {
	servers, err := Parse([]byte(validInventory))
	require.NoError(t, err)
	require.Len(t, servers, 1)

	srv := servers[0]
	assert.Equal(t, "Production Web", srv.CommonName)
	assert.Equal(t, []string{"192.168.1.10", "10.0.0.10"}, srv.IPAddresses)
	require.Len(t, srv.Websites, 2)

	w1 := srv.Websites[0]
	assert.Equal(t, TypeWebsite, w1.Type)
	assert.True(t, w1.Status.IsRunning)
	assert.Equal(t, int64(250), w1.Status.ResponseTime)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), w1.Status.LastChecked)
	assert.Nil(t, w1.Screenshot)

	w2 := srv.Websites[1]
	assert.Equal(t, TypeAPI, w2.Type)
	assert.True(t, w2.Status.LastChecked.IsZero())
	require.NotNil(t, w2.Screenshot)
	assert.Equal(t, "/shots/api.png", *w2.Screenshot)
}

func TestParse_DefaultsType(t *testing.T) {
	servers, err := Parse([]byte(`{"servers":[{"id":"s","websites":[{"id":"w","primaryUrl":"http://x.test"}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, TypeWebsite, servers[0].Websites[0].Type)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"malformed", `{"servers": [`, "failed to parse inventory JSON"},
		{"no servers", `{"servers": []}`, "at least one server"},
		{"missing server id", `{"servers":[{"commonName":"x"}]}`, "servers[0]: id is required"},
		{"duplicate server", `{"servers":[{"id":"a"},{"id":"a"}]}`, `duplicate server id "a"`},
		{"missing website id", `{"servers":[{"id":"a","websites":[{"primaryUrl":"https://x.test"}]}]}`, "servers[0].websites[0]: id is required"},
		{"duplicate website across servers",
			`{"servers":[{"id":"a","websites":[{"id":"w","primaryUrl":"https://x.test"}]},{"id":"b","websites":[{"id":"w","primaryUrl":"https://y.test"}]}]}`,
			`website id "w" already used on server "a"`},
		{"unknown type", `{"servers":[{"id":"a","websites":[{"id":"w","type":"ftp","primaryUrl":"https://x.test"}]}]}`, `unknown type "ftp"`},
		{"missing url", `{"servers":[{"id":"a","websites":[{"id":"w"}]}]}`, "primaryUrl is required"},
		{"bad scheme", `{"servers":[{"id":"a","websites":[{"id":"w","primaryUrl":"ftp://x.test"}]}]}`, "scheme must be http or https"},
		{"no host", `{"servers":[{"id":"a","websites":[{"id":"w","primaryUrl":"https://"}]}]}`, "must include a host"},
		{"bad timestamp", `{"servers":[{"id":"a","websites":[{"id":"w","primaryUrl":"https://x.test","status":{"lastChecked":"yesterday"}}]}]}`, "invalid lastChecked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte(validInventory), 0o644))

	servers, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, servers, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read inventory file")
}

func TestStatus_JSON(t *testing.T) {
	checked := time.Date(2024, 3, 1, 10, 0, 0, 500, time.UTC)
	data, err := json.Marshal(Status{IsRunning: true, LastStatusCode: 200, LastChecked: checked, ResponseTime: 120})
	require.NoError(t, err)
	assert.JSONEq(t, `{"isRunning":true,"lastStatusCode":200,"lastChecked":"2024-03-01T10:00:00.0000005Z","responseTime":120}`, string(data))

	// never-checked status renders an empty timestamp rather than year 1
	data, err = json.Marshal(Status{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"isRunning":false,"lastStatusCode":0,"lastChecked":"","responseTime":0}`, string(data))
}

func TestValidate_InPlace(t *testing.T) {
	servers := []Server{{
		ID: "web-01",
		Websites: []Website{
			{ID: "shop", PrimaryURL: "https://shop.example.com"},
			{ID: "api", Type: TypeAPI, PrimaryURL: "http://api.example.com/health"},
		},
	}}

	require.NoError(t, Validate(servers))
	assert.Equal(t, TypeWebsite, servers[0].Websites[0].Type, "missing type defaults in place")
	assert.Equal(t, TypeAPI, servers[0].Websites[1].Type)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		servers []Server
		wantErr string
	}{
		{"empty", nil, "at least one server"},
		{"duplicate website across servers", []Server{
			{ID: "a", Websites: []Website{{ID: "x", PrimaryURL: "https://a.example.com"}}},
			{ID: "b", Websites: []Website{{ID: "x", PrimaryURL: "https://b.example.com"}}},
		}, `already used on server "a"`},
		{"relative url", []Server{
			{ID: "a", Websites: []Website{{ID: "x", PrimaryURL: "/health"}}},
		}, "scheme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.servers)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
