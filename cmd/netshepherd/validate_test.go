package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validInventory = `{"servers": [
  {"id": "web-01", "commonName": "Web 01", "websites": [
    {"id": "shop", "name": "Shop", "primaryUrl": "https://shop.example.com"},
    {"id": "api", "name": "API", "type": "api", "primaryUrl": "https://api.example.com"}
  ]},
  {"id": "web-02", "commonName": "Web 02", "websites": [
    {"id": "docs", "name": "Docs", "primaryUrl": "https://docs.example.com"}
  ]}
]}`

func TestRunValidate_ValidConfig(t *testing.T) {
	path := writeFleet(t, validInventory, "port: 9090\nmax_concurrency: 4\n")

	out, err := executeCmd(t, "validate", "-c", path)
	require.NoError(t, err)

	for _, phrase := range []string{
		"Config is valid!",
		"Port:            9090",
		"Checker:         local",
		"Max concurrency: 4",
		"Pacing:          0s",
		"Inventory:       2 servers, 3 websites",
	} {
		assert.Contains(t, out, phrase)
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	path := writeFleet(t, validInventory, "port: 70000\n")

	_, err := executeCmd(t, "validate", "-c", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRunValidate_InvalidInventory(t *testing.T) {
	path := writeFleet(t, `{"servers": [{"id": "", "websites": []}]}`, "")

	_, err := executeCmd(t, "validate", "-c", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid inventory")
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "validate", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRunValidate_MissingFlag(t *testing.T) {
	_, err := executeCmd(t, "validate")
	require.Error(t, err)
}

func TestRunValidate_EnvExpansion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fleet.json"), []byte(validInventory), 0o600))
	t.Setenv("NS_TEST_INVENTORY", filepath.Join(dir, "fleet.json"))

	path := filepath.Join(dir, "netshepherd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inventory: ${NS_TEST_INVENTORY}\n"), 0o600))

	out, err := executeCmd(t, "validate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 servers, 3 websites")
}
