// internal/config/write_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "reqarr", "config.toml")

	err := WriteDefault(path)
	require.NoError(t, err, "WriteDefault failed")

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read written file")

	// Check for key sections
	assert.Contains(t, string(content), "[server]")
	assert.Contains(t, string(content), "[requests]")
	assert.Contains(t, string(content), "${RADARR_API_KEY}")
}

func TestWriteDefault_CreatesDir(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "deep", "config.toml")

	err := WriteDefault(path)
	require.NoError(t, err, "WriteDefault failed")

	_, err = os.Stat(path)
	assert.False(t, os.IsNotExist(err), "file was not created")
}

func TestConfig_WriteRoundTrip(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 9000},
		Radarr: &RadarrConfig{URL: "http://radarr:7878", APIKey: "k", RootFolder: "/movies"},
		Reconcile: ReconcileConfig{
			Enabled:  true,
			Interval: Duration{2 * time.Minute},
		},
	}

	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	require.NoError(t, cfg.Write(path), "Write failed")

	content, _ := os.ReadFile(path)
	assert.Contains(t, string(content), "127.0.0.1")
	assert.Contains(t, string(content), "9000")
	assert.Contains(t, string(content), `interval = "2m0s"`)

	loaded, err := LoadWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, loaded.Reconcile.Interval.Duration)
	require.NotNil(t, loaded.Radarr)
	assert.Equal(t, "/movies", loaded.Radarr.RootFolder)
}
