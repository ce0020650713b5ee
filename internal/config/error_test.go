package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError_Empty(t *testing.T) {
	e := &ConfigError{Path: "/etc/reqarr/config.toml"}
	assert.False(t, e.HasErrors())
	assert.Empty(t, e.Error())
}

func TestConfigError_GroupsByTable(t *testing.T) {
	e := &ConfigError{
		Path:    "/etc/reqarr/config.toml",
		Missing: []string{"TMDB_API_KEY", "SONARR_KEY: sonarr api key"},
		Errors: []string{
			"server.port: must be between 1 and 65535, got 0",
			"radarr.url: required when radarr is configured",
			"server.admin_api_key: must differ from server.api_key",
			"radarr, sonarr: at least one of radarr or sonarr must be configured",
			"something odd",
		},
	}

	want := `/etc/reqarr/config.toml:
  unset environment variables: TMDB_API_KEY, SONARR_KEY: sonarr api key
  [server]
    - port: must be between 1 and 65535, got 0
    - admin_api_key: must differ from server.api_key
  [radarr]
    - url: required when radarr is configured
  [radarr, sonarr]
    - at least one of radarr or sonarr must be configured
  - something odd`
	assert.Equal(t, want, e.Error())
}

func TestConfigError_NoPath(t *testing.T) {
	e := &ConfigError{Errors: []string{"tmdb.api_key: required"}}
	assert.Equal(t, "config:\n  [tmdb]\n    - api_key: required", e.Error())
}

func TestConfigError_IsInvalid(t *testing.T) {
	var err error = &ConfigError{Errors: []string{"tmdb.api_key: required"}}
	assert.ErrorIs(t, err, ErrInvalid)

	wrapped := errors.Join(errors.New("config"), err)
	var ce *ConfigError
	require.ErrorAs(t, wrapped, &ce)
	assert.Equal(t, []string{"tmdb.api_key: required"}, ce.Errors)
}

func TestLoad_ReturnsConfigError(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 70000
api_key = "same"
admin_api_key = "same"
`+minimalTOML)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalid)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, path, ce.Path)
	assert.Len(t, ce.Errors, 2)
	assert.Contains(t, err.Error(), "[server]")
}
