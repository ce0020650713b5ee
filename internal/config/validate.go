package config

import (
	"fmt"
	"net/url"
	"time"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validMinimumAvailability = map[string]bool{
	"announced": true, "inCinemas": true, "released": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if c.Server.AdminAPIKey != "" && c.Server.AdminAPIKey == c.Server.APIKey {
		errs = append(errs, "server.admin_api_key: must differ from server.api_key")
	}

	// At least one download manager required
	if c.Radarr == nil && c.Sonarr == nil {
		errs = append(errs, "radarr, sonarr: at least one of radarr or sonarr must be configured")
	}
	if c.Radarr != nil {
		errs = append(errs, validateService("radarr", c.Radarr.URL, c.Radarr.APIKey, c.Radarr.RootFolder)...)
		if !validMinimumAvailability[c.Radarr.MinimumAvailability] {
			errs = append(errs, fmt.Sprintf("radarr.minimum_availability: must be one of announced, inCinemas, released; got %q", c.Radarr.MinimumAvailability))
		}
	}
	if c.Sonarr != nil {
		errs = append(errs, validateService("sonarr", c.Sonarr.URL, c.Sonarr.APIKey, c.Sonarr.RootFolder)...)
	}

	if c.TMDB.APIKey == "" {
		errs = append(errs, "tmdb.api_key: required")
	}

	// Request limits
	if c.Requests.BulkMaxItems < 1 {
		errs = append(errs, fmt.Sprintf("requests.bulk_max_items: must be positive, got %d", c.Requests.BulkMaxItems))
	}
	if c.Requests.BulkConcurrency < 1 {
		errs = append(errs, fmt.Sprintf("requests.bulk_concurrency: must be positive, got %d", c.Requests.BulkConcurrency))
	}
	if c.Requests.ItemTimeout.Duration < 0 {
		errs = append(errs, "requests.item_timeout: must not be negative")
	}
	if _, err := c.Requests.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("requests.timezone: %v", err))
	}

	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Sprintf("cache.size: must not be negative, got %d", c.Cache.Size))
	}
	if c.Reconcile.Enabled && c.Reconcile.Interval.Duration < time.Second {
		errs = append(errs, fmt.Sprintf("reconcile.interval: must be at least 1s, got %s", c.Reconcile.Interval))
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		errs = append(errs, fmt.Sprintf("metrics.path: must start with /, got %q", c.Metrics.Path))
	}

	return errs
}

func validateService(name, rawURL, apiKey, rootFolder string) []string {
	var errs []string
	if rawURL == "" {
		errs = append(errs, fmt.Sprintf("%s.url: required when %s is configured", name, name))
	} else if u, err := url.Parse(rawURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("%s.url: invalid url %q", name, rawURL))
	}
	if apiKey == "" {
		errs = append(errs, fmt.Sprintf("%s.api_key: required when %s is configured", name, name))
	}
	if rootFolder == "" {
		errs = append(errs, fmt.Sprintf("%s.root_folder: required when %s is configured", name, name))
	}
	return errs
}
