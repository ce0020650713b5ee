// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Radarr        *RadarrConfig       `toml:"radarr"`
	Sonarr        *SonarrConfig       `toml:"sonarr"`
	TMDB          TMDBConfig          `toml:"tmdb"`
	Jellyfin      JellyfinConfig      `toml:"jellyfin"`
	Requests      RequestsConfig      `toml:"requests"`
	Cache         CacheConfig         `toml:"cache"`
	Breaker       BreakerConfig       `toml:"breaker"`
	Reconcile     ReconcileConfig     `toml:"reconcile"`
	Notifications NotificationsConfig `toml:"notifications"`
	Events        EventsConfig        `toml:"events"`
	Metrics       MetricsConfig       `toml:"metrics"`
}

type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	LogLevel    string `toml:"log_level"`
	APIKey      string `toml:"api_key"`
	AdminAPIKey string `toml:"admin_api_key"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type RadarrConfig struct {
	URL                 string   `toml:"url"`
	APIKey              string   `toml:"api_key"`
	RootFolder          string   `toml:"root_folder"`
	QualityProfileID    int64    `toml:"quality_profile_id"`
	MinimumAvailability string   `toml:"minimum_availability"`
	Timeout             Duration `toml:"timeout"`
}

type SonarrConfig struct {
	URL              string   `toml:"url"`
	APIKey           string   `toml:"api_key"`
	RootFolder       string   `toml:"root_folder"`
	QualityProfileID int64    `toml:"quality_profile_id"`
	SeasonFolder     bool     `toml:"season_folder"`
	Timeout          Duration `toml:"timeout"`
}

type TMDBConfig struct {
	APIKey   string   `toml:"api_key"`
	Region   string   `toml:"region"`
	CacheTTL Duration `toml:"cache_ttl"`
}

type JellyfinConfig struct {
	WebhookToken string `toml:"webhook_token"`
}

type RequestsConfig struct {
	RequireNotifications   bool     `toml:"require_notifications"`
	BulkMaxItems           int      `toml:"bulk_max_items"`
	BulkConcurrency        int      `toml:"bulk_concurrency"`
	ItemTimeout            Duration `toml:"item_timeout"`
	CollectionStatusMaxAge Duration `toml:"collection_status_max_age"`
	Timezone               string   `toml:"timezone"`
}

type CacheConfig struct {
	TTL  Duration `toml:"ttl"`
	Size int      `toml:"size"`
}

type BreakerConfig struct {
	FailureThreshold uint32   `toml:"failure_threshold"`
	Timeout          Duration `toml:"timeout"`
}

type ReconcileConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

type NotificationsConfig struct {
	Admins         []string `toml:"admins"`
	WebhookTimeout Duration `toml:"webhook_timeout"`
}

type EventsConfig struct {
	Retention Duration `toml:"retention"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Duration is a time.Duration written as a string ("30s", "5m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Load reads, parses and validates the configuration file.
// Returns a *ConfigError if environment variables are missing or validation fails.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping validation and the missing-variable check.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, missing, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8585
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/reqarr.db"
	}
	if c.Radarr != nil && c.Radarr.MinimumAvailability == "" {
		c.Radarr.MinimumAvailability = "released"
	}
	if c.TMDB.Region == "" {
		c.TMDB.Region = "US"
	}
	setDuration(&c.TMDB.CacheTTL, 6*time.Hour)

	if c.Requests.BulkMaxItems == 0 {
		c.Requests.BulkMaxItems = 50
	}
	if c.Requests.BulkConcurrency == 0 {
		c.Requests.BulkConcurrency = 5
	}
	setDuration(&c.Requests.ItemTimeout, 5*time.Second)
	setDuration(&c.Requests.CollectionStatusMaxAge, time.Minute)
	if c.Requests.Timezone == "" {
		c.Requests.Timezone = "Local"
	}

	setDuration(&c.Cache.TTL, 30*time.Second)
	if c.Cache.Size == 0 {
		c.Cache.Size = 1024
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	setDuration(&c.Breaker.Timeout, 30*time.Second)
	setDuration(&c.Reconcile.Interval, 5*time.Minute)
	setDuration(&c.Notifications.WebhookTimeout, 10*time.Second)
	setDuration(&c.Events.Retention, 30*24*time.Hour)
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func setDuration(d *Duration, def time.Duration) {
	if d.Duration == 0 {
		d.Duration = def
	}
}

// Location returns the timezone used for time-based approval rules.
func (c *RequestsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}`)

// substituteEnvVars replaces environment variable references. Unresolved
// references are left in place and reported in missing; a :? reference
// reports its message alongside the name.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, set := os.LookupEnv(name)

		switch op {
		case "-":
			if value == "" {
				return arg
			}
			return value
		case "?":
			if value == "" {
				missing = append(missing, name+": "+arg)
				return match
			}
			return value
		}
		if !set {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}
