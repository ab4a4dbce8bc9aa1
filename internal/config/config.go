package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// DefaultAPIBaseURL is the production API endpoint.
const DefaultAPIBaseURL = "https://api.vibecheck.app"

// Config holds application configuration.
type Config struct {
	// APIBaseURL is the remote VibeCheck API root (no trailing slash).
	APIBaseURL string `json:"api_base_url"`

	// HTTPTimeoutSecs bounds every remote call.
	HTTPTimeoutSecs int `json:"http_timeout_secs,omitempty"`

	// RetryMaxElapsedSecs is the total backoff budget for idempotent reads.
	// Submissions are never retried automatically regardless of this value.
	RetryMaxElapsedSecs int `json:"retry_max_elapsed_secs,omitempty"`

	// GuestQuota is the number of free analyses per device before
	// registration is required. The server applies its own ceiling
	// independently; this only drives the local pre-check.
	GuestQuota int `json:"guest_quota,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// WebBind and WebPort configure the local dashboard server.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// envOverrides maps VIBECHECK_* environment variables onto config fields.
type envOverrides struct {
	APIBaseURL          string `envconfig:"API_URL"`
	HTTPTimeoutSecs     int    `envconfig:"HTTP_TIMEOUT_SECS"`
	RetryMaxElapsedSecs int    `envconfig:"RETRY_MAX_ELAPSED_SECS"`
	GuestQuota          int    `envconfig:"GUEST_QUOTA"`
	WebBind             string `envconfig:"WEB_BIND"`
	WebPort             int    `envconfig:"WEB_PORT"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:          DefaultAPIBaseURL,
		HTTPTimeoutSecs:     30,
		RetryMaxElapsedSecs: 15,
		GuestQuota:          3,
		WebBind:             "127.0.0.1",
		WebPort:             8099,
	}
}

// Load loads configuration from baseDir/config.json merged over defaults,
// then applies VIBECHECK_* environment overrides on top.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.vibecheck.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if err := applyEnv(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, return zero config
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays VIBECHECK_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("vibecheck", &env); err != nil {
		return err
	}
	if env.APIBaseURL != "" {
		cfg.APIBaseURL = env.APIBaseURL
	}
	if env.HTTPTimeoutSecs > 0 {
		cfg.HTTPTimeoutSecs = env.HTTPTimeoutSecs
	}
	if env.RetryMaxElapsedSecs > 0 {
		cfg.RetryMaxElapsedSecs = env.RetryMaxElapsedSecs
	}
	if env.GuestQuota > 0 {
		cfg.GuestQuota = env.GuestQuota
	}
	if env.WebBind != "" {
		cfg.WebBind = env.WebBind
	}
	if env.WebPort > 0 {
		cfg.WebPort = env.WebPort
	}
	return nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.APIBaseURL = overlay.APIBaseURL
	if result.APIBaseURL == "" {
		result.APIBaseURL = base.APIBaseURL
	}
	result.APIBaseURL = strings.TrimRight(result.APIBaseURL, "/")

	result.HTTPTimeoutSecs = overlay.HTTPTimeoutSecs
	if result.HTTPTimeoutSecs == 0 {
		result.HTTPTimeoutSecs = base.HTTPTimeoutSecs
	}

	result.RetryMaxElapsedSecs = overlay.RetryMaxElapsedSecs
	if result.RetryMaxElapsedSecs == 0 {
		result.RetryMaxElapsedSecs = base.RetryMaxElapsedSecs
	}

	result.GuestQuota = overlay.GuestQuota
	if result.GuestQuota == 0 {
		result.GuestQuota = base.GuestQuota
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.WebBind = overlay.WebBind
	if result.WebBind == "" {
		result.WebBind = base.WebBind
	}

	result.WebPort = overlay.WebPort
	if result.WebPort == 0 {
		result.WebPort = base.WebPort
	}

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
