// =============================================================================
// Spreadconnect Order Importer - Configuration Module
// =============================================================================
//
// This module loads and validates the importer configuration. Configuration
// is loaded once at process start, validated eagerly, and immutable
// thereafter; every component receives its settings explicitly instead of
// reading process-wide state.
//
// SOURCES (later wins):
//   1. Built-in defaults
//   2. YAML configuration file (config.yaml, override with --config)
//   3. Environment variables: SPOD_ACCESS_TOKEN, SPOD_BASE_URL
//
// The access token has no safe default: a missing token outside test mode
// is a fatal load error.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// ENVIRONMENT VARIABLES
// =============================================================================

const (
	// EnvAccessToken overrides the configured API access token.
	EnvAccessToken = "SPOD_ACCESS_TOKEN"

	// EnvBaseURL overrides the configured API base URL.
	EnvBaseURL = "SPOD_BASE_URL"
)

// DefaultBaseURL is the production order endpoint.
const DefaultBaseURL = "https://rest.spod.com"

// =============================================================================
// CONFIGURATION STRUCTURES
// =============================================================================

// Config holds the full importer configuration.
type Config struct {
	// BaseURL is the base URL of the order API. Orders are posted to
	// {BaseURL}/orders.
	BaseURL string `yaml:"base_url"`

	// AccessToken is sent as the X-SPOD-ACCESS-TOKEN header. Required
	// unless TestMode is set.
	AccessToken string `yaml:"access_token"`

	// TestMode relaxes the access-token requirement for local runs
	// against a stub endpoint.
	TestMode bool `yaml:"test_mode"`

	// AcceptedFulfillmentService is the exact (case-sensitive) value a
	// row's fulfillment-service column must carry to be imported.
	// Default: "Spreadconnect"
	AcceptedFulfillmentService string `yaml:"accepted_fulfillment_service"`

	// LogLevel controls logging verbosity: "debug", "info", "warn",
	// "error". Default: "info"
	LogLevel string `yaml:"log_level"`

	// Submission contains the HTTP dispatch settings.
	Submission SubmissionSettings `yaml:"submission"`

	// Archive contains the processed-file archival settings.
	Archive ArchiveSettings `yaml:"archive"`
}

// SubmissionSettings controls the concurrent order submission.
type SubmissionSettings struct {
	// Concurrency is the maximum number of simultaneously in-flight
	// submissions. Default: 10
	Concurrency int `yaml:"concurrency"`

	// TimeoutSeconds is the per-submission timeout. A timed-out
	// submission yields a synthesized 408 result. Default: 30
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// ReceiveTimeoutSeconds bounds the wait for response headers after
	// the request is written. Default: 15
	ReceiveTimeoutSeconds int `yaml:"receive_timeout_seconds"`

	// MaxIdleConns is the transport connection-pool size. It may be
	// smaller than Concurrency, in which case requests queue at the
	// transport layer. Default: 10
	MaxIdleConns int `yaml:"max_idle_conns"`

	// IdleConnTimeoutSeconds is how long pooled connections stay open.
	// Default: 90
	IdleConnTimeoutSeconds int `yaml:"idle_conn_timeout_seconds"`

	// RetryCount is the number of extra attempts on transport-level
	// failures (dial errors, connection refused). HTTP responses are
	// never retried. Default: 0
	RetryCount int `yaml:"retry_count"`
}

// ArchiveSettings controls what happens to input files after a fully
// successful import.
type ArchiveSettings struct {
	// Enabled moves the input file to Dir after all orders submitted
	// successfully. Default: false
	Enabled bool `yaml:"enabled"`

	// Dir is the archive directory. Default: "./input_archive"
	Dir string `yaml:"dir"`

	// TimestampSubdirs creates date-based subdirectories in the archive,
	// e.g. input_archive/2026/08/24/orders.csv.
	TimestampSubdirs bool `yaml:"timestamp_subdirs"`

	// ErrorLogDir is where per-run submission error logs are written.
	// Empty disables error logs. Default: ""
	ErrorLogDir string `yaml:"error_log_dir"`
}

// Timeout returns the per-submission timeout as a duration.
func (s SubmissionSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ReceiveTimeout returns the response-header timeout as a duration.
func (s SubmissionSettings) ReceiveTimeout() time.Duration {
	return time.Duration(s.ReceiveTimeoutSeconds) * time.Second
}

// IdleConnTimeout returns the pooled-connection timeout as a duration.
func (s SubmissionSettings) IdleConnTimeout() time.Duration {
	return time.Duration(s.IdleConnTimeoutSeconds) * time.Second
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file, applies defaults and environment
// overrides, and validates the result. A missing file is not an error:
// defaults plus environment variables form a complete configuration.
func Load(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// Run on defaults and environment only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.AcceptedFulfillmentService == "" {
		cfg.AcceptedFulfillmentService = "Spreadconnect"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Submission.Concurrency == 0 {
		cfg.Submission.Concurrency = 10
	}
	if cfg.Submission.TimeoutSeconds == 0 {
		cfg.Submission.TimeoutSeconds = 30
	}
	if cfg.Submission.ReceiveTimeoutSeconds == 0 {
		cfg.Submission.ReceiveTimeoutSeconds = 15
	}
	if cfg.Submission.MaxIdleConns == 0 {
		cfg.Submission.MaxIdleConns = 10
	}
	if cfg.Submission.IdleConnTimeoutSeconds == 0 {
		cfg.Submission.IdleConnTimeoutSeconds = 90
	}
	if cfg.Archive.Dir == "" {
		cfg.Archive.Dir = "./input_archive"
	}
}

// applyEnvOverrides lets environment variables override file values.
// Secrets belong in the environment, not in checked-in YAML.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv(EnvAccessToken); token != "" {
		cfg.AccessToken = token
	}
	if url := os.Getenv(EnvBaseURL); url != "" {
		cfg.BaseURL = url
	}
}

// validate checks the configuration eagerly so a bad setup fails at
// startup, not mid-batch.
func validate(cfg *Config) error {
	if cfg.AccessToken == "" && !cfg.TestMode {
		return fmt.Errorf("access token is required: set access_token or %s", EnvAccessToken)
	}
	if cfg.Submission.Concurrency < 1 {
		return fmt.Errorf("submission concurrency must be at least 1, got %d", cfg.Submission.Concurrency)
	}
	if cfg.Submission.TimeoutSeconds < 1 {
		return fmt.Errorf("submission timeout must be at least 1s, got %ds", cfg.Submission.TimeoutSeconds)
	}
	if cfg.Submission.RetryCount < 0 {
		return fmt.Errorf("retry count must not be negative, got %d", cfg.Submission.RetryCount)
	}
	return nil
}
