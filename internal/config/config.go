// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults for the queue worker; overridable via config file or flags.
const (
	DefaultBatchSize    = 5
	DefaultPollInterval = 20 * time.Second
	DefaultJobTimeout   = 10 * time.Minute
	DefaultStuckAfter   = 30 * time.Minute
	DefaultEnqueueCap   = 50
)

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags or environment.
type Config struct {
	// Connections
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	Model       string `json:"model,omitempty"`        // Inference model name

	// Identity for worker-driven runs
	UserID string `json:"user_id,omitempty"` // User the worker matches for
	CVURL  string `json:"cv_url,omitempty"`  // Shareable CV document link

	// Candidate info
	CandidateFile string `json:"candidate_file,omitempty"` // Path to candidate info JSON

	// Worker tuning
	BatchSize       int `json:"batch_size,omitempty"`        // Concurrent jobs per poll
	PollIntervalSec int `json:"poll_interval_sec,omitempty"` // Seconds between empty-queue polls
	JobTimeoutSec   int `json:"job_timeout_sec,omitempty"`   // Wall-clock cap per pipeline run
	StuckAfterMin   int `json:"stuck_after_min,omitempty"`   // Minutes before a Processing entry counts as stuck
	EnqueueCap      int `json:"enqueue_cap,omitempty"`       // Max entries enqueued per scheduling pass

	// Behavior
	UseBrowser bool   `json:"use_browser,omitempty"` // Render careers pages in headless Chrome
	LogLevel   string `json:"log_level,omitempty"`   // debug, info, warn, error
	LogFormat  string `json:"log_format,omitempty"`  // console, json
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills unset connection fields from the environment.
func (c *Config) FromEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.BatchSize < 0 {
		return fmt.Errorf("config error: 'batch_size' must be non-negative")
	}
	if c.PollIntervalSec < 0 {
		return fmt.Errorf("config error: 'poll_interval_sec' must be non-negative")
	}
	if c.JobTimeoutSec < 0 {
		return fmt.Errorf("config error: 'job_timeout_sec' must be non-negative")
	}
	if c.StuckAfterMin < 0 {
		return fmt.Errorf("config error: 'stuck_after_min' must be non-negative")
	}
	if c.CandidateFile != "" {
		if _, err := os.Stat(c.CandidateFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: candidate file not found: %s", c.CandidateFile)
		}
	}
	return nil
}

// BatchSizeOrDefault returns the configured batch size or the default.
func (c *Config) BatchSizeOrDefault() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}

// PollInterval returns the configured poll interval or the default.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSec > 0 {
		return time.Duration(c.PollIntervalSec) * time.Second
	}
	return DefaultPollInterval
}

// JobTimeout returns the configured per-job timeout or the default.
func (c *Config) JobTimeout() time.Duration {
	if c.JobTimeoutSec > 0 {
		return time.Duration(c.JobTimeoutSec) * time.Second
	}
	return DefaultJobTimeout
}

// StuckAfter returns the staleness threshold for the stuck-job sweep.
func (c *Config) StuckAfter() time.Duration {
	if c.StuckAfterMin > 0 {
		return time.Duration(c.StuckAfterMin) * time.Minute
	}
	return DefaultStuckAfter
}

// EnqueueCapOrDefault returns the per-pass enqueue cap or the default.
func (c *Config) EnqueueCapOrDefault() int {
	if c.EnqueueCap > 0 {
		return c.EnqueueCap
	}
	return DefaultEnqueueCap
}

// ModelOrDefault returns the configured model name or the default preset.
func (c *Config) ModelOrDefault(def string) string {
	if c.Model != "" {
		return c.Model
	}
	return def
}
