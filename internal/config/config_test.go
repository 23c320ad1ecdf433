package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"database_url": "postgres://localhost/scoutly",
			"model": "gemini-2.0-flash-lite",
			"batch_size": 3,
			"poll_interval_sec": 45
		}`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/scoutly", cfg.DatabaseURL)
		assert.Equal(t, 3, cfg.BatchSize)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.Error(t, (&Config{BatchSize: -1}).Validate())
	assert.Error(t, (&Config{PollIntervalSec: -5}).Validate())
	assert.Error(t, (&Config{CandidateFile: "/no/such/file.json"}).Validate())
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultBatchSize, cfg.BatchSizeOrDefault())
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
	assert.Equal(t, DefaultJobTimeout, cfg.JobTimeout())
	assert.Equal(t, DefaultStuckAfter, cfg.StuckAfter())
	assert.Equal(t, DefaultEnqueueCap, cfg.EnqueueCapOrDefault())
	assert.Equal(t, "preset", cfg.ModelOrDefault("preset"))

	tuned := &Config{BatchSize: 2, PollIntervalSec: 5, Model: "custom"}
	assert.Equal(t, 2, tuned.BatchSizeOrDefault())
	assert.Equal(t, 5*time.Second, tuned.PollInterval())
	assert.Equal(t, "custom", tuned.ModelOrDefault("preset"))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg := &Config{}
	cfg.FromEnv()
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, "env-key", cfg.APIKey)

	// explicit values win over the environment
	set := &Config{DatabaseURL: "postgres://file/db"}
	set.FromEnv()
	assert.Equal(t, "postgres://file/db", set.DatabaseURL)
}
