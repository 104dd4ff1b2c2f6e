package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points CONFIG_PATH away from any config.yaml in the working
// directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", "")
	return dir
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "nova.db", cfg.Database.Path)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, ScorerHeuristic, cfg.Matching.Scorer)
	assert.Equal(t, 50, cfg.Matching.Threshold)
	assert.Equal(t, 20, cfg.Matching.BatchSize)
	assert.True(t, cfg.Matching.AutoMatchOnReport)
	assert.Equal(t, "nova.events", cfg.Broker.Exchange)
	assert.Empty(t, cfg.Broker.URL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := isolate(t)
	path := writeYAML(t, dir, `
server:
  addr: "127.0.0.1:9090"
database:
  path: "/var/lib/nova/nova.db"
matching:
  scorer: llm
  threshold: 70
  batch_size: 5
  timeout: 2m
llm:
  api_key: "sk-test"
  model: "gpt-4o"
log:
  format: json
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("MATCHING_THRESHOLD", "65")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/nova/nova.db", cfg.Database.Path)
	assert.Equal(t, ScorerLLM, cfg.Matching.Scorer)
	assert.Equal(t, 65, cfg.Matching.Threshold)
	assert.Equal(t, 5, cfg.Matching.BatchSize)
	assert.Equal(t, 2*time.Minute, cfg.Matching.Timeout)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Path: "nova.db"},
			Auth:     AuthConfig{TokenTTL: time.Hour},
			Matching: MatchingConfig{Scorer: ScorerHeuristic, Threshold: 50, BatchSize: 10, Concurrency: 2, Timeout: time.Minute},
			Log:      LogConfig{Format: "console"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"threshold below minimum", func(c *Config) { c.Matching.Threshold = 40 }, true},
		{"threshold above 100", func(c *Config) { c.Matching.Threshold = 101 }, true},
		{"unknown scorer", func(c *Config) { c.Matching.Scorer = "magic" }, true},
		{"llm without key", func(c *Config) { c.Matching.Scorer = ScorerLLM }, true},
		{"llm with key", func(c *Config) { c.Matching.Scorer = ScorerLLM; c.LLM.APIKey = "k" }, false},
		{"zero batch", func(c *Config) { c.Matching.BatchSize = 0 }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"empty db path", func(c *Config) { c.Database.Path = " " }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
