package config

import (
	"fmt"
	"strings"
)

// MinThreshold is the lowest allowed matching threshold.
const MinThreshold = 50

// Validate checks business rules on the loaded configuration. Load calls
// it automatically.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0 (got %s)", c.Auth.TokenTTL)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}

	if err := c.Matching.validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	if c.Matching.Scorer == ScorerLLM && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required when matching.scorer is %q", ScorerLLM)
	}

	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json (got %q)", c.Log.Format)
	}

	return nil
}

func (m *MatchingConfig) validate() error {
	switch m.Scorer {
	case ScorerHeuristic, ScorerLLM:
	default:
		return fmt.Errorf("scorer must be %s or %s (got %q)", ScorerHeuristic, ScorerLLM, m.Scorer)
	}
	if m.Threshold < MinThreshold || m.Threshold > 100 {
		return fmt.Errorf("threshold must be between %d and 100 (got %d)", MinThreshold, m.Threshold)
	}
	if m.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", m.BatchSize)
	}
	if m.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be > 0 (got %d)", m.Concurrency)
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", m.Timeout)
	}
	return nil
}
