// Package config loads service configuration from YAML, the environment,
// and defaults.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Matching MatchingConfig `yaml:"matching"`
	LLM      LLMConfig      `yaml:"llm"`
	Broker   BrokerConfig   `yaml:"broker"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"SERVER_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"90s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH" env-default:"nova.db"`
}

// AuthConfig holds token settings. An empty JWTSecret means the secret is
// generated once and kept in the database.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"AUTH_TOKEN_TTL"  env-default:"168h"`
}

// MatchingConfig tunes the matching engine.
type MatchingConfig struct {
	Scorer            string        `yaml:"scorer"               env:"MATCHING_SCORER"               env-default:"heuristic"`
	Threshold         int           `yaml:"threshold"            env:"MATCHING_THRESHOLD"            env-default:"50"`
	BatchSize         int           `yaml:"batch_size"           env:"MATCHING_BATCH_SIZE"           env-default:"20"`
	Concurrency       int           `yaml:"concurrency"          env:"MATCHING_CONCURRENCY"          env-default:"4"`
	Timeout           time.Duration `yaml:"timeout"              env:"MATCHING_TIMEOUT"              env-default:"60s"`
	AutoMatchOnReport bool          `yaml:"auto_match_on_report" env:"MATCHING_AUTO_MATCH_ON_REPORT" env-default:"true"`
}

// LLMConfig holds the chat-completions backend used by the llm scorer.
type LLMConfig struct {
	Endpoint  string        `yaml:"endpoint"   env:"LLM_ENDPOINT"   env-default:"https://api.openai.com/v1"`
	APIKey    string        `yaml:"api_key"    env:"LLM_API_KEY"`
	Model     string        `yaml:"model"      env:"LLM_MODEL"      env-default:"gpt-4o-mini"`
	MaxTokens int           `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"1000"`
	Timeout   time.Duration `yaml:"timeout"    env:"LLM_TIMEOUT"    env-default:"30s"`
}

// BrokerConfig holds RabbitMQ settings. An empty URL disables publishing.
type BrokerConfig struct {
	URL      string `yaml:"url"      env:"BROKER_URL"`
	Exchange string `yaml:"exchange" env:"BROKER_EXCHANGE" env-default:"nova.events"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
	File   string `yaml:"file"   env:"LOG_FILE"`
}

// Scorer names.
const (
	ScorerHeuristic = "heuristic"
	ScorerLLM       = "llm"
)
