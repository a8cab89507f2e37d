// Package config loads enricher configuration from an optional YAML file
// with environment variable overrides. Secrets come from the environment
// only.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/llm"
)

// Config is the root configuration.
type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	LLM        LLMConfig        `yaml:"llm"`
	Processing ProcessingConfig `yaml:"processing"`
	Features   FeatureFlags     `yaml:"features"`
}

// CatalogConfig locates the metadata catalog.
type CatalogConfig struct {
	GMSURL string `yaml:"gms_url" env:"ENRICHER_GMS_URL" env-default:"http://localhost:8080"`
	// Token is never read from YAML so it cannot end up in a checked-in file.
	GMSToken string `yaml:"-" env:"ENRICHER_GMS_TOKEN"`
}

// LLMConfig selects and tunes the inference backend. Temperature carries no
// env-default tag: cleanenv re-applies defaults to zero-valued fields after
// file parsing, which would silently rewrite an explicit 0. Its default is
// set in code by defaults().
type LLMConfig struct {
	Backend     string  `yaml:"backend" env:"ENRICHER_LLM_BACKEND" env-default:"claude-code"`
	Model       string  `yaml:"model" env:"ENRICHER_LLM_MODEL" env-default:"claude-sonnet-4-5-20250929"`
	MaxTokens   int     `yaml:"max_tokens" env:"ENRICHER_LLM_MAX_TOKENS" env-default:"4096"`
	Temperature float64 `yaml:"temperature" env:"ENRICHER_LLM_TEMPERATURE"`

	AnthropicAPIKey string `yaml:"-" env:"ENRICHER_ANTHROPIC_API_KEY"`

	ClaudeCommand string `yaml:"claude_command" env:"ENRICHER_CLAUDE_COMMAND" env-default:"claude"`
	MaxTurns      int    `yaml:"max_turns" env:"ENRICHER_CLAUDE_MAX_TURNS" env-default:"1"`

	OpenAIBaseURL string `yaml:"openai_base_url" env:"ENRICHER_OPENAI_BASE_URL"`
	OpenAIAPIKey  string `yaml:"-" env:"ENRICHER_OPENAI_API_KEY"`

	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"ENRICHER_LLM_RATE_LIMIT_RPS"`
}

// ProcessingConfig tunes batch execution.
type ProcessingConfig struct {
	BatchSize  int    `yaml:"batch_size" env:"ENRICHER_BATCH_SIZE" env-default:"10"`
	MaxRetries int    `yaml:"max_retries" env:"ENRICHER_MAX_RETRIES" env-default:"3"`
	LogLevel   string `yaml:"log_level" env:"ENRICHER_LOG_LEVEL" env-default:"info"`
}

// FeatureFlags switch individual enrichment tasks on and off. The fields
// carry no env-default tag: with one, cleanenv would flip an explicit YAML
// `false` back to `true` because false is the zero value. Defaults are set
// in code by defaults().
type FeatureFlags struct {
	ColumnDescriptions bool `yaml:"column_descriptions" env:"ENRICHER_FEATURE_COLUMN_DESCRIPTIONS"`
	PIIDetection       bool `yaml:"pii_detection" env:"ENRICHER_FEATURE_PII_DETECTION"`
	TagSuggestions     bool `yaml:"tag_suggestions" env:"ENRICHER_FEATURE_TAG_SUGGESTIONS"`
}

// defaults pre-populates the values that cannot be expressed as env-default
// tags because their configured value may legitimately be the zero value.
func defaults() Config {
	return Config{
		LLM: LLMConfig{Temperature: 0.7},
		Features: FeatureFlags{
			ColumnDescriptions: true,
			PIIDetection:       true,
			TagSuggestions:     true,
		},
	}
}

// Load reads configuration from path, falling back to environment-only
// when the file does not exist. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("read config file %s: %w", path, err)
			}
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validBackends = map[string]bool{
	llm.BackendClaudeCode:   true,
	llm.BackendAnthropicAPI: true,
	llm.BackendOpenAI:       true,
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Catalog.GMSURL == "" {
		return fmt.Errorf("catalog.gms_url must not be empty")
	}
	if !validBackends[c.LLM.Backend] {
		return fmt.Errorf("llm.backend must be one of claude-code, anthropic-api, openai; got %q", c.LLM.Backend)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be between 0 and 1, got %g", c.LLM.Temperature)
	}
	if c.LLM.MaxTurns < 1 {
		return fmt.Errorf("llm.max_turns must be at least 1, got %d", c.LLM.MaxTurns)
	}
	if c.Processing.BatchSize < 1 {
		return fmt.Errorf("processing.batch_size must be at least 1, got %d", c.Processing.BatchSize)
	}
	if c.Processing.MaxRetries < 0 {
		return fmt.Errorf("processing.max_retries must not be negative, got %d", c.Processing.MaxRetries)
	}
	if !validLogLevels[c.Processing.LogLevel] {
		return fmt.Errorf("processing.log_level must be one of debug, info, warn, error; got %q", c.Processing.LogLevel)
	}
	return nil
}

// LLMSettings assembles the backend construction settings from the loaded
// configuration.
func (c *Config) LLMSettings() llm.Settings {
	return llm.Settings{
		Backend:       c.LLM.Backend,
		ClaudeCommand: c.LLM.ClaudeCommand,
		MaxTurns:      c.LLM.MaxTurns,
		Remote: llm.RemoteConfig{
			APIKey:       c.remoteAPIKey(),
			BaseURL:      c.LLM.OpenAIBaseURL,
			Model:        c.LLM.Model,
			MaxTokens:    c.LLM.MaxTokens,
			Temperature:  c.LLM.Temperature,
			RateLimitRPS: c.LLM.RateLimitRPS,
		},
	}
}

func (c *Config) remoteAPIKey() string {
	if c.LLM.Backend == llm.BackendOpenAI {
		return c.LLM.OpenAIAPIKey
	}
	return c.LLM.AnthropicAPIKey
}
