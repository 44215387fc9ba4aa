// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrMissingAPIKey is returned when no model credential is configured.
var ErrMissingAPIKey = errors.New("API_KEY environment variable not set")

// Default models per provider, used when AI_MODEL is unset.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Config holds all application configuration.
type Config struct {
	Port               string `env:"PORT" env-default:"8080" env-description:"HTTP listen port"`
	FrontendURL        string `env:"FRONTEND_URL" env-description:"Origin of a separately hosted frontend"`
	DBPath             string `env:"DB_PATH" env-default:"./data/twin.db" env-description:"SQLite feedback database"`
	MaxRequestBodySize int64  `env:"MAX_REQUEST_BODY_SIZE" env-default:"1048576" env-description:"Request body cap in bytes"`
	AI                 AIConfig
	ConversationLog    ConversationLogConfig
}

// AIConfig selects and tunes the model provider.
type AIConfig struct {
	Provider           string  `env:"AI_PROVIDER" env-default:"gemini" env-description:"gemini or openai"`
	Model              string  `env:"AI_MODEL" env-description:"Model name (gemini-2.5-flash or gpt-4o-mini by provider)"`
	APIKey             string  `env:"API_KEY" env-description:"Model provider credential (required)"`
	BaseURL            string  `env:"OPENAI_BASE_URL" env-description:"OpenAI-compatible endpoint"`
	PersonaTemperature float32 `env:"PERSONA_TEMPERATURE" env-default:"0.5" env-description:"Sampling temperature for persona generation"`
	PersonaMaxTokens   int32   `env:"PERSONA_MAX_TOKENS" env-default:"50" env-description:"Output token cap for persona generation"`
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool   `env:"CONVERSATION_LOG_ENABLED" env-default:"false"`
	Dir           string `env:"CONVERSATION_LOG_DIR" env-default:"./data/logs/conversations"`
	GlobalEnabled bool   `env:"CONVERSATION_LOG_GLOBAL_ENABLED" env-default:"false"`
	GlobalPath    string `env:"CONVERSATION_LOG_GLOBAL_PATH" env-default:"./data/logs/conversations/all.ndjson"`
	QueueSize     int    `env:"CONVERSATION_LOG_QUEUE_SIZE" env-default:"1000"`
	MaxOpenFiles  int    `env:"CONVERSATION_LOG_MAX_OPEN_FILES" env-default:"64"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.AI.Model = strings.TrimSpace(cfg.AI.Model)
	if cfg.AI.Model == "" {
		cfg.AI.Model = DefaultModel(cfg.AI.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if strings.TrimSpace(c.AI.APIKey) == "" {
		return ErrMissingAPIKey
	}
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("AI_PROVIDER must be gemini or openai, got %q", c.AI.Provider)
	}
	if c.AI.Model == "" {
		return fmt.Errorf("AI_MODEL cannot be empty")
	}
	if c.AI.PersonaTemperature < 0 || c.AI.PersonaTemperature > 2 {
		return fmt.Errorf("PERSONA_TEMPERATURE must be within [0, 2]")
	}
	if c.AI.PersonaMaxTokens <= 0 {
		return fmt.Errorf("PERSONA_MAX_TOKENS must be > 0")
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.GlobalEnabled && c.ConversationLog.GlobalPath == "" {
		return fmt.Errorf("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	if c.ConversationLog.MaxOpenFiles <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_MAX_OPEN_FILES must be > 0")
	}
	return nil
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	if provider == "openai" {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins lists the origins CORS should accept.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{strings.TrimRight(c.FrontendURL, "/")}
}

// Usage describes every environment variable.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}
