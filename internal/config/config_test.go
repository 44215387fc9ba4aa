package config

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "./data/twin.db" {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.AI.Provider != "gemini" || cfg.AI.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected AI defaults: %+v", cfg.AI)
	}
	if cfg.AI.PersonaTemperature != 0.5 || cfg.AI.PersonaMaxTokens != 50 {
		t.Errorf("unexpected persona defaults: %+v", cfg.AI)
	}
	if cfg.MaxRequestBodySize != 1<<20 {
		t.Errorf("MaxRequestBodySize = %d", cfg.MaxRequestBodySize)
	}
	if cfg.ConversationLog.Enabled || cfg.ConversationLog.QueueSize != 1000 || cfg.ConversationLog.MaxOpenFiles != 64 {
		t.Errorf("unexpected log defaults: %+v", cfg.ConversationLog)
	}
	if !cfg.IsDevelopment() {
		t.Error("empty FRONTEND_URL should mean development")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_KEY", "k")
	t.Setenv("PORT", "9090")
	t.Setenv("AI_PROVIDER", " OpenAI ")
	t.Setenv("AI_MODEL", "gpt-4o-mini")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("PERSONA_MAX_TOKENS", "80")
	t.Setenv("FRONTEND_URL", "https://twin.example/")
	t.Setenv("CONVERSATION_LOG_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.AI.Provider != "openai" || cfg.AI.Model != "gpt-4o-mini" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.AI.BaseURL != "http://localhost:11434/v1" || cfg.AI.PersonaMaxTokens != 80 {
		t.Errorf("overrides not applied: %+v", cfg.AI)
	}
	if !cfg.ConversationLog.Enabled {
		t.Error("conversation log should be enabled")
	}
	if cfg.IsDevelopment() {
		t.Error("public FRONTEND_URL should not be development")
	}
	if got := cfg.AllowedOrigins(); len(got) != 1 || got[0] != "https://twin.example" {
		t.Errorf("AllowedOrigins = %v", got)
	}
}

func TestLoadPicksModelForProvider(t *testing.T) {
	t.Setenv("API_KEY", "k")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("AI_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.Model != DefaultOpenAIModel {
		t.Fatalf("Model = %q, want %q", cfg.AI.Model, DefaultOpenAIModel)
	}
	if got := DefaultModel("gemini"); got != DefaultGeminiModel {
		t.Fatalf("DefaultModel(gemini) = %q", got)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")

	if _, err := Load(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Port:               "8080",
			DBPath:             "db",
			MaxRequestBodySize: 1,
			AI:                 AIConfig{Provider: "gemini", Model: "m", APIKey: "k", PersonaTemperature: 0.5, PersonaMaxTokens: 50},
			ConversationLog:    ConversationLogConfig{QueueSize: 1, MaxOpenFiles: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown provider", func(c *Config) { c.AI.Provider = "claude" }, "AI_PROVIDER"},
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
		{"zero tokens", func(c *Config) { c.AI.PersonaMaxTokens = 0 }, "PERSONA_MAX_TOKENS"},
		{"hot temperature", func(c *Config) { c.AI.PersonaTemperature = 3 }, "PERSONA_TEMPERATURE"},
		{"zero body size", func(c *Config) { c.MaxRequestBodySize = 0 }, "MAX_REQUEST_BODY_SIZE"},
		{"log dir", func(c *Config) { c.ConversationLog.Enabled = true }, "CONVERSATION_LOG_DIR"},
		{"queue size", func(c *Config) { c.ConversationLog.QueueSize = 0 }, "CONVERSATION_LOG_QUEUE_SIZE"},
		{"open files", func(c *Config) { c.ConversationLog.MaxOpenFiles = 0 }, "CONVERSATION_LOG_MAX_OPEN_FILES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
