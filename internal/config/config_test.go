package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ziadkadry99/boilerbrain/internal/selector"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.Models) != len(DefaultModels) {
		t.Errorf("expected %d default models, got %d", len(DefaultModels), len(cfg.Models))
	}
	if cfg.Reliability.EnhancedTimeout != 25*time.Second {
		t.Errorf("expected enhanced timeout 25s, got %s", cfg.Reliability.EnhancedTimeout)
	}
	if cfg.Reliability.FallbackTimeout != 12*time.Second {
		t.Errorf("expected fallback timeout 12s, got %s", cfg.Reliability.FallbackTimeout)
	}
	if cfg.Session.Driver != "sqlite" {
		t.Errorf("expected default driver sqlite, got %q", cfg.Session.Driver)
	}

	cfg.Models[0].ID = "changed"
	if DefaultModels[0].ID == "changed" {
		t.Error("DefaultConfig must not alias DefaultModels")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boilerbrain.yml")

	original := DefaultConfig()
	original.Models = []selector.ModelDescriptor{
		{ID: "llama3", Provider: "ollama", CostPerMillionTokens: 0, Capabilities: []string{"fast"}},
	}
	original.LegacyProvider = ProviderOllama
	original.LegacyModel = "llama3"
	original.Session.Driver = "redis"
	original.Session.RedisAddr = "localhost:6379"
	original.Reliability.EnhancedTimeout = 10 * time.Second
	original.Server.Port = 9090

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded.Models) != 1 {
		t.Fatalf("models: got %d, want 1 (configured list must replace defaults)", len(loaded.Models))
	}
	if loaded.Models[0].ID != "llama3" || loaded.Models[0].Provider != "ollama" {
		t.Errorf("model: got %+v", loaded.Models[0])
	}
	if loaded.LegacyModel != "llama3" {
		t.Errorf("legacy_model: got %q", loaded.LegacyModel)
	}
	if loaded.Session.Driver != "redis" || loaded.Session.RedisAddr != "localhost:6379" {
		t.Errorf("session: got %+v", loaded.Session)
	}
	if loaded.Reliability.EnhancedTimeout != 10*time.Second {
		t.Errorf("enhanced_timeout: got %s", loaded.Reliability.EnhancedTimeout)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("port: got %d", loaded.Server.Port)
	}
}

func TestLoadHumanDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boilerbrain.yml")
	yml := `
reliability:
  enhanced_timeout: 20s
  fallback_timeout: 5s
models:
  - id: gpt-4o
    provider: openai
    cost_per_million_tokens: 10
    capabilities: [reasoning]
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Reliability.EnhancedTimeout != 20*time.Second || cfg.Reliability.FallbackTimeout != 5*time.Second {
		t.Errorf("timeouts: got %+v", cfg.Reliability)
	}
	if cfg.Models[0].CredentialEnv != "OPENAI_API_KEY" {
		t.Errorf("credential_env default: got %q", cfg.Models[0].CredentialEnv)
	}
	if cfg.Session.Driver != "sqlite" {
		t.Errorf("unset sections should keep defaults, got driver %q", cfg.Session.Driver)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.LegacyModel != "gpt-4o-mini" {
		t.Errorf("expected default legacy model, got %q", cfg.LegacyModel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("BOILERBRAIN_SERVER_PORT", "7070")
	t.Setenv("BOILERBRAIN_SESSION_DRIVER", "memory")
	t.Setenv("BOILERBRAIN_LEGACY_MODEL", "gpt-4o")
	t.Setenv("BOILERBRAIN_RELIABILITY_FALLBACK_TIMEOUT", "3s")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Port != 7070 {
		t.Errorf("server.port: got %d, want 7070", loaded.Server.Port)
	}
	if loaded.Session.Driver != "memory" {
		t.Errorf("session.driver: got %q, want memory", loaded.Session.Driver)
	}
	if loaded.LegacyModel != "gpt-4o" {
		t.Errorf("legacy_model: got %q", loaded.LegacyModel)
	}
	if loaded.Reliability.FallbackTimeout != 3*time.Second {
		t.Errorf("fallback_timeout: got %s", loaded.Reliability.FallbackTimeout)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BOILERBRAIN_SERVER_PORT", "server.port"},
		{"BOILERBRAIN_SESSION_SQLITE_PATH", "session.sqlite_path"},
		{"BOILERBRAIN_LOG_LEVEL", "log.level"},
		{"BOILERBRAIN_RATE_LIMIT_RPM", "rate_limit_rpm"},
		{"BOILERBRAIN_LEGACY_PROVIDER", "legacy_provider"},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no models", func(c *Config) { c.Models = nil }},
		{"blank model id", func(c *Config) { c.Models[0].ID = "" }},
		{"duplicate model", func(c *Config) { c.Models[1].ID = c.Models[0].ID }},
		{"invalid provider", func(c *Config) { c.Models[0].Provider = "invalid" }},
		{"negative cost", func(c *Config) { c.Models[0].CostPerMillionTokens = -1 }},
		{"invalid legacy provider", func(c *Config) { c.LegacyProvider = "invalid" }},
		{"legacy provider without model", func(c *Config) { c.LegacyModel = "" }},
		{"negative rate limit", func(c *Config) { c.RateLimitRPM = -1 }},
		{"zero timeout", func(c *Config) { c.Reliability.FallbackTimeout = 0 }},
		{"invalid driver", func(c *Config) { c.Session.Driver = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Session.SQLitePath = "" }},
		{"redis without addr", func(c *Config) { c.Session.Driver = "redis" }},
		{"invalid embedding provider", func(c *Config) { c.Knowledge.EmbeddingProvider = "word2vec" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"invalid log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMissingCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")

	missing := missingCredentials([]selector.ModelDescriptor{
		{ID: "a", Provider: "openai"},
		{ID: "b", Provider: "anthropic"},
		{ID: "c", Provider: "anthropic"},
		{ID: "d", Provider: "ollama"},
	})
	if len(missing) != 1 || missing[0] != "ANTHROPIC_API_KEY" {
		t.Errorf("missingCredentials = %v, want [ANTHROPIC_API_KEY]", missing)
	}
}
