package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/boilerbrain/internal/llm"
	"github.com/ziadkadry99/boilerbrain/internal/session"
)

const envPrefix = "BOILERBRAIN_"

// sections are the nested config keys; env names starting with one of them
// map into that section (BOILERBRAIN_SERVER_PORT -> server.port).
var sections = []string{"reliability", "session", "knowledge", "server", "log"}

// envKey maps an environment variable name to a koanf key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (BOILERBRAIN_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// A configured model list replaces the defaults rather than merging
	// into them element by element.
	if k.Exists("models") {
		cfg.Models = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.applyCredentialDefaults()

	return cfg, nil
}

// applyCredentialDefaults fills each model's credential variable from its
// provider's convention.
func (c *Config) applyCredentialDefaults() {
	for i := range c.Models {
		if c.Models[i].CredentialEnv == "" {
			c.Models[i].CredentialEnv = llm.DefaultCredentialEnv(c.Models[i].Provider)
		}
	}
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic:  true,
	ProviderOpenAI:     true,
	ProviderGemini:     true,
	ProviderOllama:     true,
	ProviderMiniMax:    true,
	ProviderOpenRouter: true,
	"google":           true,
}

var validEmbeddingProviders = map[string]bool{
	"local":  true,
	"openai": true,
	"ollama": true,
	"gemini": true,
}

var validDrivers = map[session.StoreType]bool{
	session.StoreTypeMemory: true,
	session.StoreTypeRedis:  true,
	session.StoreTypeSQLite: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}
	seen := make(map[string]bool)
	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("models[%d]: id is required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("models[%d]: duplicate id %q", i, m.ID)
		}
		seen[m.ID] = true
		if !validProviders[ProviderType(m.Provider)] {
			return fmt.Errorf("models[%d]: invalid provider %q", i, m.Provider)
		}
		if m.CostPerMillionTokens < 0 {
			return fmt.Errorf("models[%d]: cost_per_million_tokens must be non-negative", i)
		}
	}

	if c.LegacyProvider != "" && !validProviders[c.LegacyProvider] {
		return fmt.Errorf("invalid legacy_provider %q", c.LegacyProvider)
	}
	if c.LegacyProvider != "" && c.LegacyModel == "" {
		return fmt.Errorf("legacy_model is required when legacy_provider is set")
	}

	if c.RateLimitRPM < 0 {
		return fmt.Errorf("rate_limit_rpm must be non-negative")
	}

	if c.Reliability.EnhancedTimeout <= 0 || c.Reliability.FallbackTimeout <= 0 {
		return fmt.Errorf("reliability timeouts must be positive")
	}

	driver := session.StoreType(c.Session.Driver)
	if !validDrivers[driver] {
		return fmt.Errorf("invalid session.driver %q: must be one of memory, redis, sqlite", c.Session.Driver)
	}
	if driver == session.StoreTypeSQLite && c.Session.SQLitePath == "" {
		return fmt.Errorf("session.sqlite_path is required for the sqlite driver")
	}
	if driver == session.StoreTypeRedis && c.Session.RedisAddr == "" {
		return fmt.Errorf("session.redis_addr is required for the redis driver")
	}
	if c.Session.MemoryCapacity < 0 {
		return fmt.Errorf("session.memory_capacity must be non-negative")
	}

	if c.Knowledge.EmbeddingProvider != "" && !validEmbeddingProviders[c.Knowledge.EmbeddingProvider] {
		return fmt.Errorf("invalid knowledge.embedding_provider %q", c.Knowledge.EmbeddingProvider)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.Log.Level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
			return fmt.Errorf("invalid log.level %q", c.Log.Level)
		}
	}

	return nil
}

// SessionOptions converts the session section into store options.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		SQLitePath:     c.Session.SQLitePath,
		RedisAddr:      c.Session.RedisAddr,
		RedisPassword:  c.Session.RedisPassword,
		RedisDB:        c.Session.RedisDB,
		RedisTTL:       c.Session.RedisTTL,
		MemoryCapacity: c.Session.MemoryCapacity,
		MemoryTTL:      c.Session.MemoryTTL,
		SweepSchedule:  c.Session.SweepSchedule,
	}
}
