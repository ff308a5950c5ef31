package config

import (
	"time"

	"github.com/ziadkadry99/boilerbrain/internal/selector"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenAI     ProviderType = "openai"
	ProviderGemini     ProviderType = "gemini"
	ProviderOllama     ProviderType = "ollama"
	ProviderMiniMax    ProviderType = "minimax"
	ProviderOpenRouter ProviderType = "openrouter"
)

// Config is the top-level boilerbrain configuration, corresponding to
// boilerbrain.yml.
type Config struct {
	Models         []selector.ModelDescriptor `yaml:"models" koanf:"models"`
	LegacyProvider ProviderType               `yaml:"legacy_provider" koanf:"legacy_provider"`
	LegacyModel    string                     `yaml:"legacy_model" koanf:"legacy_model"`
	RateLimitRPM   int                        `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	Reliability    ReliabilityConfig          `yaml:"reliability" koanf:"reliability"`
	Session        SessionConfig              `yaml:"session" koanf:"session"`
	Knowledge      KnowledgeConfig            `yaml:"knowledge" koanf:"knowledge"`
	Server         ServerConfig               `yaml:"server" koanf:"server"`
	Log            LogConfig                  `yaml:"log" koanf:"log"`
}

// ReliabilityConfig holds the per-tier deadlines.
type ReliabilityConfig struct {
	EnhancedTimeout time.Duration `yaml:"enhanced_timeout" koanf:"enhanced_timeout"`
	FallbackTimeout time.Duration `yaml:"fallback_timeout" koanf:"fallback_timeout"`
}

// SessionConfig selects and tunes the session store.
type SessionConfig struct {
	Driver         string        `yaml:"driver" koanf:"driver"`
	SQLitePath     string        `yaml:"sqlite_path" koanf:"sqlite_path"`
	RedisAddr      string        `yaml:"redis_addr" koanf:"redis_addr"`
	RedisPassword  string        `yaml:"redis_password,omitempty" koanf:"redis_password"`
	RedisDB        int           `yaml:"redis_db" koanf:"redis_db"`
	RedisTTL       time.Duration `yaml:"redis_ttl" koanf:"redis_ttl"`
	MemoryCapacity int           `yaml:"memory_capacity" koanf:"memory_capacity"`
	MemoryTTL      time.Duration `yaml:"memory_ttl" koanf:"memory_ttl"`
	SweepSchedule  string        `yaml:"sweep_schedule" koanf:"sweep_schedule"`
}

// KnowledgeConfig locates seed data and the persisted index.
type KnowledgeConfig struct {
	Dir               string `yaml:"dir" koanf:"dir"`
	IndexDir          string `yaml:"index_dir" koanf:"index_dir"`
	EmbeddingProvider string `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string `yaml:"embedding_model" koanf:"embedding_model"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level" koanf:"level"`
	Development bool   `yaml:"development" koanf:"development"`
}
