package config

import (
	"time"

	"github.com/ziadkadry99/boilerbrain/internal/selector"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "boilerbrain.yml"

// DefaultModels is the registry used when the config lists no models.
// Order matters: medium complexity queries try models in this order.
var DefaultModels = []selector.ModelDescriptor{
	{
		ID:                   "gpt-4o-mini",
		Provider:             string(ProviderOpenAI),
		CostPerMillionTokens: 0.6,
		Capabilities:         []string{selector.CapabilityFast, selector.CapabilityJSON},
		MaxTokens:            1024,
	},
	{
		ID:                   "claude-sonnet-4-5-20250929",
		Provider:             string(ProviderAnthropic),
		CostPerMillionTokens: 15,
		Capabilities:         []string{selector.CapabilityReasoning, selector.CapabilityJSON},
		MaxTokens:            1536,
	},
	{
		ID:                   "gemini-2.5-flash",
		Provider:             string(ProviderGemini),
		CostPerMillionTokens: 2.5,
		Capabilities:         []string{selector.CapabilityFast, selector.CapabilityJSON},
		MaxTokens:            1024,
	},
	{
		ID:                   "gpt-4o",
		Provider:             string(ProviderOpenAI),
		CostPerMillionTokens: 10,
		Capabilities:         []string{selector.CapabilityReasoning, selector.CapabilityJSON},
		MaxTokens:            1536,
	},
	{
		ID:                   "minimax/minimax-m2.5",
		Provider:             string(ProviderOpenRouter),
		CostPerMillionTokens: 1.2,
		Capabilities:         []string{selector.CapabilityFast},
		MaxTokens:            1024,
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Models:         append([]selector.ModelDescriptor(nil), DefaultModels...),
		LegacyProvider: ProviderOpenAI,
		LegacyModel:    "gpt-4o-mini",
		RateLimitRPM:   60,
		Reliability: ReliabilityConfig{
			EnhancedTimeout: 25 * time.Second,
			FallbackTimeout: 12 * time.Second,
		},
		Session: SessionConfig{
			Driver:         "sqlite",
			SQLitePath:     ".boilerbrain/sessions.db",
			RedisTTL:       24 * time.Hour,
			MemoryCapacity: 1000,
			MemoryTTL:      2 * time.Hour,
			SweepSchedule:  "@every 1m",
		},
		Knowledge: KnowledgeConfig{
			Dir:               "knowledge",
			IndexDir:          ".boilerbrain/knowledge",
			EmbeddingProvider: "local",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
