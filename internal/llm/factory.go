package llm

import (
	"context"
	"fmt"
	"os"
)

// DefaultCredentialEnv returns the environment variable that conventionally
// holds the API key for providerType. Ollama needs no key.
func DefaultCredentialEnv(providerType string) string {
	switch providerType {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "openrouter":
		return "OPENROUTER_API_KEY"
	case "minimax":
		return "MINIMAX_API_KEY"
	case "gemini", "google":
		return "GEMINI_API_KEY"
	}
	return ""
}

// NewProvider creates a provider of the given type with an explicit API key.
// Supported provider types: "anthropic", "openai", "openrouter", "minimax",
// "gemini" (alias "google"), "ollama".
func NewProvider(ctx context.Context, providerType, apiKey, model string) (Provider, error) {
	if providerType != "ollama" && apiKey == "" {
		return nil, fmt.Errorf("no API key for provider %q", providerType)
	}

	switch providerType {
	case "anthropic":
		return NewAnthropicProvider(apiKey, model), nil
	case "openai":
		return NewOpenAIProvider(apiKey, model), nil
	case "openrouter":
		return NewOpenRouterProvider(apiKey, model), nil
	case "minimax":
		return NewMinimaxProvider(apiKey, model), nil
	case "gemini", "google":
		return NewGeminiProvider(ctx, apiKey, model)
	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// NewProviderFromEnv creates a provider reading its API key from the
// conventional environment variable.
func NewProviderFromEnv(ctx context.Context, providerType, model string) (Provider, error) {
	env := DefaultCredentialEnv(providerType)
	var key string
	if env != "" {
		key = os.Getenv(env)
		if key == "" {
			return nil, fmt.Errorf("%s environment variable is not set", env)
		}
	}
	return NewProvider(ctx, providerType, key, model)
}
