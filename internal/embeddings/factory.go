package embeddings

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/boilerbrain/internal/llm"
)

// New creates the embedder for provider: "local" (or empty), "openai",
// "ollama" or "gemini". Keys and the Ollama host come from keys.
func New(ctx context.Context, provider, model string, keys KeySource) (Embedder, error) {
	switch provider {
	case "", "local":
		return NewLocalEmbedder(0), nil
	case "ollama":
		host, _ := keys.Lookup("OLLAMA_HOST")
		return NewOllamaEmbedder(host, model, 768), nil
	case "openai", "gemini", "google":
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", provider)
	}

	env := llm.DefaultCredentialEnv(provider)
	key, ok := keys.Lookup(env)
	if !ok || key == "" {
		return nil, fmt.Errorf("no API key for embedding provider %q: set %s or run 'boilerbrain auth set %s'", provider, env, provider)
	}
	if provider == "openai" {
		return NewOpenAIEmbedder(key, model), nil
	}
	return NewGeminiEmbedder(ctx, key, model, 768)
}
