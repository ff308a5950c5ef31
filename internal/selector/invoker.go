package selector

import (
	"context"
	"fmt"
	"sync"

	"github.com/ziadkadry99/boilerbrain/internal/llm"
)

// InvokeResult is the outcome of a single model call.
type InvokeResult struct {
	Text   string
	Tokens int
}

// Invoker is the uniform call contract over every provider.
type Invoker interface {
	Invoke(ctx context.Context, model ModelDescriptor, apiKey string, messages []llm.Message, maxTokens int, temperature float64) (InvokeResult, error)
}

// ProviderFactory builds an llm.Provider for a provider type and key.
type ProviderFactory func(ctx context.Context, providerType, apiKey, model string) (llm.Provider, error)

// ProviderInvoker implements Invoker over llm.Provider, caching one client
// per provider type and key.
type ProviderInvoker struct {
	factory ProviderFactory
	rpm     int

	mu        sync.Mutex
	providers map[string]llm.Provider
}

// NewProviderInvoker returns an invoker using llm.NewProvider. A positive
// rpm rate-limits each provider client.
func NewProviderInvoker(rpm int) *ProviderInvoker {
	return NewProviderInvokerWithFactory(llm.NewProvider, rpm)
}

// NewProviderInvokerWithFactory is NewProviderInvoker with a custom factory.
func NewProviderInvokerWithFactory(factory ProviderFactory, rpm int) *ProviderInvoker {
	return &ProviderInvoker{
		factory:   factory,
		rpm:       rpm,
		providers: make(map[string]llm.Provider),
	}
}

func (p *ProviderInvoker) Invoke(ctx context.Context, model ModelDescriptor, apiKey string, messages []llm.Message, maxTokens int, temperature float64) (InvokeResult, error) {
	provider, err := p.provider(ctx, model, apiKey)
	if err != nil {
		return InvokeResult{}, err
	}

	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Model:       model.ID,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return InvokeResult{}, err
	}
	return InvokeResult{Text: resp.Content, Tokens: llm.UsageTokens(messages, resp)}, nil
}

func (p *ProviderInvoker) provider(ctx context.Context, model ModelDescriptor, apiKey string) (llm.Provider, error) {
	key := model.Provider + "\x00" + apiKey

	p.mu.Lock()
	defer p.mu.Unlock()
	if prov, ok := p.providers[key]; ok {
		return prov, nil
	}
	prov, err := p.factory(ctx, model.Provider, apiKey, model.ID)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", model.Provider, err)
	}
	prov = llm.NewRateLimitedProvider(prov, p.rpm)
	p.providers[key] = prov
	return prov, nil
}
