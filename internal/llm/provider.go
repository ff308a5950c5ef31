package llm

import "context"

// Provider defines the interface for LLM providers. Implementations must
// honour ctx cancellation so an abandoned call releases its connection.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
