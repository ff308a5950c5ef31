// Package reliability guarantees that every diagnostic request gets an
// answer by cascading through enhanced, fallback and emergency tiers.
package reliability

import (
	"context"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
)

// Response is what a Processor produces.
type Response struct {
	Text     string
	Metadata map[string]any
}

// Processor turns a user message into a response. Implementations must
// return promptly once ctx is done. c is private to the call and may be
// modified; the orchestrator keeps the changes only if the call wins.
type Processor interface {
	Process(ctx context.Context, message string, c *diagnostic.Context) (Response, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, message string, c *diagnostic.Context) (Response, error)

func (f ProcessorFunc) Process(ctx context.Context, message string, c *diagnostic.Context) (Response, error) {
	return f(ctx, message, c)
}
