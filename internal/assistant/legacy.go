package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/llm"
	"github.com/ziadkadry99/boilerbrain/internal/logging"
	"github.com/ziadkadry99/boilerbrain/internal/recovery"
	"github.com/ziadkadry99/boilerbrain/internal/reliability"
)

// Legacy is the fallback processor: one provider, one model, plain text.
// When the analysis says a question is still pending and no provider is
// configured, it asks that question directly.
type Legacy struct {
	provider llm.Provider
	model    string
	recovery *recovery.Manager
	logger   *zap.Logger
}

// NewLegacy creates the legacy processor. provider may be nil.
func NewLegacy(provider llm.Provider, model string, m *recovery.Manager, logger *zap.Logger) *Legacy {
	return &Legacy{provider: provider, model: model, recovery: m, logger: logging.OrNop(logger)}
}

var _ reliability.Processor = (*Legacy)(nil)

// Process implements reliability.Processor.
func (p *Legacy) Process(ctx context.Context, message string, c *diagnostic.Context) (reliability.Response, error) {
	analysis := diagnostic.AnalyzeContext(c, message)
	c.Facts = analysis.Facts()

	if p.provider == nil {
		if q := QuestionText(analysis.NextQuestion); q != "" {
			return reliability.Response{Text: q, Metadata: map[string]any{"action": ActionAsk}}, nil
		}
		return reliability.Response{}, fmt.Errorf("legacy processor: no provider configured")
	}

	var resp *llm.CompletionResponse
	err := bracket(ctx, p.recovery, c, func(ctx context.Context) error {
		var callErr error
		resp, callErr = p.provider.Complete(ctx, llm.CompletionRequest{
			Model:       p.model,
			Messages:    buildLegacyMessages(c, analysis, message),
			MaxTokens:   512,
			Temperature: 0.2,
		})
		return callErr
	})
	if err != nil {
		return reliability.Response{}, fmt.Errorf("legacy completion: %w", err)
	}

	p.logger.Debug("legacy response", zap.String("provider", p.provider.Name()), zap.Int("output_tokens", resp.OutputTokens))
	return reliability.Response{
		Text: strings.TrimSpace(resp.Content),
		Metadata: map[string]any{
			"modelUsed":       p.model,
			"diagnosticStage": string(analysis.DiagnosticStage),
		},
	}, nil
}
