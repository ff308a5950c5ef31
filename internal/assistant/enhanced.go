// Package assistant provides the diagnostic processors served by the
// reliability cascade: an enhanced processor driving a structured model
// workflow backed by the knowledge base, and a plain legacy processor.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/knowledge"
	"github.com/ziadkadry99/boilerbrain/internal/llm"
	"github.com/ziadkadry99/boilerbrain/internal/logging"
	"github.com/ziadkadry99/boilerbrain/internal/recovery"
	"github.com/ziadkadry99/boilerbrain/internal/reliability"
	"github.com/ziadkadry99/boilerbrain/internal/selector"
)

// DefaultRegulation is cited when regulated work comes up and the model
// names no specific regulation.
const DefaultRegulation = "Gas Safety (Installation and Use) Regulations 1998"

const (
	noKnowledgeResponse = "No specific fault code found. Based on the information provided, I'll use my engineering experience to help diagnose the issue."
	unclearResponse     = "I'm not sure how to proceed. Could you please clarify?"
	minSimilarity       = 0.35
)

// Knowledge is the subset of the knowledge base the processors use.
type Knowledge interface {
	Lookup(manufacturer, code string) (knowledge.Entry, bool)
	Search(ctx context.Context, query, manufacturer string, n int) ([]knowledge.Result, error)
	ManualLink(manufacturer string) string
}

// Caller is the model selection and invocation surface.
type Caller interface {
	Rank(ctx context.Context, query string, c *diagnostic.Context) ([]string, error)
	CallWithFallback(ctx context.Context, messages []llm.Message, order ...string) (selector.CallResult, error)
}

// Enhanced is the primary diagnostic processor.
type Enhanced struct {
	caller    Caller
	knowledge Knowledge
	recovery  *recovery.Manager
	logger    *zap.Logger
}

// EnhancedOption configures an Enhanced processor.
type EnhancedOption func(*Enhanced)

// WithKnowledge sets the knowledge base used for query actions.
func WithKnowledge(k Knowledge) EnhancedOption {
	return func(p *Enhanced) { p.knowledge = k }
}

// WithRecovery snapshots the session around model calls.
func WithRecovery(m *recovery.Manager) EnhancedOption {
	return func(p *Enhanced) { p.recovery = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) EnhancedOption {
	return func(p *Enhanced) { p.logger = logging.OrNop(l) }
}

// NewEnhanced creates the enhanced processor.
func NewEnhanced(caller Caller, opts ...EnhancedOption) *Enhanced {
	p := &Enhanced{caller: caller, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ reliability.Processor = (*Enhanced)(nil)

// Process implements reliability.Processor.
func (p *Enhanced) Process(ctx context.Context, message string, c *diagnostic.Context) (reliability.Response, error) {
	c.DetailMode = diagnostic.DetailMode(message, c.DetailMode)
	analysis := diagnostic.AnalyzeContext(c, message)
	c.Facts = analysis.Facts()
	regulation := diagnostic.RegulationTriggered(message)

	ranked, err := p.caller.Rank(ctx, message, c)
	if err != nil {
		if errors.Is(err, selector.ErrNoProviderAvailable) {
			p.logger.Error("no model provider is configured", zap.Error(err))
		}
		return reliability.Response{}, fmt.Errorf("selecting model: %w", err)
	}

	messages := buildEnhancedMessages(c, analysis, message, regulation)
	var result selector.CallResult
	err = bracket(ctx, p.recovery, c, func(ctx context.Context) error {
		var callErr error
		result, callErr = p.caller.CallWithFallback(ctx, messages, ranked...)
		return callErr
	})
	if err != nil {
		return reliability.Response{}, fmt.Errorf("calling model: %w", err)
	}

	action, err := ParseAction(result.Text)
	if err != nil {
		return reliability.Response{}, fmt.Errorf("decoding model reply from %s: %w", result.ModelUsed, err)
	}
	action.ContextUpdate.Apply(c)

	text, source := p.render(ctx, action, c, regulation)
	p.logger.Debug("enhanced response",
		zap.String("model", result.ModelUsed),
		zap.String("action", action.Action),
		zap.String("source", source))

	return reliability.Response{
		Text: text,
		Metadata: map[string]any{
			"modelUsed":       result.ModelUsed,
			"costEstimate":    result.CostEstimate,
			"action":          action.Action,
			"answerSource":    source,
			"diagnosticStage": string(analysis.DiagnosticStage),
			"detailMode":      c.DetailMode,
		},
	}, nil
}

// render turns an action into the reply text and names where the answer
// came from.
func (p *Enhanced) render(ctx context.Context, a Action, c *diagnostic.Context, regulation bool) (string, string) {
	switch a.Action {
	case ActionAsk:
		return a.Response, "model"
	case ActionQuery:
		entry, ok := p.lookup(ctx, a.KnowledgeQuery, c)
		if !ok {
			if strings.TrimSpace(a.Response) != "" {
				return a.Response, "model"
			}
			return noKnowledgeResponse, "model"
		}
		manual := firstNonEmpty(a.ManualLink, entry.ManualURL)
		if manual == "" && p.knowledge != nil {
			manual = p.knowledge.ManualLink(entry.Manufacturer)
		}
		reg := ""
		if regulation || entry.Regulation != "" {
			reg = firstNonEmpty(a.RegulationRef, entry.Regulation, DefaultRegulation)
		}
		return withReferences(knowledge.Answer(entry), manual, reg), "knowledge"
	case ActionFallbackReasoning:
		reg := ""
		if regulation {
			reg = firstNonEmpty(a.RegulationRef, DefaultRegulation)
		}
		return withReferences(a.Response, a.ManualLink, reg), "model"
	default:
		return firstNonEmpty(a.Response, unclearResponse), "model"
	}
}

func (p *Enhanced) lookup(ctx context.Context, q KnowledgeQuery, c *diagnostic.Context) (knowledge.Entry, bool) {
	if p.knowledge == nil {
		return knowledge.Entry{}, false
	}
	manufacturer := strings.ToLower(firstNonEmpty(q.Manufacturer, c.Facts.Manufacturer))

	codes := diagnostic.ExtractFaultCodes(q.FaultCode)
	if len(codes) == 0 {
		codes = c.Facts.FaultCodes
	}
	for _, code := range codes {
		if e, ok := p.knowledge.Lookup(manufacturer, code); ok {
			return e, true
		}
		if e, ok := p.knowledge.Lookup("", code); ok {
			return e, true
		}
	}

	text := firstNonEmpty(q.Text, q.FaultCode)
	if text == "" {
		return knowledge.Entry{}, false
	}
	// Search may call a remote embedder, so it is bracketed like a model call.
	var results []knowledge.Result
	err := bracket(ctx, p.recovery, c, func(ctx context.Context) error {
		var err error
		results, err = p.knowledge.Search(ctx, text, manufacturer, 1)
		return err
	})
	if err != nil {
		p.logger.Warn("knowledge search failed", zap.Error(err))
		return knowledge.Entry{}, false
	}
	if len(results) == 0 || results[0].Similarity < minSimilarity {
		return knowledge.Entry{}, false
	}
	return results[0].Entry, true
}

func withReferences(text, manual, regulation string) string {
	if manual != "" {
		text += "\n\nManual: " + manual
	}
	if regulation != "" {
		text += "\n\nGas Safety Regulation: " + regulation
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// bracket runs fn between recovery snapshots when a manager and session
// are available.
func bracket(ctx context.Context, m *recovery.Manager, c *diagnostic.Context, fn func(context.Context) error) error {
	id := SessionID(ctx)
	if m == nil || id == "" {
		return fn(ctx)
	}
	return m.Bracket(ctx, id, c, fn)
}
