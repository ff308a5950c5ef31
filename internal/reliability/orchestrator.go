package reliability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/emergency"
	"github.com/ziadkadry99/boilerbrain/internal/logging"
)

// Tier identifies which stage of the cascade produced a response.
type Tier string

const (
	TierEnhanced  Tier = "enhanced"
	TierFallback  Tier = "fallback"
	TierEmergency Tier = "emergency_template"
)

// Default per-tier deadlines.
const (
	DefaultEnhancedTimeout = 25 * time.Second
	DefaultFallbackTimeout = 12 * time.Second
)

// Metadata keys set on every Result.
const (
	MetaTier           = "tier"
	MetaResponseTimeMs = "responseTimeMs"
	MetaFallbackReason = "fallbackReason"
	MetaPrimaryError   = "primaryError"
	MetaFallbackError  = "fallbackError"
)

// Fallback reasons.
const (
	ReasonPrimaryTimeout   = "primary_timeout"
	ReasonPrimaryError     = "primary_error"
	ReasonFallbackTimeout  = "fallback_timeout"
	ReasonFallbackError    = "fallback_error"
	ReasonRequestCancelled = "request_cancelled"
)

var (
	// ErrTierTimeout is returned when a processor misses its deadline.
	ErrTierTimeout = errors.New("processor timed out")
	// ErrEmptyResponse is returned when a processor answers with blank text.
	ErrEmptyResponse = errors.New("processor returned an empty response")
	// ErrProcessorPanic wraps a recovered processor panic.
	ErrProcessorPanic = errors.New("processor panicked")
	// ErrNoProcessor is returned for a nil processor.
	ErrNoProcessor = errors.New("no processor configured")
)

// Result is the guaranteed outcome of a request.
type Result struct {
	ResponseText string         `json:"response"`
	SourceTier   Tier           `json:"source_tier"`
	Reliable     bool           `json:"reliable"`
	Metadata     map[string]any `json:"metadata"`
}

// Orchestrator runs the tier cascade.
type Orchestrator struct {
	enhancedTimeout time.Duration
	fallbackTimeout time.Duration
	metrics         *Metrics
	logger          *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeouts sets the enhanced and fallback deadlines. Non-positive
// values keep the defaults.
func WithTimeouts(enhanced, fallback time.Duration) Option {
	return func(o *Orchestrator) {
		if enhanced > 0 {
			o.enhancedTimeout = enhanced
		}
		if fallback > 0 {
			o.fallbackTimeout = fallback
		}
	}
}

// WithMetrics shares a Metrics instance.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(l) }
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		enhancedTimeout: DefaultEnhancedTimeout,
		fallbackTimeout: DefaultFallbackTimeout,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}
	return o
}

// Metrics returns the orchestrator's metrics.
func (o *Orchestrator) Metrics() *Metrics { return o.metrics }

// GuaranteeResponse answers message, trying primary, then fallback, then
// the emergency templates. It always returns non-empty text and never
// takes longer than the two tier deadlines combined. The response is
// appended to c as an assistant turn.
func (o *Orchestrator) GuaranteeResponse(ctx context.Context, message string, c *diagnostic.Context, primary, fallback Processor) Result {
	start := time.Now()
	if c == nil {
		c = &diagnostic.Context{}
	}
	meta := map[string]any{}

	finish := func(tier Tier, text string, extra map[string]any) Result {
		elapsed := time.Since(start)
		for k, v := range extra {
			if _, set := meta[k]; !set {
				meta[k] = v
			}
		}
		meta[MetaTier] = string(tier)
		meta[MetaResponseTimeMs] = elapsed.Milliseconds()
		o.metrics.Record(tier, elapsed)
		c.AppendTurn(diagnostic.SenderAssistant, text)
		return Result{ResponseText: text, SourceTier: tier, Reliable: true, Metadata: meta}
	}

	if ctx.Err() != nil {
		meta[MetaFallbackReason] = ReasonRequestCancelled
		return finish(TierEmergency, emergency.Generate(message, c), nil)
	}

	resp, work, err := o.runTier(ctx, o.enhancedTimeout, primary, message, c)
	if err == nil {
		*c = *work
		return finish(TierEnhanced, resp.Text, resp.Metadata)
	}
	meta[MetaPrimaryError] = err.Error()
	meta[MetaFallbackReason] = reasonFor(err, ReasonPrimaryTimeout, ReasonPrimaryError)
	o.logger.Warn("enhanced tier failed", zap.Error(err))

	if ctx.Err() != nil {
		meta[MetaFallbackReason] = ReasonRequestCancelled
		return finish(TierEmergency, emergency.Generate(message, c), nil)
	}

	resp, work, err = o.runTier(ctx, o.fallbackTimeout, fallback, message, c)
	if err == nil {
		*c = *work
		return finish(TierFallback, resp.Text, resp.Metadata)
	}
	meta[MetaFallbackError] = err.Error()
	meta[MetaFallbackReason] = reasonFor(err, ReasonFallbackTimeout, ReasonFallbackError)
	if ctx.Err() != nil {
		meta[MetaFallbackReason] = ReasonRequestCancelled
	}
	o.logger.Error("fallback tier failed, using emergency template", zap.Error(err))

	return finish(TierEmergency, emergency.Generate(message, c), nil)
}

type tierOutcome struct {
	resp Response
	err  error
}

// runTier calls p on a private copy of c under a deadline. The copy is
// returned so the caller can adopt it if the tier wins. On timeout the
// call's context is cancelled and its result discarded.
func (o *Orchestrator) runTier(ctx context.Context, timeout time.Duration, p Processor, message string, c *diagnostic.Context) (Response, *diagnostic.Context, error) {
	if p == nil {
		return Response{}, nil, ErrNoProcessor
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	work := c.Clone()
	done := make(chan tierOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- tierOutcome{err: fmt.Errorf("%w: %v", ErrProcessorPanic, r)}
			}
		}()
		resp, err := p.Process(tctx, message, work)
		done <- tierOutcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		return settle(out, work)
	case <-tctx.Done():
		// A result that landed as the deadline fired still counts.
		if out, ok := finished(done); ok {
			return settle(out, work)
		}
		if ctx.Err() != nil {
			return Response{}, nil, ctx.Err()
		}
		return Response{}, nil, fmt.Errorf("%w after %s", ErrTierTimeout, timeout)
	}
}

// finished returns the tier's outcome if it is already available.
func finished(done <-chan tierOutcome) (tierOutcome, bool) {
	select {
	case out := <-done:
		return out, true
	default:
		return tierOutcome{}, false
	}
}

func settle(out tierOutcome, work *diagnostic.Context) (Response, *diagnostic.Context, error) {
	if out.err != nil {
		return Response{}, nil, out.err
	}
	if strings.TrimSpace(out.resp.Text) == "" {
		return Response{}, nil, ErrEmptyResponse
	}
	return out.resp, work, nil
}

func reasonFor(err error, timeout, failure string) string {
	if errors.Is(err, ErrTierTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return timeout
	}
	return failure
}
