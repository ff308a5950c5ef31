package selector

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/llm"
	"github.com/ziadkadry99/boilerbrain/internal/logging"
)

var (
	// ErrNoProviderAvailable means no registered model has a usable
	// credential. It is a configuration problem, not a transient one.
	ErrNoProviderAvailable = errors.New("no model provider available")
	// ErrAllProvidersFailed means every candidate model was tried and failed.
	ErrAllProvidersFailed = errors.New("all model providers failed")
	// ErrEmptyResponse is recorded when a model returns only whitespace.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

const defaultMaxTokens = 1024

// CallResult is the outcome of CallWithFallback.
type CallResult struct {
	Text         string
	ModelUsed    string
	CostEstimate float64
}

// Selector picks models for queries and calls them with fallback.
type Selector struct {
	registry    *Registry
	health      *HealthTracker
	credentials CredentialSource
	invoker     Invoker
	temperature float64
	logger      *zap.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithCredentials overrides the default environment credential source.
func WithCredentials(c CredentialSource) Option {
	return func(s *Selector) { s.credentials = c }
}

// WithHealth shares a HealthTracker between selectors.
func WithHealth(h *HealthTracker) Option {
	return func(s *Selector) { s.health = h }
}

// WithTemperature sets the sampling temperature for every call.
func WithTemperature(t float64) Option {
	return func(s *Selector) { s.temperature = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Selector) { s.logger = logging.OrNop(l) }
}

// New creates a Selector over registry using invoker for calls.
func New(registry *Registry, invoker Invoker, opts ...Option) *Selector {
	s := &Selector{
		registry:    registry,
		credentials: EnvCredentials{},
		invoker:     invoker,
		temperature: 0.3,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = NewHealthTracker(registry.IDs()...)
	}
	return s
}

// Registry returns the model registry.
func (s *Selector) Registry() *Registry { return s.registry }

// Health returns a snapshot of every model's health.
func (s *Selector) Health() map[string]HealthSnapshot {
	return s.health.Snapshot()
}

// Select returns the ID of the best available model for query.
func (s *Selector) Select(ctx context.Context, query string, c *diagnostic.Context) (string, error) {
	ranked, err := s.Rank(ctx, query, c)
	if err != nil {
		return "", err
	}
	return ranked[0], nil
}

// Rank returns the IDs of every available model in preference order for
// query. The first entry is the one Select would pick; passing the whole
// slice to CallWithFallback keeps that order for the fallback walk.
func (s *Selector) Rank(ctx context.Context, query string, c *diagnostic.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	profile := Classify(query)
	if c != nil && c.DetailMode && profile.Complexity == ComplexityLow {
		profile.Complexity = ComplexityMedium
	}

	candidates := s.candidates(s.order(profile))
	if len(candidates) == 0 {
		return nil, ErrNoProviderAvailable
	}

	s.logger.Debug("model selected",
		zap.String("model", candidates[0].ID),
		zap.Bool("safety_critical", profile.IsSafetyCritical),
		zap.Bool("emergency", profile.IsEmergency),
		zap.String("complexity", string(profile.Complexity)))

	ids := make([]string, len(candidates))
	for i, m := range candidates {
		ids[i] = m.ID
	}
	return ids, nil
}

// CallWithFallback calls the models named in order first, in that order,
// and then every other available model until one returns a non-empty
// response. order is normally the result of Rank; a single ID just marks
// the preferred model. Health is recorded for every attempt. When ctx is
// done the walk stops and the context error is returned joined with the
// attempt errors.
func (s *Selector) CallWithFallback(ctx context.Context, messages []llm.Message, order ...string) (CallResult, error) {
	chain := s.chain(order)
	if len(chain) == 0 {
		return CallResult{}, ErrNoProviderAvailable
	}

	var errs []error
	for _, model := range chain {
		if err := ctx.Err(); err != nil {
			return CallResult{}, errors.Join(append([]error{err}, errs...)...)
		}

		apiKey, ok := s.credentials.Credential(model)
		if !ok {
			continue
		}

		maxTokens := model.MaxTokens
		if maxTokens == 0 {
			maxTokens = defaultMaxTokens
		}

		res, err := s.invoker.Invoke(ctx, model, apiKey, messages, maxTokens, s.temperature)
		if err == nil && strings.TrimSpace(res.Text) == "" {
			err = ErrEmptyResponse
		}
		if err != nil {
			s.health.RecordError(model.ID, err)
			s.logger.Warn("model call failed",
				zap.String("model", model.ID),
				zap.String("provider", model.Provider),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", model.ID, err))
			continue
		}

		s.health.RecordSuccess(model.ID)
		return CallResult{
			Text:         res.Text,
			ModelUsed:    model.ID,
			CostEstimate: llm.CostForTokens(model.CostPerMillionTokens, res.Tokens),
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return CallResult{}, errors.Join(append([]error{err}, errs...)...)
	}
	if len(errs) == 0 {
		return CallResult{}, ErrNoProviderAvailable
	}
	return CallResult{}, errors.Join(append([]error{ErrAllProvidersFailed}, errs...)...)
}

// chain lists the available models named in order, in that order,
// followed by the remaining available models.
func (s *Selector) chain(order []string) []ModelDescriptor {
	available := s.candidates(s.registry.Models())
	chain := make([]ModelDescriptor, 0, len(available))
	for _, id := range order {
		i := slices.IndexFunc(available, func(d ModelDescriptor) bool { return d.ID == id })
		if i < 0 {
			continue
		}
		chain = append(chain, available[i])
		available = slices.Delete(available, i, i+1)
	}
	return append(chain, available...)
}

// order sorts the registry for profile.
func (s *Selector) order(p QueryProfile) []ModelDescriptor {
	models := s.registry.Models()
	switch {
	case p.IsSafetyCritical || p.IsEmergency || p.Complexity == ComplexityHigh:
		slices.SortStableFunc(models, func(a, b ModelDescriptor) int {
			ar, br := a.HasCapability(CapabilityReasoning), b.HasCapability(CapabilityReasoning)
			if ar != br {
				if ar {
					return -1
				}
				return 1
			}
			return cmp.Compare(b.CostPerMillionTokens, a.CostPerMillionTokens)
		})
	case p.Complexity == ComplexityLow:
		slices.SortStableFunc(models, func(a, b ModelDescriptor) int {
			return cmp.Compare(a.CostPerMillionTokens, b.CostPerMillionTokens)
		})
	}
	return models
}

// candidates drops models without a credential and moves unhealthy models
// to the end, preserving relative order otherwise.
func (s *Selector) candidates(models []ModelDescriptor) []ModelDescriptor {
	var healthy, demoted []ModelDescriptor
	for _, m := range models {
		if _, ok := s.credentials.Credential(m); !ok {
			continue
		}
		if s.health.demoted(m.ID) {
			demoted = append(demoted, m)
			continue
		}
		healthy = append(healthy, m)
	}
	return append(healthy, demoted...)
}
