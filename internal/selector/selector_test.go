package selector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/llm"
)

// fakeInvoker answers per model ID and records the call order.
type fakeInvoker struct {
	mu      sync.Mutex
	calls   []string
	replies map[string]string
	errs    map[string]error
	hook    func(ctx context.Context, id string)
}

func (f *fakeInvoker) Invoke(ctx context.Context, model ModelDescriptor, apiKey string, messages []llm.Message, maxTokens int, temperature float64) (InvokeResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model.ID)
	f.mu.Unlock()
	if f.hook != nil {
		f.hook(ctx, model.ID)
	}
	if err := f.errs[model.ID]; err != nil {
		return InvokeResult{}, err
	}
	return InvokeResult{Text: f.replies[model.ID], Tokens: 1000}, nil
}

func (f *fakeInvoker) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(
		ModelDescriptor{ID: "mid", Provider: "openai", CostPerMillionTokens: 2.5, CredentialEnv: "OPENAI_API_KEY"},
		ModelDescriptor{ID: "cheap", Provider: "openrouter", CostPerMillionTokens: 0.2, Capabilities: []string{CapabilityFast}, CredentialEnv: "OPENROUTER_API_KEY"},
		ModelDescriptor{ID: "smart", Provider: "anthropic", CostPerMillionTokens: 3, Capabilities: []string{CapabilityReasoning}, CredentialEnv: "ANTHROPIC_API_KEY"},
		ModelDescriptor{ID: "pricey", Provider: "openai", CostPerMillionTokens: 15, CredentialEnv: "OPENAI_API_KEY"},
	)
	require.NoError(t, err)
	return reg
}

func allKeys() StaticCredentials {
	return StaticCredentials{"OPENAI_API_KEY": "k1", "OPENROUTER_API_KEY": "k2", "ANTHROPIC_API_KEY": "k3"}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		ModelDescriptor{ID: "a", Provider: "openai"},
		ModelDescriptor{ID: "a", Provider: "anthropic"},
	)
	assert.Error(t, err)

	_, err = NewRegistry()
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  QueryProfile
	}{
		{"I can smell gas in the kitchen", QueryProfile{IsSafetyCritical: true, Complexity: ComplexityLow}},
		{"radiators are cold", QueryProfile{Complexity: ComplexityLow}},
		{"is it the diverter valve?", QueryProfile{Complexity: ComplexityMedium}},
		{"pump runs, fan spins, but no ignition", QueryProfile{Complexity: ComplexityHigh}},
		{"no heating and my elderly mother lives here", QueryProfile{Complexity: ComplexityLow, IsEmergency: true}},
		{"urgent help needed", QueryProfile{Complexity: ComplexityLow, IsEmergency: true}},
		{"fantastic, it works", QueryProfile{Complexity: ComplexityLow}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.query), tt.query)
	}
}

func TestSelectOrdersByProfile(t *testing.T) {
	s := New(testRegistry(t), &fakeInvoker{}, WithCredentials(allKeys()))
	ctx := context.Background()

	id, err := s.Select(ctx, "I can smell gas", nil)
	require.NoError(t, err)
	assert.Equal(t, "smart", id, "safety-critical queries prefer reasoning models")

	id, err = s.Select(ctx, "radiators are cold", nil)
	require.NoError(t, err)
	assert.Equal(t, "cheap", id, "low complexity prefers the cheapest model")

	id, err = s.Select(ctx, "could it be the pump?", nil)
	require.NoError(t, err)
	assert.Equal(t, "mid", id, "medium complexity keeps registry order")
}

func TestSelectDetailModeRaisesComplexity(t *testing.T) {
	s := New(testRegistry(t), &fakeInvoker{}, WithCredentials(allKeys()))
	id, err := s.Select(context.Background(), "radiators are cold", &diagnostic.Context{DetailMode: true})
	require.NoError(t, err)
	assert.Equal(t, "mid", id)
}

func TestSelectFiltersByCredentialAtCallTime(t *testing.T) {
	creds := StaticCredentials{"OPENAI_API_KEY": "k1"}
	s := New(testRegistry(t), &fakeInvoker{}, WithCredentials(creds))

	id, err := s.Select(context.Background(), "I can smell gas", nil)
	require.NoError(t, err)
	assert.Equal(t, "pricey", id, "reasoning model has no key, most expensive remaining wins")

	// Revoking the last key takes effect on the next call.
	delete(creds, "OPENAI_API_KEY")
	_, err = s.Select(context.Background(), "I can smell gas", nil)
	assert.ErrorIs(t, err, ErrNoProviderAvailable)

	creds["ANTHROPIC_API_KEY"] = "k3"
	id, err = s.Select(context.Background(), "I can smell gas", nil)
	require.NoError(t, err)
	assert.Equal(t, "smart", id)
}

func TestCallWithFallbackNeverInvokesUncredentialedModels(t *testing.T) {
	inv := &fakeInvoker{errs: map[string]error{"mid": errors.New("boom")}}
	s := New(testRegistry(t), inv, WithCredentials(StaticCredentials{"OPENAI_API_KEY": "k1"}))

	_, err := s.CallWithFallback(context.Background(), nil, "smart")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Equal(t, []string{"mid", "pricey"}, inv.called())
}

func TestCallWithFallbackPreferredFirstThenRest(t *testing.T) {
	inv := &fakeInvoker{
		errs:    map[string]error{"smart": &llm.ProviderError{Provider: "anthropic", Kind: llm.KindRateLimited, Status: 429, Err: errors.New("slow down")}},
		replies: map[string]string{"mid": "check the pressure gauge"},
	}
	s := New(testRegistry(t), inv, WithCredentials(allKeys()))

	res, err := s.CallWithFallback(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, "smart")
	require.NoError(t, err)
	assert.Equal(t, "mid", res.ModelUsed)
	assert.Equal(t, "check the pressure gauge", res.Text)
	assert.InDelta(t, 0.0025, res.CostEstimate, 1e-9)
	assert.Equal(t, []string{"smart", "mid"}, inv.called())

	health := s.Health()
	assert.EqualValues(t, 1, health["smart"].ErrorCount)
	assert.EqualValues(t, 1, health["mid"].SuccessCount)
	assert.Contains(t, health["smart"].LastError, "rate_limited")
}

func TestCallWithFallbackFollowsRankedOrder(t *testing.T) {
	inv := &fakeInvoker{
		errs:    map[string]error{"smart": errors.New("overloaded")},
		replies: map[string]string{"mid": "registry order", "pricey": "safety order"},
	}
	s := New(testRegistry(t), inv, WithCredentials(allKeys()))
	ctx := context.Background()

	ranked, err := s.Rank(ctx, "I can smell gas and the CO alarm is going off", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"smart", "pricey", "mid", "cheap"}, ranked)

	res, err := s.CallWithFallback(ctx, nil, ranked...)
	require.NoError(t, err)
	assert.Equal(t, "pricey", res.ModelUsed)
	assert.Equal(t, []string{"smart", "pricey"}, inv.called())
}

func TestCallWithFallbackAppendsUnrankedModels(t *testing.T) {
	inv := &fakeInvoker{errs: map[string]error{
		"cheap": errors.New("a"), "mid": errors.New("b"), "smart": errors.New("c"),
	}, replies: map[string]string{"pricey": "ok"}}
	s := New(testRegistry(t), inv, WithCredentials(allKeys()))

	res, err := s.CallWithFallback(context.Background(), nil, "cheap", "unknown-model")
	require.NoError(t, err)
	assert.Equal(t, "pricey", res.ModelUsed)
	assert.Equal(t, []string{"cheap", "mid", "smart", "pricey"}, inv.called())
}

func TestCallWithFallbackAllFail(t *testing.T) {
	inv := &fakeInvoker{errs: map[string]error{
		"mid": errors.New("a"), "cheap": errors.New("b"), "smart": errors.New("c"), "pricey": errors.New("d"),
	}}
	s := New(testRegistry(t), inv, WithCredentials(allKeys()))

	_, err := s.CallWithFallback(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Len(t, inv.called(), 4)
	for _, h := range s.Health() {
		assert.EqualValues(t, 1, h.ErrorCount)
	}
}

func TestCallWithFallbackTreatsBlankAsFailure(t *testing.T) {
	inv := &fakeInvoker{replies: map[string]string{"mid": "   ", "cheap": "ok"}}
	s := New(testRegistry(t), inv, WithCredentials(allKeys()))

	res, err := s.CallWithFallback(context.Background(), nil, "mid")
	require.NoError(t, err)
	assert.Equal(t, "cheap", res.ModelUsed)
	assert.Contains(t, s.Health()["mid"].LastError, ErrEmptyResponse.Error())
}

func TestCallWithFallbackStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inv := &fakeInvoker{hook: func(ctx context.Context, id string) { cancel() }, errs: map[string]error{"mid": context.Canceled}}
	s := New(testRegistry(t), inv, WithCredentials(allKeys()))

	_, err := s.CallWithFallback(ctx, nil, "mid")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrAllProvidersFailed)
	assert.Equal(t, []string{"mid"}, inv.called())
	assert.EqualValues(t, 1, s.Health()["mid"].ErrorCount, "cancelled attempt still counts")
}

func TestUnhealthyModelsAreDemoted(t *testing.T) {
	h := NewHealthTracker("mid", "cheap", "smart", "pricey")
	for i := 0; i < 5; i++ {
		h.RecordError("smart", errors.New("down"))
	}
	s := New(testRegistry(t), &fakeInvoker{}, WithCredentials(allKeys()), WithHealth(h))

	id, err := s.Select(context.Background(), "I can smell gas", nil)
	require.NoError(t, err)
	assert.Equal(t, "pricey", id)
}

func TestHealthTrackerConcurrent(t *testing.T) {
	h := NewHealthTracker("m")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); h.RecordSuccess("m") }()
		go func() { defer wg.Done(); h.RecordError("m", errors.New("x")) }()
	}
	wg.Wait()

	s, ok := h.Get("m")
	require.True(t, ok)
	assert.EqualValues(t, 50, s.SuccessCount)
	assert.EqualValues(t, 50, s.ErrorCount)
	assert.InDelta(t, 0.5, s.ErrorRate, 1e-9)

	h.RecordSuccess("unknown")
	_, ok = h.Get("unknown")
	assert.False(t, ok)
}

type stubProvider struct{ name string }

func (p stubProvider) Name() string { return p.name }
func (p stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "from " + req.Model, InputTokens: 3, OutputTokens: 4}, nil
}

func TestProviderInvokerCachesPerKey(t *testing.T) {
	var built []string
	inv := NewProviderInvokerWithFactory(func(ctx context.Context, providerType, apiKey, model string) (llm.Provider, error) {
		built = append(built, providerType+"/"+apiKey)
		return stubProvider{name: providerType}, nil
	}, 0)

	m := ModelDescriptor{ID: "gpt", Provider: "openai"}
	for i := 0; i < 3; i++ {
		res, err := inv.Invoke(context.Background(), m, "k1", nil, 100, 0)
		require.NoError(t, err)
		assert.Equal(t, "from gpt", res.Text)
		assert.Equal(t, 7, res.Tokens)
	}
	_, err := inv.Invoke(context.Background(), m, "k2", nil, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"openai/k1", "openai/k2"}, built)
}

func TestHealthCollector(t *testing.T) {
	h := NewHealthTracker("a", "b")
	h.RecordSuccess("a")
	h.RecordError("b", errors.New("x"))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewHealthCollector(h)))

	n, err := testutil.GatherAndCount(reg, "boilerbrain_model_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
