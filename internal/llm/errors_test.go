package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusBadRequest, KindBadRequest},
		{http.StatusGatewayTimeout, KindTimeout},
		{http.StatusBadGateway, KindServer},
		{http.StatusOK, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindForStatus(tt.status); got != tt.want {
			t.Errorf("KindForStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestProviderErrorMatchesSentinels(t *testing.T) {
	err := fmt.Errorf("calling model: %w", &ProviderError{Provider: "openai", Kind: KindRateLimited, Status: 429, Err: errors.New("slow down")})
	if !errors.Is(err, ErrRateLimited) {
		t.Error("expected ErrRateLimited")
	}
	if errors.Is(err, ErrAuth) {
		t.Error("did not expect ErrAuth")
	}

	var pe *ProviderError
	if !errors.As(err, &pe) || !pe.Transient() {
		t.Error("rate limiting should be transient")
	}
	if (&ProviderError{Kind: KindAuth}).Transient() {
		t.Error("auth errors should be permanent")
	}
}

func TestClassifyContextErrors(t *testing.T) {
	err := Classify("anthropic", context.DeadlineExceeded)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("classified error should still unwrap to the cause")
	}
	if Classify("x", nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestAnthropicClassifiesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", "claude")
	p.baseURL = srv.URL

	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestAnthropicSplitsSystemPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"check the "},{"type":"text","text":"pressure"}],"model":"claude","stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":3}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", "claude")
	p.baseURL = srv.URL

	resp, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{
		{Role: RoleSystem, Content: "You are a boiler engineer."},
		{Role: RoleUser, Content: "no hot water"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "check the pressure" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 3 {
		t.Errorf("usage = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
}

func TestOllamaClassifiesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestOpenAICompatibleClassifiesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	p := NewOpenAICompatibleProvider("local", srv.URL, "test-key", "gpt-test")
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Provider != "local" || pe.Status != http.StatusTooManyRequests {
		t.Errorf("unexpected provider error: %+v", pe)
	}
}
