package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/boilerbrain/internal/chat"
	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/embeddings"
	"github.com/ziadkadry99/boilerbrain/internal/knowledge"
	"github.com/ziadkadry99/boilerbrain/internal/recovery"
	"github.com/ziadkadry99/boilerbrain/internal/reliability"
	"github.com/ziadkadry99/boilerbrain/internal/session"
)

func newChat(t *testing.T, primary reliability.Processor) *chat.Service {
	t.Helper()
	store := session.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	o := reliability.NewOrchestrator(reliability.WithTimeouts(time.Second, time.Second))
	return chat.NewService(o, recovery.New(store, nil), primary, nil, nil)
}

func newKnowledge(t *testing.T) *knowledge.Base {
	t.Helper()
	kb, err := knowledge.New(embeddings.NewLocalEmbedder(64))
	if err != nil {
		t.Fatalf("knowledge.New: %v", err)
	}
	err = kb.Index(context.Background(), []knowledge.Entry{
		{Manufacturer: "ideal", FaultCode: "L2", Title: "Ignition lockout", Description: "Failed to light.", Steps: []string{"Check gas."}},
		{Manufacturer: "ideal", Component: "pump", Title: "Pump seized", Description: "Pump will not turn."},
	}, nil)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	return kb
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if len(r.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := r.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", r.Content[0])
	}
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"diagnose", diagnoseTool, "diagnose"},
		{"reliability_metrics", reliabilityMetricsTool, "reliability_metrics"},
		{"lookup_fault_code", lookupFaultCodeTool, "lookup_fault_code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(newChat(t, nil), nil)
	if srv == nil || srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleDiagnose(t *testing.T) {
	primary := reliability.ProcessorFunc(func(ctx context.Context, message string, c *diagnostic.Context) (reliability.Response, error) {
		return reliability.Response{Text: "Check the ignition electrode."}, nil
	})
	srv := NewServer(newChat(t, primary), nil)
	ctx := context.Background()

	t.Run("answers", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"message": "ideal L2", "session_id": "m1"}

		result, err := srv.handleDiagnose(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "Check the ignition electrode.") || !strings.Contains(text, "session_id: m1") {
			t.Errorf("unexpected text: %q", text)
		}
	})

	t.Run("missing message", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleDiagnose(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing message")
		}
	})
}

func TestHandleDiagnoseFallsBackToTemplate(t *testing.T) {
	failing := reliability.ProcessorFunc(func(ctx context.Context, message string, c *diagnostic.Context) (reliability.Response, error) {
		return reliability.Response{}, errors.New("all providers down")
	})
	srv := NewServer(newChat(t, failing), nil)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"message": "I can smell gas"}
	result, err := srv.handleDiagnose(context.Background(), req)
	if err != nil || result.IsError {
		t.Fatalf("diagnose failed: %v %v", err, result)
	}
	if !strings.Contains(resultText(t, result), "tier: emergency_template") {
		t.Errorf("expected emergency tier, got %q", resultText(t, result))
	}
}

func TestHandleReliabilityMetrics(t *testing.T) {
	srv := NewServer(newChat(t, nil), nil)
	result, err := srv.handleReliabilityMetrics(context.Background(), mcp.CallToolRequest{})
	if err != nil || result.IsError {
		t.Fatalf("metrics failed: %v %v", err, result)
	}
	if !strings.Contains(resultText(t, result), `"total_requests": 0`) {
		t.Errorf("unexpected metrics: %s", resultText(t, result))
	}
}

func TestHandleLookupFaultCode(t *testing.T) {
	srv := NewServer(newChat(t, nil), newKnowledge(t))
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"query": "L2", "manufacturer": "Ideal"}
	result, err := srv.handleLookupFaultCode(ctx, req)
	if err != nil || result.IsError {
		t.Fatalf("lookup failed: %v %v", err, result)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "# Ignition lockout") || !strings.Contains(text, "Recommended steps:") {
		t.Errorf("unexpected text: %q", text)
	}

	req.Params.Arguments = map[string]any{"query": "pump will not turn"}
	result, _ = srv.handleLookupFaultCode(ctx, req)
	if !strings.Contains(resultText(t, result), "Result 1") {
		t.Errorf("expected search results, got %q", resultText(t, result))
	}
}
