package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/knowledge"
)

// handleDiagnose runs one chat turn.
func (s *Server) handleDiagnose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	reply, err := s.chat.Send(ctx, request.GetString("session_id", ""), message)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagnose failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(reply.ResponseText)
	fmt.Fprintf(&sb, "\n\n---\nsession_id: %s\ntier: %s\n", reply.SessionID, reply.SourceTier)
	return mcp.NewToolResultText(sb.String()), nil
}

// handleReliabilityMetrics returns the metrics snapshot as JSON.
func (s *Server) handleReliabilityMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(s.chat.Metrics().Snapshot(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding metrics: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleLookupFaultCode tries an exact fault code match, then a semantic
// search.
func (s *Server) handleLookupFaultCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	manufacturer := strings.ToLower(request.GetString("manufacturer", ""))

	for _, code := range diagnostic.ExtractFaultCodes(query) {
		if e, ok := s.knowledge.Lookup(manufacturer, code); ok {
			return mcp.NewToolResultText(formatEntry(e)), nil
		}
	}

	results, err := s.knowledge.Search(ctx, query, manufacturer, 3)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No matching knowledge base entries. Run `boilerbrain knowledge import` to load seed data."), nil
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "--- Result %d (similarity: %.4f) ---\n%s\n\n", i+1, r.Similarity, formatEntry(r.Entry))
	}
	return mcp.NewToolResultText(strings.TrimSpace(sb.String())), nil
}

func formatEntry(e knowledge.Entry) string {
	var sb strings.Builder
	sb.WriteString("# " + e.Title + "\n")
	if e.Manufacturer != "" {
		sb.WriteString("Manufacturer: " + e.Manufacturer + "\n")
	}
	if e.FaultCode != "" {
		sb.WriteString("Fault code: " + e.FaultCode + "\n")
	}
	sb.WriteString("\n" + knowledge.Answer(e))
	if e.ManualURL != "" {
		sb.WriteString("\n\nManual: " + e.ManualURL)
	}
	if e.Regulation != "" {
		sb.WriteString("\n\nGas Safety Regulation: " + e.Regulation)
	}
	return sb.String()
}
