package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/boilerbrain/internal/chat"
	"github.com/ziadkadry99/boilerbrain/internal/knowledge"
)

// Version is set via ldflags at build time.
var Version = "dev"

// FaultLookup is the knowledge base surface used by lookup_fault_code.
type FaultLookup interface {
	Lookup(manufacturer, code string) (knowledge.Entry, bool)
	Search(ctx context.Context, query, manufacturer string, n int) ([]knowledge.Result, error)
}

// Server wraps an MCP server that exposes the diagnostic assistant.
type Server struct {
	chat      *chat.Service
	knowledge FaultLookup
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server. kb may be nil, in which case
// lookup_fault_code is not offered.
func NewServer(svc *chat.Service, kb FaultLookup) *Server {
	s := &Server{
		chat:      svc,
		knowledge: kb,
	}

	s.mcp = server.NewMCPServer(
		"boilerbrain",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(diagnoseTool, s.handleDiagnose)
	s.mcp.AddTool(reliabilityMetricsTool, s.handleReliabilityMetrics)
	if s.knowledge != nil {
		s.mcp.AddTool(lookupFaultCodeTool, s.handleLookupFaultCode)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
