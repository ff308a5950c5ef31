package mcp

import "github.com/mark3labs/mcp-go/mcp"

// diagnoseTool defines the diagnose MCP tool.
var diagnoseTool = mcp.NewTool("diagnose",
	mcp.WithDescription("Send an engineer's message about a boiler fault and get the next diagnostic step. Always returns an answer, falling back to safe templates when models are unavailable."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The engineer's message, e.g. 'Ideal Logic 24 combi showing L2'"),
	),
	mcp.WithString("session_id",
		mcp.Description("Conversation to continue; omit to start a new one"),
	),
)

// reliabilityMetricsTool defines the reliability_metrics MCP tool.
var reliabilityMetricsTool = mcp.NewTool("reliability_metrics",
	mcp.WithDescription("Get request counts per response tier and the average response time."),
)

// lookupFaultCodeTool defines the lookup_fault_code MCP tool.
var lookupFaultCodeTool = mcp.NewTool("lookup_fault_code",
	mcp.WithDescription("Look up a boiler fault code or symptom in the knowledge base."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Fault code (e.g. 'L2') or symptom description"),
	),
	mcp.WithString("manufacturer",
		mcp.Description("Manufacturer to restrict the lookup to, e.g. 'ideal'"),
	),
)
