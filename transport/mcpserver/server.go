package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

const (
	Name    = "brand-intelligence-agent"
	Version = "0.1.0"
)

// New registers the operator tools on a fresh MCP server.
func New(analyzer Analyzer, cases Cases, identities Identities) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Operator tools for brand feedback analysis: ingest messages, resolve cases and manage customer identity trust."),
	)

	analyze := NewAnalyzeTool(analyzer)
	s.AddTool(analyze.Definition(), analyze.Handle)

	resolve := NewResolveTool(cases)
	s.AddTool(resolve.Definition(), resolve.Handle)

	link := NewLinkTool(identities)
	s.AddTool(link.Definition(), link.Handle)

	trust := NewTrustTool(identities)
	s.AddTool(trust.Definition(), trust.Handle)

	return s
}

func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
