// Package mcpserver exposes arbor analysis over the Model Context
// Protocol so coding agents can query exception flow directly.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers all arbor tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates an MCP server with all arbor tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "arbor",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds all arbor tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_function",
		Description: describeAnalyzeFunction(),
	}, handleAnalyzeFunction)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_function",
		Description: describeQueryFunction(),
	}, handleQueryFunction)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_project",
		Description: describeIndexProject(),
	}, handleIndexProject)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_functions",
		Description: describeListFunctions(),
	}, handleListFunctions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_groups",
		Description: describeSuggestGroups(),
	}, handleSuggestGroups)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "project_stats",
		Description: describeProjectStats(),
	}, handleProjectStats)
}
