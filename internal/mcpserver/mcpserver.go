// Package mcpserver exposes cogmark over the Model Context Protocol.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/cogmark/pkg/config"
)

// Server wraps the MCP server and its cogmark tools.
type Server struct {
	server *mcp.Server
	config *config.Config
}

// NewServer creates an MCP server whose tools default to cfg. A nil cfg uses
// config.DefaultConfig.
func NewServer(version string, cfg *config.Config) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cogmark",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, config: cfg}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves over t, for in-process clients.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_code",
		Description: describeAnalyzeCode(),
	}, s.handleAnalyzeCode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_paths",
		Description: describeAnalyzePaths(),
	}, s.handleAnalyzePaths)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "diff_paths",
		Description: describeDiffPaths(),
	}, s.handleDiffPaths)
}
