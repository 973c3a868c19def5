// Package mcp exposes the analyses as tools of a Model Context Protocol server over stdio.
package mcp

import (
	"context"

	"trafficstats/internal/config"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName is announced to MCP clients.
const ServerName = "trafficstats"

// Server holds the state for the MCP server.
type Server struct {
	cfg     *config.AppConfig
	version string
	mcp     *mcp.Server
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(cfg *config.AppConfig, version string) *Server {
	s := &Server{
		cfg:     cfg,
		version: version,
		mcp:     mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil),
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("Starting MCP server on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
