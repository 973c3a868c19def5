package commands

import (
	"trafficstats/internal/mcp"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mcp.NewServer(cfg, Version).Serve(cmd.Context())
		},
	}
}
