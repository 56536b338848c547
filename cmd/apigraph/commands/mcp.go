package commands

import (
	"github.com/spf13/cobra"

	"github.com/erraggy/apigraph/internal/mcpserver"
)

func newMCPCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the apigraph tools over MCP on stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the parse,
resolve and walk tools. Defaults are read from APIGRAPH_* environment
variables; see the server instructions for the full list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := g.logger(cmd)
			if err != nil {
				return err
			}
			return mcpserver.Run(cmd.Context(), logger)
		},
	}
}
