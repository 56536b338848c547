// Package commands provides the apigraph CLI commands.
package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erraggy/apigraph"
	"github.com/erraggy/apigraph/parser"
)

// globalFlags are shared by every command.
type globalFlags struct {
	logLevel string
}

// NewRootCommand returns the apigraph command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "apigraph",
		Short: "Parse and resolve AsyncAPI documents",
		Long: `apigraph parses AsyncAPI 2.x and 3.0 documents into a typed object graph,
resolves $ref references within a document and across files or URLs, and
reports every problem found as a diagnostic with a JSON pointer location.`,
		Version:       apigraph.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		newParseCommand(g),
		newResolveCommand(g),
		newRefsCommand(g),
		newWatchCommand(g),
		newMCPCommand(g),
		newVersionCommand(),
	)
	return root
}

// logger builds the logger for a command. Logs go to stderr so they never
// mix with structured output.
func (g *globalFlags) logger(cmd *cobra.Command) (parser.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(g.logLevel))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", g.logLevel)
	}
	h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	return parser.NewSlogAdapter(slog.New(h)), nil
}
