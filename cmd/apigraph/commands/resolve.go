package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erraggy/apigraph/internal/cliutil"
	"github.com/erraggy/apigraph/internal/options"
	"github.com/erraggy/apigraph/internal/source"
	"github.com/erraggy/apigraph/workspace"
)

// ResolveFlags contains flags for the resolve command
type ResolveFlags struct {
	Format         string
	Mode           string
	MaxConcurrency int
}

// resolveOutput is the structured result of the resolve command.
type resolveOutput struct {
	Source      string             `json:"source" yaml:"source"`
	Mode        string             `json:"mode" yaml:"mode"`
	Resources   []string           `json:"resources,omitempty" yaml:"resources,omitempty"`
	Unresolved  int                `json:"unresolved" yaml:"unresolved"`
	Diagnostics []diagnosticOutput `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func newResolveCommand(g *globalFlags) *cobra.Command {
	flags := &ResolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve <file|url|->",
		Short: "Resolve the references of a document",
		Long: `Resolve the $ref references of an AsyncAPI document and report those that
could not be resolved.

In full mode, external files and URLs named by references are loaded
recursively. File references never leave the directory of the document.

Examples:
  apigraph resolve asyncapi.yaml
  apigraph resolve --mode local asyncapi.yaml
  apigraph resolve --max-concurrency 4 https://example.com/asyncapi.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, g, flags, args[0])
		},
	}
	cmd.Flags().StringVarP(&flags.Format, "format", "f", FormatText, "output format: text, json or yaml")
	cmd.Flags().StringVar(&flags.Mode, "mode", "full", "resolution mode: none, local or full")
	cmd.Flags().IntVar(&flags.MaxConcurrency, "max-concurrency", workspace.DefaultMaxConcurrency, "maximum concurrent fetches of external resources")
	return cmd
}

func runResolve(cmd *cobra.Command, g *globalFlags, flags *ResolveFlags, input string) error {
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	mode, err := parseModeFlag(flags.Mode)
	if err != nil {
		return err
	}
	if err := options.ValidatePositive("max-concurrency", flags.MaxConcurrency); err != nil {
		return err
	}
	logger, err := g.logger(cmd)
	if err != nil {
		return err
	}

	loaded, err := load(cmd.Context(), cmd, input, source.Options{
		Mode:           mode,
		MaxConcurrency: flags.MaxConcurrency,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("resolving %s: %w", input, err)
	}
	stats, err := source.Summarize(loaded.Result.Document)
	if err != nil {
		return err
	}

	out := resolveOutput{
		Source:      input,
		Mode:        mode.String(),
		Unresolved:  stats.References,
		Diagnostics: diagnosticsOutput(loaded.Diagnostics),
	}
	if loaded.Workspace != nil {
		out.Resources = loaded.Workspace.Locators()
	}

	w := cmd.OutOrStdout()
	if flags.Format != FormatText {
		if err := OutputStructured(w, out, flags.Format); err != nil {
			return err
		}
		return errDiagnostics(loaded.Diagnostics)
	}

	cliutil.Writef(w, "Source: %s\n", out.Source)
	cliutil.Writef(w, "Mode: %s\n", out.Mode)
	if len(out.Resources) > 0 {
		cliutil.Writef(w, "Resources:\n")
		for _, r := range out.Resources {
			cliutil.Writef(w, "  - %s\n", r)
		}
	}
	cliutil.Writef(w, "Unresolved References: %d\n", out.Unresolved)
	if loaded.Diagnostics.Len() > 0 {
		cliutil.Writef(w, "\nDiagnostics:\n")
		cliutil.WriteDiagnostics(w, loaded.Diagnostics)
	}
	return errDiagnostics(loaded.Diagnostics)
}
