package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/erraggy/apigraph/internal/cliutil"
	"github.com/erraggy/apigraph/internal/source"
	"github.com/erraggy/apigraph/resolver"
)

// ParseFlags contains flags for the parse command
type ParseFlags struct {
	Format  string
	Resolve bool
}

// parseOutput is the structured result of the parse command.
type parseOutput struct {
	Source      string             `json:"source" yaml:"source"`
	AsyncAPI    string             `json:"asyncapi" yaml:"asyncapi"`
	Title       string             `json:"title,omitempty" yaml:"title,omitempty"`
	Version     string             `json:"version,omitempty" yaml:"version,omitempty"`
	Format      string             `json:"format" yaml:"format"`
	SourceSize  int64              `json:"sourceSize" yaml:"sourceSize"`
	LoadTime    time.Duration      `json:"loadTime" yaml:"loadTime"`
	Stats       source.Stats       `json:"stats" yaml:"stats"`
	Diagnostics []diagnosticOutput `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func newParseCommand(g *globalFlags) *cobra.Command {
	flags := &ParseFlags{}
	cmd := &cobra.Command{
		Use:   "parse <file|url|->",
		Short: "Parse a document and summarize it",
		Long: `Parse an AsyncAPI document and print a structural summary with every
diagnostic recorded while building the object graph.

Examples:
  apigraph parse asyncapi.yaml
  apigraph parse --resolve --format json asyncapi.yaml
  cat asyncapi.yaml | apigraph parse -

Exit Codes:
  0    Parsing successful
  1    Parsing failed or the document has error diagnostics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, g, flags, args[0])
		},
	}
	cmd.Flags().StringVarP(&flags.Format, "format", "f", FormatText, "output format: text, json or yaml")
	cmd.Flags().BoolVar(&flags.Resolve, "resolve", false, "resolve local references before summarizing")
	return cmd
}

func runParse(cmd *cobra.Command, g *globalFlags, flags *ParseFlags, input string) error {
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	logger, err := g.logger(cmd)
	if err != nil {
		return err
	}
	mode := resolver.ModeNone
	if flags.Resolve {
		mode = resolver.ModeLocal
	}

	loaded, err := load(cmd.Context(), cmd, input, source.Options{Mode: mode, Logger: logger})
	if err != nil {
		return fmt.Errorf("parsing %s: %w", input, err)
	}
	res := loaded.Result
	stats, err := source.Summarize(res.Document)
	if err != nil {
		return err
	}

	out := parseOutput{
		Source:      input,
		AsyncAPI:    res.RawVersion,
		Format:      string(res.Format),
		SourceSize:  res.SourceSize,
		LoadTime:    res.LoadTime,
		Stats:       stats,
		Diagnostics: diagnosticsOutput(loaded.Diagnostics),
	}
	if info := res.Document.Info; info != nil {
		out.Title, out.Version = info.Title, info.Version
	}

	w := cmd.OutOrStdout()
	if flags.Format != FormatText {
		if err := OutputStructured(w, out, flags.Format); err != nil {
			return err
		}
		return errDiagnostics(loaded.Diagnostics)
	}

	cliutil.Writef(w, "AsyncAPI Document\n")
	cliutil.Writef(w, "=================\n\n")
	cliutil.Writef(w, "Source: %s\n", out.Source)
	cliutil.Writef(w, "AsyncAPI Version: %s\n", out.AsyncAPI)
	if out.Title != "" {
		cliutil.Writef(w, "Title: %s\n", out.Title)
		cliutil.Writef(w, "Version: %s\n", out.Version)
	}
	cliutil.Writef(w, "Format: %s\n", out.Format)
	cliutil.Writef(w, "Source Size: %d bytes\n", out.SourceSize)
	cliutil.Writef(w, "Load Time: %v\n\n", out.LoadTime)
	cliutil.Writef(w, "Servers: %d\n", stats.Servers)
	cliutil.Writef(w, "Channels: %d\n", stats.Channels)
	cliutil.Writef(w, "Operations: %d\n", stats.Operations)
	cliutil.Writef(w, "Messages: %d\n", stats.Messages)
	cliutil.Writef(w, "Schemas: %d\n", stats.Schemas)
	cliutil.Writef(w, "Security Schemes: %d\n", stats.SecuritySchemes)
	cliutil.Writef(w, "Unresolved References: %d\n", stats.References)

	if loaded.Diagnostics.Len() > 0 {
		cliutil.Writef(w, "\nDiagnostics:\n")
		cliutil.WriteDiagnostics(w, loaded.Diagnostics)
	}
	return errDiagnostics(loaded.Diagnostics)
}
