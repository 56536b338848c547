package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/internal/cliutil"
	"github.com/erraggy/apigraph/internal/pathutil"
	"github.com/erraggy/apigraph/internal/source"
	"github.com/erraggy/apigraph/resolver"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured writes data to w in the specified format (json or yaml).
func OutputStructured(w io.Writer, data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}
	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	cliutil.Writef(w, "%s\n", bytes)
	return nil
}

// load runs the pipeline for a file path, an http(s) URL or "-" for stdin.
func load(ctx context.Context, cmd *cobra.Command, input string, opts source.Options) (*source.Loaded, error) {
	switch {
	case input == StdinFilePath:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return source.Bytes(ctx, "stdin", data, opts)
	case pathutil.IsURL(input):
		return source.URL(ctx, input, opts)
	default:
		return source.File(ctx, input, opts)
	}
}

// diagnosticOutput is the structured form of a diagnostic.
type diagnosticOutput struct {
	Severity string `json:"severity" yaml:"severity"`
	Pointer  string `json:"pointer" yaml:"pointer"`
	Message  string `json:"message" yaml:"message"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column   int    `json:"column,omitempty" yaml:"column,omitempty"`
}

func diagnosticsOutput(list *diag.List) []diagnosticOutput {
	items := list.Items()
	if len(items) == 0 {
		return nil
	}
	out := make([]diagnosticOutput, 0, len(items))
	for _, d := range items {
		out = append(out, diagnosticOutput{
			Severity: d.Severity.String(),
			Pointer:  d.Pointer,
			Message:  d.Message,
			Source:   d.Source,
			Line:     d.Line,
			Column:   d.Column,
		})
	}
	return out
}

// errDiagnostics is returned when a document has error diagnostics, so that
// the process exits non-zero after the report was written.
func errDiagnostics(list *diag.List) error {
	if n := list.Count(diag.SeverityError); n > 0 {
		return fmt.Errorf("document has %d error(s)", n)
	}
	return nil
}

func parseModeFlag(name string) (resolver.Mode, error) {
	mode, err := resolver.ParseMode(name)
	if err != nil {
		return resolver.ModeNone, fmt.Errorf("invalid mode '%s'. Valid modes: none, local, full", name)
	}
	return mode, nil
}
