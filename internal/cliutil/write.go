// Package cliutil provides utilities for CLI output.
package cliutil

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/model"
)

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr (useful for debugging).
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// NoLower keeps the inner capitals of camel case names such as
// "messageTrait".
var titleCaser = cases.Title(language.English, cases.NoLower)

// KindLabel returns the display name of a reference kind, e.g.
// "MessageTrait" for model.RefKindMessageTrait.
func KindLabel(k model.RefKind) string {
	return titleCaser.String(k.String())
}

// WriteDiagnostics writes one diagnostic per line followed by a count
// summary. Nothing is written for an empty list.
func WriteDiagnostics(w io.Writer, list *diag.List) {
	if list.Len() == 0 {
		return
	}
	for _, d := range list.Items() {
		Writef(w, "  %s\n", d)
	}
	Writef(w, "\n%d error(s), %d warning(s), %d info\n",
		list.Count(diag.SeverityError),
		list.Count(diag.SeverityWarning),
		list.Count(diag.SeverityInfo))
}
