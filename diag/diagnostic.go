// Package diag provides the ordered, position-annotated diagnostics that every
// stage of loading and resolution reports into instead of failing.
//
// A [List] is single-owner: it is created once per top-level operation and
// handed (never constructed) to the stages that report into it.
package diag

import (
	"fmt"

	"github.com/erraggy/apigraph/internal/severity"
)

// Severity re-exports the diagnostic severity type.
type Severity = severity.Severity

// Severity levels.
const (
	SeverityError   = severity.SeverityError
	SeverityWarning = severity.SeverityWarning
	SeverityInfo    = severity.SeverityInfo
)

// Diagnostic is a single problem found while loading or resolving a document.
type Diagnostic struct {
	// Pointer is the JSON pointer to the offending location, rooted at "#/"
	Pointer string `json:"pointer"`
	// Message is a human-readable description of the problem
	Message string `json:"message"`
	// Severity indicates the severity level of the diagnostic
	Severity Severity `json:"severity"`
	// Line is the 1-based line number in the source (0 if unknown)
	Line int `json:"line,omitempty"`
	// Column is the 1-based column number in the source (0 if unknown)
	Column int `json:"column,omitempty"`
	// Source is the locator of the document the diagnostic belongs to
	// (empty for the root document)
	Source string `json:"source,omitempty"`
}

// String returns a formatted string representation of the diagnostic.
// Uses different symbols based on severity level:
// - "✗" for Error
// - "⚠" for Warning
// - "ℹ" for Info
func (d Diagnostic) String() string {
	var symbol string
	switch d.Severity {
	case SeverityError:
		symbol = "✗"
	case SeverityWarning:
		symbol = "⚠"
	case SeverityInfo:
		symbol = "ℹ"
	default:
		symbol = "?"
	}

	pointer := d.Pointer
	if d.Source != "" {
		pointer = d.Source + pointer
	}
	if d.Line > 0 {
		return fmt.Sprintf("%s %s (line %d, col %d): %s", symbol, pointer, d.Line, d.Column, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", symbol, pointer, d.Message)
}

// Location returns the source location in IDE-friendly format.
// Returns "source:line:column" if source is set, "line:column" if only line is set,
// or the JSON pointer if location is unknown.
func (d Diagnostic) Location() string {
	if d.Line == 0 {
		return d.Pointer
	}
	if d.Source != "" {
		return fmt.Sprintf("%s:%d:%d", d.Source, d.Line, d.Column)
	}
	return fmt.Sprintf("%d:%d", d.Line, d.Column)
}

// HasLocation returns true if this diagnostic has source line information.
func (d Diagnostic) HasLocation() bool {
	return d.Line > 0
}

type key struct {
	pointer string
	message string
	source  string
}

func (d Diagnostic) key() key {
	return key{pointer: d.Pointer, message: d.Message, source: d.Source}
}
