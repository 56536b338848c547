// Package apierrors provides structured error types for apigraph.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to tell a malformed document apart from an
// unsupported version, a failed fetch, or a misuse of the API.
//
// # Error Categories
//
//   - ParseError: unparseable YAML/JSON text (fatal)
//   - ShapeError: a node did not have the expected scalar/map/list shape
//   - VersionError: missing or unsupported version indicator (fatal)
//   - ReferenceError: $ref lookup failures and circular chains
//   - FetchError: an external resource could not be loaded
//   - ConfigError: invalid configuration or input options
//
// # Usage with errors.Is
//
//	result, err := parser.ParseWithOptions(parser.WithFilePath("asyncapi.yaml"))
//	if errors.Is(err, apierrors.ErrUnsupportedVersion) {
//	    // the document is not an AsyncAPI 2.x/3.x description
//	}
package apierrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrMalformedDocument indicates the input text could not be parsed, or the
	// top-level structure is unusable.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrUnexpectedNodeShape indicates a node was not a scalar, map or list as required.
	ErrUnexpectedNodeShape = errors.New("unexpected node shape")

	// ErrUnsupportedVersion indicates the version indicator is missing or unknown.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrCircularReference indicates a circular $ref chain was detected.
	ErrCircularReference = errors.New("circular reference")

	// ErrPathTraversal indicates a path traversal attempt was blocked.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrFetch indicates an external resource could not be loaded.
	ErrFetch = errors.New("fetch error")

	// ErrMissingWorkspace indicates workspace-wide resolution was requested for a
	// document with no attached workspace. This is a programming error.
	ErrMissingWorkspace = errors.New("missing workspace")

	// ErrLocationStack indicates unbalanced Enter/Exit calls on a parsing context.
	// This is a programming error.
	ErrLocationStack = errors.New("unbalanced location stack")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ParseError represents a failure to parse a document's text.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// ShapeError reports a node whose shape did not match what the caller required.
type ShapeError struct {
	// Expected is the required shape ("scalar", "map" or "list")
	Expected string
	// Actual is the shape that was found
	Actual string
	// Line is the 1-based line of the offending node (0 if unknown)
	Line int
	// Column is the 1-based column of the offending node (0 if unknown)
	Column int
	// Fatal is set when the shape is structurally required (the document root)
	Fatal bool
}

// Error returns a human-readable error message.
func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d, column %d", e.Line, e.Column)
	}
	return msg
}

// Is reports whether target matches this error type. A fatal shape error is
// also a malformed document.
func (e *ShapeError) Is(target error) bool {
	if target == ErrUnexpectedNodeShape {
		return true
	}
	return e.Fatal && target == ErrMalformedDocument
}

// VersionError represents a missing or unsupported version indicator.
type VersionError struct {
	// Field is the indicator field that was read (empty when none was present)
	Field string
	// Value is the version string found in Field
	Value string
}

// Error returns a human-readable error message.
func (e *VersionError) Error() string {
	if e.Field == "" {
		return "unsupported version: no version indicator field found"
	}
	return fmt.Sprintf("unsupported version: %s %q", e.Field, e.Value)
}

// Is reports whether target matches this error type.
func (e *VersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// ReferenceError represents a failure to resolve a $ref.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// RefType indicates the reference type: "local", "file", or "http"
	RefType string
	// IsCircular is true if this error is due to a circular reference
	IsCircular bool
	// IsPathTraversal is true if this error is due to a path traversal attempt
	IsPathTraversal bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsCircular {
		msg = "circular reference"
	} else if e.IsPathTraversal {
		msg = "path traversal detected"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and also ErrCircularReference or ErrPathTraversal
// when appropriate flags are set.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	if target == ErrCircularReference && e.IsCircular {
		return true
	}
	if target == ErrPathTraversal && e.IsPathTraversal {
		return true
	}
	return false
}

// FetchError represents a failure to load an external resource.
type FetchError struct {
	// Locator is the resource that could not be loaded
	Locator string
	// StatusCode is the HTTP status code, when the fetch went over HTTP
	StatusCode int
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *FetchError) Error() string {
	msg := "failed to fetch " + e.Locator
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
