// Package severity provides severity level constants and utilities
// for diagnostics reported while loading and resolving documents.
//
// The severity levels are ordered from least to most severe:
// Info < Warning < Error
package severity

import "fmt"

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	// SeverityError indicates a deviation from the expected document shape:
	// a missing required field, a shape mismatch, an unknown field or a
	// reference that could not be resolved.
	SeverityError Severity = iota

	// SeverityWarning indicates something that was processed but is likely
	// unintended, such as a duplicate component id.
	SeverityWarning

	// SeverityInfo indicates informational messages about processing choices,
	// such as external references left untouched in local-only mode.
	SeverityInfo
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so severities render as
// their names in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Parse converts a severity name back into a Severity.
func Parse(name string) (Severity, error) {
	switch name {
	case "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	default:
		return SeverityError, fmt.Errorf("unknown severity %q", name)
	}
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return rank(s) >= rank(min)
}

func rank(s Severity) int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}
