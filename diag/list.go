package diag

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// List is an ordered collection of diagnostics. Exact duplicates (same
// pointer, message and source) are recorded once, so re-running a stage over
// the same document does not grow the list.
//
// The zero value is ready to use. A List is not safe for concurrent use.
type List struct {
	entries []Diagnostic
	seen    map[key]struct{}
}

// New returns an empty List.
func New() *List {
	return &List{}
}

// Add appends d unless an identical diagnostic is already present.
// It reports whether d was added.
func (l *List) Add(d Diagnostic) bool {
	if l.seen == nil {
		l.seen = make(map[key]struct{})
	}
	k := d.key()
	if _, dup := l.seen[k]; dup {
		return false
	}
	l.seen[k] = struct{}{}
	l.entries = append(l.entries, d)
	return true
}

// Errorf records an error-severity diagnostic at pointer.
func (l *List) Errorf(pointer, format string, args ...any) {
	l.Add(Diagnostic{Pointer: pointer, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
}

// Warnf records a warning-severity diagnostic at pointer.
func (l *List) Warnf(pointer, format string, args ...any) {
	l.Add(Diagnostic{Pointer: pointer, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}

// Infof records an info-severity diagnostic at pointer.
func (l *List) Infof(pointer, format string, args ...any) {
	l.Add(Diagnostic{Pointer: pointer, Message: fmt.Sprintf(format, args...), Severity: SeverityInfo})
}

// Merge appends every diagnostic of other, preserving order and skipping duplicates.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	for _, d := range other.entries {
		l.Add(d)
	}
}

// Len returns the number of diagnostics.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// All iterates over the diagnostics in the order they were recorded.
func (l *List) All() iter.Seq2[int, Diagnostic] {
	return func(yield func(int, Diagnostic) bool) {
		if l == nil {
			return
		}
		for i, d := range l.entries {
			if !yield(i, d) {
				return
			}
		}
	}
}

// Items returns a copy of the diagnostics.
func (l *List) Items() []Diagnostic {
	if l == nil {
		return nil
	}
	return slices.Clone(l.entries)
}

// Count returns how many diagnostics have exactly the given severity.
func (l *List) Count(sev Severity) int {
	n := 0
	for _, d := range l.All() {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (l *List) HasErrors() bool {
	return l.Count(SeverityError) > 0
}

// Filter returns the diagnostics whose message contains substr.
func (l *List) Filter(substr string) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.All() {
		if strings.Contains(d.Message, substr) {
			out = append(out, d)
		}
	}
	return out
}

// At returns the diagnostics recorded at pointer.
func (l *List) At(pointer string) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.All() {
		if d.Pointer == pointer {
			out = append(out, d)
		}
	}
	return out
}

// WithSource returns a copy of the list with Source set on every entry that
// does not already carry one.
func (l *List) WithSource(source string) *List {
	out := New()
	for _, d := range l.All() {
		if d.Source == "" {
			d.Source = source
		}
		out.Add(d)
	}
	return out
}

// SortByLocation orders diagnostics by source, line and column, keeping the
// recording order for entries without a line.
func (l *List) SortByLocation() {
	slices.SortStableFunc(l.entries, func(a, b Diagnostic) int {
		if c := strings.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		if a.Line == 0 || b.Line == 0 {
			return 0
		}
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		return a.Column - b.Column
	})
}

// String renders one diagnostic per line.
func (l *List) String() string {
	var b strings.Builder
	for i, d := range l.All() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.String())
	}
	return b.String()
}
