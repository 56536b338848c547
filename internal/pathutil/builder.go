package pathutil

import (
	"strconv"
	"strings"

	"github.com/speakeasy-api/openapi/jsonpointer"
)

// Root is the pointer to the document root.
const Root = "#/"

// PointerBuilder provides efficient incremental JSON pointer construction.
// Uses push/pop semantics to avoid allocations during traversal.
// The full string is only materialized when String() is called.
type PointerBuilder struct {
	segments []string
}

// Push adds a raw (unescaped) segment to the pointer.
func (p *PointerBuilder) Push(segment string) {
	p.segments = append(p.segments, segment)
}

// PushIndex adds an array index segment.
func (p *PointerBuilder) PushIndex(i int) {
	p.segments = append(p.segments, strconv.Itoa(i))
}

// Pop removes the last segment. It reports false when there was nothing to pop.
func (p *PointerBuilder) Pop() bool {
	if len(p.segments) == 0 {
		return false
	}
	p.segments = p.segments[:len(p.segments)-1]
	return true
}

// Depth returns the number of segments currently pushed.
func (p *PointerBuilder) Depth() int {
	return len(p.segments)
}

// Reset clears the builder for reuse.
func (p *PointerBuilder) Reset() {
	p.segments = p.segments[:0]
}

// Segments returns a copy of the raw segments.
func (p *PointerBuilder) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// String materializes the pointer, e.g. "#/channels/foo/subscribe".
func (p *PointerBuilder) String() string {
	return Join(p.segments...)
}

// Child materializes the pointer with extra segments appended, without
// modifying the builder.
func (p *PointerBuilder) Child(extra ...string) string {
	if len(extra) == 0 {
		return p.String()
	}
	all := make([]string, 0, len(p.segments)+len(extra))
	all = append(all, p.segments...)
	all = append(all, extra...)
	return Join(all...)
}

// Join renders raw segments as a "#/"-rooted JSON pointer, escaping "~" and "/"
// in each segment.
func Join(segments ...string) string {
	var b strings.Builder
	b.WriteString(Root)
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(jsonpointer.EscapeString(seg))
	}
	return b.String()
}

// Unescape reverses RFC 6901 escaping of a single pointer token.
func Unescape(token string) string {
	if !strings.Contains(token, "~") {
		return token
	}
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(token)
}

// Split parses a "#/"-rooted (or "/"-rooted) pointer into unescaped segments.
func Split(pointer string) []string {
	pointer = strings.TrimPrefix(pointer, "#")
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return nil
	}
	parts := strings.Split(pointer, "/")
	for i, part := range parts {
		parts[i] = Unescape(part)
	}
	return parts
}

// Below reports whether pointer lies strictly under parent, and returns the
// unescaped segments leading from parent to pointer.
func Below(pointer, parent string) ([]string, bool) {
	ps, cs := Split(parent), Split(pointer)
	if len(cs) <= len(ps) {
		return nil, false
	}
	for i, seg := range ps {
		if cs[i] != seg {
			return nil, false
		}
	}
	return cs[len(ps):], true
}
