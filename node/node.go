// Package node adapts decoded YAML or JSON text into a small, immutable tree of
// scalars, maps and lists that the loaders consume.
//
// Aliases are resolved and "<<" merge keys expanded while adapting, so callers
// never see either. Every node remembers the line and column it came from.
package node

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/erraggy/apigraph/apierrors"
)

// Kind is the shape of a node.
type Kind int

const (
	// KindScalar is a single value (string, number, boolean or null)
	KindScalar Kind = iota
	// KindMap is an ordered mapping of string keys to nodes
	KindMap
	// KindList is an ordered sequence of nodes
	KindList
)

// String returns the lowercase shape name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Position is a 1-based source location. The zero value means unknown.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsZero reports whether the position is unknown.
func (p Position) IsZero() bool {
	return p.Line == 0
}

// String renders the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// YAML scalar tags.
const (
	TagNull  = "!!null"
	TagBool  = "!!bool"
	TagInt   = "!!int"
	TagFloat = "!!float"
	TagStr   = "!!str"
)

// Node is one element of an adapted document tree.
type Node struct {
	kind  Kind
	pos   Position
	tag   string
	value string
	m     *Map
	list  []*Node
}

// NewScalar builds a scalar node. An empty tag means "!!str".
func NewScalar(value, tag string, pos Position) *Node {
	if tag == "" {
		tag = TagStr
	}
	return &Node{kind: KindScalar, value: value, tag: tag, pos: pos}
}

// NewMap builds a map node from entries, keeping their order. Later entries
// with a duplicate key replace earlier ones in place.
func NewMap(pos Position, entries ...Entry) *Node {
	m := &Map{}
	for _, e := range entries {
		m.set(e)
	}
	return &Node{kind: KindMap, m: m, pos: pos, tag: "!!map"}
}

// NewList builds a list node.
func NewList(pos Position, items ...*Node) *Node {
	return &Node{kind: KindList, list: items, pos: pos, tag: "!!seq"}
}

// Kind returns the node shape.
func (n *Node) Kind() Kind { return n.kind }

// Position returns where the node starts in the source.
func (n *Node) Position() Position { return n.pos }

// Tag returns the resolved YAML tag.
func (n *Node) Tag() string { return n.tag }

// Value returns the raw scalar text, or "" for maps and lists.
func (n *Node) Value() string { return n.value }

// IsNull reports whether the node is a null scalar.
func (n *Node) IsNull() bool {
	return n.kind == KindScalar && n.tag == TagNull
}

func (n *Node) shapeError(expected string) error {
	actual := n.kind.String()
	if n.kind == KindScalar && n.tag != "" {
		actual = strings.TrimPrefix(n.tag, "!!")
	}
	return &apierrors.ShapeError{
		Expected: expected,
		Actual:   actual,
		Line:     n.pos.Line,
		Column:   n.pos.Column,
	}
}

// AsMap returns the node as a map.
func (n *Node) AsMap() (*Map, error) {
	if n.kind != KindMap {
		return nil, n.shapeError("map")
	}
	return n.m, nil
}

// AsList returns the node's items.
func (n *Node) AsList() ([]*Node, error) {
	if n.kind != KindList {
		return nil, n.shapeError("list")
	}
	return n.list, nil
}

// Lookup follows raw (unescaped) pointer segments from n: map keys for maps
// and decimal indexes for lists.
func (n *Node) Lookup(segments ...string) (*Node, bool) {
	cur := n
	for _, seg := range segments {
		switch cur.kind {
		case KindMap:
			next, ok := cur.m.Get(seg)
			if !ok {
				return nil, false
			}
			cur = next
		case KindList:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.list) {
				return nil, false
			}
			cur = cur.list[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// AsScalar returns the scalar text of the node.
func (n *Node) AsScalar() (string, error) {
	if n.kind != KindScalar {
		return "", n.shapeError("scalar")
	}
	return n.value, nil
}

// AsString returns the scalar text of a string-tagged node. Numbers and
// booleans are rejected so that `title: 1` is reported.
func (n *Node) AsString() (string, error) {
	if n.kind != KindScalar || (n.tag != TagStr && n.tag != "") {
		return "", n.shapeError("string")
	}
	return n.value, nil
}

// AsBool parses a boolean scalar.
func (n *Node) AsBool() (bool, error) {
	if n.kind != KindScalar || n.tag != TagBool {
		return false, n.shapeError("boolean")
	}
	return strconv.ParseBool(strings.ToLower(n.value))
}

// AsInt parses an integer scalar.
func (n *Node) AsInt() (int64, error) {
	if n.kind != KindScalar || n.tag != TagInt {
		return 0, n.shapeError("integer")
	}
	return strconv.ParseInt(strings.ReplaceAll(n.value, "_", ""), 0, 64)
}

// AsFloat parses a numeric scalar. Integers are accepted.
func (n *Node) AsFloat() (float64, error) {
	if n.kind != KindScalar || (n.tag != TagFloat && n.tag != TagInt) {
		return 0, n.shapeError("number")
	}
	return parseFloat(n.value)
}

// AsStringList returns the items of a list of scalars.
func (n *Node) AsStringList() ([]string, error) {
	items, err := n.AsList()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := item.AsScalar()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Interface returns a plain Go value mirroring the node: maps become
// map[string]any, lists []any, and scalars are typed by their tag.
func (n *Node) Interface() any {
	switch n.kind {
	case KindMap:
		out := make(map[string]any, n.m.Len())
		for _, e := range n.m.entries {
			out[e.Key] = e.Value.Interface()
		}
		return out
	case KindList:
		out := make([]any, len(n.list))
		for i, item := range n.list {
			out[i] = item.Interface()
		}
		return out
	}

	switch n.tag {
	case TagNull:
		return nil
	case TagBool:
		if b, err := strconv.ParseBool(strings.ToLower(n.value)); err == nil {
			return b
		}
	case TagInt:
		if i, err := strconv.ParseInt(strings.ReplaceAll(n.value, "_", ""), 0, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(n.value, 0, 64); err == nil {
			return u
		}
	case TagFloat:
		if f, err := parseFloat(n.value); err == nil {
			return f
		}
	}
	return n.value
}

func parseFloat(s string) (float64, error) {
	switch strings.ToLower(s) {
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	case ".nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
}

// Entry is one key/value pair of a map.
type Entry struct {
	Key    string
	KeyPos Position
	Value  *Node
}

// Map is an ordered mapping of string keys to nodes.
type Map struct {
	entries []Entry
	index   map[string]int
}

func (m *Map) set(e Entry) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[e.Key]; ok {
		m.entries[i] = e
		return
	}
	m.index[e.Key] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (*Node, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Entries returns the pairs in document order. The slice must not be modified.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Keys returns the keys in document order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	for _, e := range m.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
