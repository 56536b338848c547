package node

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/apigraph/apierrors"
)

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	n, err := Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func TestParseYAMLMap(t *testing.T) {
	root := mustParse(t, `
asyncapi: 2.6.0
info:
  title: Demo
  version: "1.0"
channels: {}
`)
	m, err := root.AsMap()
	require.NoError(t, err)
	assert.Equal(t, []string{"asyncapi", "info", "channels"}, m.Keys())

	info, ok := m.Get("info")
	require.True(t, ok)
	assert.Equal(t, Position{Line: 4, Column: 3}, info.Position())

	im, err := info.AsMap()
	require.NoError(t, err)
	title, _ := im.Get("title")
	s, err := title.AsString()
	require.NoError(t, err)
	assert.Equal(t, "Demo", s)
	assert.Equal(t, 3, m.Entries()[1].KeyPos.Line)
}

func TestParseJSON(t *testing.T) {
	root := mustParse(t, `{"asyncapi": "3.0.0", "tags": [{"name": "a"}, {"name": "b"}]}`)
	m, err := root.AsMap()
	require.NoError(t, err)
	tags, _ := m.Get("tags")
	items, err := tags.AsList()
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestParseErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Parse([]byte("  \n"))
		assert.ErrorIs(t, err, apierrors.ErrMalformedDocument)
	})
	t.Run("syntax", func(t *testing.T) {
		_, err := Parse([]byte("a: b\n  c: [\n"))
		require.Error(t, err)
		var perr *apierrors.ParseError
		require.True(t, errors.As(err, &perr))
		assert.True(t, errors.Is(err, apierrors.ErrMalformedDocument))
	})
}

func TestShapeMismatch(t *testing.T) {
	root := mustParse(t, "- a\n- b\n")
	_, err := root.AsMap()
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrUnexpectedNodeShape)

	var serr *apierrors.ShapeError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "map", serr.Expected)
	assert.Equal(t, "list", serr.Actual)
	assert.Equal(t, 1, serr.Line)

	list, err := root.AsStringList()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)
}

func TestTypedScalars(t *testing.T) {
	root := mustParse(t, `
b: true
i: 0x1F
f: 1.5
inf: .inf
n: ~
s: hello
`)
	m, _ := root.AsMap()
	get := func(k string) *Node {
		n, ok := m.Get(k)
		require.True(t, ok, k)
		return n
	}

	b, err := get("b").AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	i, err := get("i").AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 31, i)

	f, err := get("f").AsFloat()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 0)

	inf, err := get("inf").AsFloat()
	require.NoError(t, err)
	assert.True(t, math.IsInf(inf, 1))

	assert.True(t, get("n").IsNull())

	_, err = get("s").AsInt()
	assert.ErrorIs(t, err, apierrors.ErrUnexpectedNodeShape)
	_, err = get("i").AsString()
	assert.ErrorIs(t, err, apierrors.ErrUnexpectedNodeShape)
}

func TestInterface(t *testing.T) {
	root := mustParse(t, `
x-rate:
  limit: 10
  burst: 2.5
  enabled: false
  tags: [a, b]
  none: null
`)
	m, _ := root.AsMap()
	ext, _ := m.Get("x-rate")
	assert.Equal(t, map[string]any{
		"limit":   int64(10),
		"burst":   2.5,
		"enabled": false,
		"tags":    []any{"a", "b"},
		"none":    nil,
	}, ext.Interface())
}

func TestAliasesAndMergeKeys(t *testing.T) {
	root := mustParse(t, `
base: &base
  type: object
  description: base
other: &other
  format: custom
  description: other
derived:
  <<: [*base, *other]
  description: derived
copy: *base
`)
	m, _ := root.AsMap()

	derived, _ := m.Get("derived")
	dm, err := derived.AsMap()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"description", "type", "format"}, dm.Keys())
	desc, _ := dm.Get("description")
	assert.Equal(t, "derived", desc.Value(), "explicit keys win over merged ones")
	assert.False(t, dm.Has("<<"))

	base, _ := m.Get("base")
	cp, _ := m.Get("copy")
	assert.Same(t, base, cp, "aliases share the adapted subtree")
}

func TestFromYAMLDocumentNode(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("a: 1\n"), &doc))
	n, err := FromYAML(&doc)
	require.NoError(t, err)
	assert.Equal(t, KindMap, n.Kind())
}

func TestBuilders(t *testing.T) {
	n := NewMap(Position{Line: 1, Column: 1},
		Entry{Key: "a", Value: NewScalar("1", TagInt, Position{})},
		Entry{Key: "b", Value: NewList(Position{}, NewScalar("x", "", Position{}))},
		Entry{Key: "a", Value: NewScalar("2", TagInt, Position{})},
	)
	m, err := n.AsMap()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	assert.Equal(t, map[string]any{"a": int64(2), "b": []any{"x"}}, n.Interface())
}

func TestLookup(t *testing.T) {
	n, err := Parse([]byte(`
Order:
  properties:
    lines:
      items:
        - a/b: {type: string}
`))
	require.NoError(t, err)

	got, ok := n.Lookup("Order", "properties", "lines", "items", "0", "a/b", "type")
	require.True(t, ok)
	assert.Equal(t, "string", got.Value())

	same, ok := n.Lookup()
	assert.True(t, ok)
	assert.Same(t, n, same)

	_, ok = n.Lookup("Order", "missing")
	assert.False(t, ok)
	_, ok = n.Lookup("Order", "properties", "lines", "items", "3")
	assert.False(t, ok)
	_, ok = n.Lookup("Order", "properties", "lines", "items", "0", "a/b", "type", "deeper")
	assert.False(t, ok)
}
