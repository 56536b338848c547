package node

import (
	"bytes"
	"regexp"
	"strconv"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/apigraph/apierrors"
)

var yamlErrorLine = regexp.MustCompile(`line (\d+)`)

// Parse decodes YAML or JSON text into a node tree. Syntax errors and empty
// input are returned as *apierrors.ParseError.
func Parse(data []byte) (*Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &apierrors.ParseError{Message: "document is empty"}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		perr := &apierrors.ParseError{Message: "invalid YAML or JSON", Cause: err}
		if m := yamlErrorLine.FindStringSubmatch(err.Error()); m != nil {
			perr.Line, _ = strconv.Atoi(m[1])
		}
		return nil, perr
	}
	if doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
		return nil, &apierrors.ParseError{Message: "document is empty"}
	}
	return FromYAML(&doc)
}

// FromYAML adapts an already decoded YAML tree. Document nodes are unwrapped.
func FromYAML(y *yaml.Node) (*Node, error) {
	a := &adapter{done: make(map[*yaml.Node]*Node), active: make(map[*yaml.Node]bool)}
	return a.adapt(y)
}

type adapter struct {
	// done memoizes adapted nodes so repeated aliases share one subtree
	done   map[*yaml.Node]*Node
	active map[*yaml.Node]bool
}

func posOf(y *yaml.Node) Position {
	return Position{Line: y.Line, Column: y.Column}
}

func (a *adapter) adapt(y *yaml.Node) (*Node, error) {
	if y == nil {
		return nil, &apierrors.ParseError{Message: "nil node"}
	}
	for y.Kind == yaml.AliasNode {
		if y.Alias == nil {
			return nil, &apierrors.ParseError{Line: y.Line, Column: y.Column, Message: "unknown alias " + y.Value}
		}
		y = y.Alias
	}
	if n, ok := a.done[y]; ok {
		return n, nil
	}
	if a.active[y] {
		return nil, &apierrors.ParseError{Line: y.Line, Column: y.Column, Message: "anchor contains itself"}
	}
	a.active[y] = true
	defer delete(a.active, y)

	var (
		n   *Node
		err error
	)
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return nil, &apierrors.ParseError{Message: "document is empty"}
		}
		return a.adapt(y.Content[0])
	case yaml.ScalarNode:
		n = NewScalar(y.Value, y.ShortTag(), posOf(y))
	case yaml.SequenceNode:
		items := make([]*Node, 0, len(y.Content))
		for _, c := range y.Content {
			item, err := a.adapt(c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		n = NewList(posOf(y), items...)
	case yaml.MappingNode:
		n, err = a.adaptMap(y)
		if err != nil {
			return nil, err
		}
	default:
		return nil, &apierrors.ParseError{Line: y.Line, Column: y.Column, Message: "unsupported YAML node kind"}
	}
	a.done[y] = n
	return n, nil
}

func isMergeKey(y *yaml.Node) bool {
	return y.Kind == yaml.ScalarNode && y.Tag == "!!merge" && y.Value == "<<"
}

// adaptMap expands "<<" merge keys in place. Explicit keys always win over
// merged ones; among several merged maps the earlier one wins.
func (a *adapter) adaptMap(y *yaml.Node) (*Node, error) {
	content := y.Content
	if len(content)%2 == 1 {
		content = content[:len(content)-1]
	}

	explicit := make(map[string]bool, len(content)/2)
	for i := 0; i < len(content); i += 2 {
		if !isMergeKey(content[i]) {
			explicit[keyValue(content[i])] = true
		}
	}

	m := &Map{}
	for i := 0; i < len(content); i += 2 {
		k, v := content[i], content[i+1]
		if !isMergeKey(k) {
			val, err := a.adapt(v)
			if err != nil {
				return nil, err
			}
			m.set(Entry{Key: keyValue(k), KeyPos: posOf(k), Value: val})
			continue
		}

		merged, err := a.adapt(v)
		if err != nil {
			return nil, err
		}
		var sources []*Node
		switch merged.kind {
		case KindMap:
			sources = []*Node{merged}
		case KindList:
			sources = merged.list
		default:
			return nil, &apierrors.ParseError{Line: v.Line, Column: v.Column, Message: "merge value must be a map or a list of maps"}
		}
		for _, src := range sources {
			if src.kind != KindMap {
				return nil, &apierrors.ParseError{Line: src.pos.Line, Column: src.pos.Column, Message: "merge value must be a map or a list of maps"}
			}
			for _, e := range src.m.entries {
				if explicit[e.Key] || m.Has(e.Key) {
					continue
				}
				m.set(e)
			}
		}
	}
	return &Node{kind: KindMap, m: m, pos: posOf(y), tag: "!!map"}, nil
}

func keyValue(y *yaml.Node) string {
	for y.Kind == yaml.AliasNode && y.Alias != nil {
		y = y.Alias
	}
	return y.Value
}
