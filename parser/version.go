package parser

import (
	"strings"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
)

// Version selects the loader a document is parsed with.
type Version = model.Dialect

const (
	// VersionUnknown is the zero value
	VersionUnknown = model.DialectUnknown
	// VersionAsyncAPI2 loads AsyncAPI 2.0 through 2.6
	VersionAsyncAPI2 = model.DialectAsyncAPI2
	// VersionAsyncAPI3 loads AsyncAPI 3.0
	VersionAsyncAPI3 = model.DialectAsyncAPI3
)

// versionIndicator is one top-level field that identifies a dialect, with
// the version prefixes that select a loader.
type versionIndicator struct {
	field    string
	prefixes []versionPrefix
}

type versionPrefix struct {
	prefix  string
	version Version
}

// versionIndicators are consulted in order; the first field present decides.
// "swagger" is recognized so that OpenAPI 2.0 documents fail with a precise
// error, but no loader is registered for it.
var versionIndicators = []versionIndicator{
	{
		field: "asyncapi",
		prefixes: []versionPrefix{
			{"2.0", VersionAsyncAPI2},
			{"2.1", VersionAsyncAPI2},
			{"2.2", VersionAsyncAPI2},
			{"2.3", VersionAsyncAPI2},
			{"2.4", VersionAsyncAPI2},
			{"2.5", VersionAsyncAPI2},
			{"2.6", VersionAsyncAPI2},
			{"3.0", VersionAsyncAPI3},
		},
	},
	{field: "swagger"},
}

// matchesPrefix reports whether v starts with the dotted prefix p as a
// whole component, so "2.1" matches "2.1.0" and "2.1" but not "2.10".
func matchesPrefix(v, p string) bool {
	if !strings.HasPrefix(v, p) {
		return false
	}
	if len(v) == len(p) {
		return true
	}
	switch v[len(p)] {
	case '.', '-', '+':
		return true
	}
	return false
}

// DetectVersion inspects the version indicator fields of a document root and
// returns the selected version together with the raw version string.
// A missing indicator or an unknown version is an *apierrors.VersionError.
func DetectVersion(root *node.Map) (Version, string, error) {
	for _, ind := range versionIndicators {
		n, ok := root.Get(ind.field)
		if !ok {
			continue
		}
		raw, err := n.AsScalar()
		if err != nil {
			return VersionUnknown, "", &apierrors.VersionError{Field: ind.field, Value: n.Kind().String()}
		}
		raw = strings.TrimSpace(raw)
		for _, p := range ind.prefixes {
			if matchesPrefix(raw, p.prefix) {
				return p.version, raw, nil
			}
		}
		return VersionUnknown, raw, &apierrors.VersionError{Field: ind.field, Value: raw}
	}
	return VersionUnknown, "", &apierrors.VersionError{}
}

// ElementKind names the element type requested from Loader.LoadElement.
type ElementKind = model.RefKind

// Loader builds typed objects for one specification version.
type Loader interface {
	// Version returns the version this loader handles.
	Version() Version
	// LoadDocument builds a document from its root node. Recoverable problems
	// are recorded on ctx; the root must already be known to be a map.
	LoadDocument(root *node.Node, ctx *Context) *model.Document
	// LoadElement builds a single element of the given kind from n.
	LoadElement(kind ElementKind, n *node.Node, ctx *Context) (any, error)
}

// LoaderFor returns the loader registered for v.
func LoaderFor(v Version) (Loader, error) {
	switch v {
	case VersionAsyncAPI2:
		return asyncAPI2Loader{}, nil
	case VersionAsyncAPI3:
		return asyncAPI3Loader{}, nil
	}
	return nil, &apierrors.VersionError{Field: "version", Value: v.String()}
}
