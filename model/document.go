package model

import (
	"github.com/speakeasy-api/openapi/jsonpointer"
	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/apigraph/internal/pathutil"
)

// Dialect is the specification dialect a document was loaded with.
type Dialect int

const (
	// DialectUnknown is the zero value
	DialectUnknown Dialect = iota
	// DialectAsyncAPI2 covers AsyncAPI 2.0 through 2.6
	DialectAsyncAPI2
	// DialectAsyncAPI3 covers AsyncAPI 3.0
	DialectAsyncAPI3
)

func (d Dialect) String() string {
	switch d {
	case DialectAsyncAPI2:
		return "asyncapi2"
	case DialectAsyncAPI3:
		return "asyncapi3"
	default:
		return "unknown"
	}
}

// Workspace resolves references that point into other resources.
// Implemented by workspace.Workspace.
type Workspace interface {
	Resolve(ref *Reference) (Referenceable, bool)
}

// Document is the root of an AsyncAPI object graph. It owns every element
// defined in it; documents in an attached Workspace are not owned.
type Document struct {
	// AsyncAPI is the raw "asyncapi" version string
	AsyncAPI           string                                `key:"asyncapi"`
	Dialect            Dialect                               `key:"-"`
	ID                 string                                `key:"id"`
	Info               *Info                                 `key:"info"`
	Servers            *sequencedmap.Map[string, *Server]    `key:"servers"`
	DefaultContentType string                                `key:"defaultContentType"`
	Channels           *sequencedmap.Map[string, *Channel]   `key:"channels"`
	Operations         *sequencedmap.Map[string, *Operation] `key:"operations"`
	Components         *Components                           `key:"components"`
	Tags               []*Tag                                `key:"tags"`
	ExternalDocs       *ExternalDocs                         `key:"externalDocs"`
	Extensions         Extensions                            `key:"-"`

	// Location is the locator the document was loaded from, if any
	Location string `key:"-"`
	// Workspace resolves external references; nil for standalone documents
	Workspace Workspace `key:"-"`
}

// NewDocument returns an empty document with its tables allocated.
func NewDocument(dialect Dialect) *Document {
	return &Document{
		Dialect:    dialect,
		Servers:    sequencedmap.New[string, *Server](),
		Channels:   sequencedmap.New[string, *Channel](),
		Operations: sequencedmap.New[string, *Operation](),
		Components: NewComponents(),
	}
}

// AllTags returns the document level tags followed by the info tags.
func (d *Document) AllTags() []*Tag {
	tags := make([]*Tag, 0, len(d.Tags))
	tags = append(tags, d.Tags...)
	if d.Info != nil {
		tags = append(tags, d.Info.Tags...)
	}
	return tags
}

// TagByName finds a defined tag by name, looking at the document tags, the
// info tags and then the components tags table.
func (d *Document) TagByName(name string) (*Tag, bool) {
	for _, t := range d.AllTags() {
		if t != nil && !t.Unresolved && t.Name == name {
			return t, true
		}
	}
	if d.Components != nil {
		if t, ok := d.Components.Tags.Get(name); ok && t != nil {
			return t, true
		}
	}
	return nil, false
}

// Lookup finds the element a local reference points to. Components
// references use the components tables by key, other tag references are
// matched by name and any other fragment is evaluated as a JSON pointer
// against the graph. The resource part of ref is ignored.
func (d *Document) Lookup(ref *Reference) (Referenceable, bool) {
	if ref == nil {
		return nil, false
	}
	if table, ok := ref.ComponentTable(); ok {
		kind := KindForTable(table)
		if kind == RefKindUnknown || d.Components == nil {
			return nil, false
		}
		return d.Components.Lookup(kind, ref.ID)
	}
	if ref.Kind == RefKindTag {
		if t, ok := d.TagByName(ref.ID); ok {
			return t, true
		}
	}
	return d.LookupPointer(ref.Fragment)
}

// LookupPointer evaluates a "#/"-rooted pointer against the typed graph and
// returns the referenceable element found there.
//
// The pointer is followed one segment at a time so that navigation stops at
// the first nil value instead of descending into it.
func (d *Document) LookupPointer(fragment string) (Referenceable, bool) {
	segs := pathutil.Split(fragment)
	if len(segs) == 0 {
		return nil, false
	}
	var cur any = d
	for _, seg := range segs {
		next, err := jsonpointer.GetTarget(cur, jsonpointer.PartsToJSONPointer([]string{seg}))
		if err != nil || isNil(next) {
			return nil, false
		}
		cur = next
	}
	r, ok := cur.(Referenceable)
	if !ok || isNil(r) {
		return nil, false
	}
	return r, true
}
