package workspace

import (
	"github.com/erraggy/apigraph/internal/pathutil"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
	"github.com/erraggy/apigraph/walker"
)

// qualify rewrites the external references of a document parsed without a
// base locator so that they are relative to locator.
func qualify(doc *model.Document, locator string) error {
	refs, err := walker.CollectReferences(doc)
	if err != nil {
		return err
	}
	for _, info := range refs {
		if ref := info.Reference; ref.IsExternal() {
			ref.Resource = pathutil.ResolveLocator(locator, ref.Resource)
		}
	}
	return nil
}

// scanDocument lists the resources named by doc's external references.
func scanDocument(doc *model.Document) ([]discovered, error) {
	refs, err := walker.CollectReferences(doc)
	if err != nil {
		return nil, err
	}
	var out []discovered
	for _, info := range refs {
		ref := info.Reference
		if !ref.IsExternal() || ref.Resource == doc.Location {
			continue
		}
		out = append(out, discovered{
			locator: ref.Resource,
			pointer: info.Pointer,
			source:  doc.Location,
			version: doc.Dialect,
		})
	}
	return out, nil
}

// scan lists the resources named by r.
func (r *resource) scan() ([]discovered, error) {
	if r.doc != nil {
		return scanDocument(r.doc)
	}
	var out []discovered
	p := pathutil.Get()
	defer pathutil.Put(p)
	scanNode(r.root, p, func(raw string) {
		ref := model.ParseRef(raw)
		if !ref.IsExternal() {
			return
		}
		loc := pathutil.ResolveLocator(r.locator, ref.Resource)
		if loc == r.locator {
			return
		}
		out = append(out, discovered{
			locator: loc,
			pointer: p.String(),
			source:  r.locator,
			version: r.version,
		})
	})
	return out, nil
}

// scanNode calls found with the value of every "$ref" scalar below n. The
// builder holds the pointer of the map containing the "$ref" when found runs.
func scanNode(n *node.Node, p *pathutil.PointerBuilder, found func(raw string)) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case node.KindMap:
		m, err := n.AsMap()
		if err != nil {
			return
		}
		if ref, ok := m.Get("$ref"); ok && ref.Kind() == node.KindScalar {
			found(ref.Value())
			return
		}
		for _, e := range m.Entries() {
			p.Push(e.Key)
			scanNode(e.Value, p, found)
			p.Pop()
		}
	case node.KindList:
		items, err := n.AsList()
		if err != nil {
			return
		}
		for i, item := range items {
			p.PushIndex(i)
			scanNode(item, p, found)
			p.Pop()
		}
	}
}
