package walker

import (
	"github.com/erraggy/apigraph/model"
)

// ReferenceInfo describes an unresolved reference found during a walk.
type ReferenceInfo struct {
	// Pointer is the JSON pointer of the slot holding the placeholder.
	Pointer string
	// Kind is the element kind the slot accepts.
	Kind model.RefKind
	// Reference is the placeholder's reference.
	Reference *model.Reference
}

type referenceCollector struct {
	BaseVisitor
	refs []*ReferenceInfo
}

func (c *referenceCollector) VisitReference(slot *Slot) Action {
	if ref := slot.Reference(); ref != nil {
		c.refs = append(c.refs, &ReferenceInfo{
			Pointer:   slot.Pointer,
			Kind:      slot.Kind,
			Reference: ref,
		})
	}
	return Continue
}

// CollectReferences walks the document and returns every unresolved
// reference in traversal order.
func CollectReferences(doc *model.Document, opts ...Option) ([]*ReferenceInfo, error) {
	c := &referenceCollector{}
	if err := Walk(doc, c, opts...); err != nil {
		return nil, err
	}
	return c.refs, nil
}

// ExternalResources returns the distinct resources named by the document's
// unresolved external references, in first-seen order. Resources are
// returned as written in the document, relative to its location.
func ExternalResources(doc *model.Document, opts ...Option) ([]string, error) {
	refs, err := CollectReferences(doc, opts...)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := make(map[string]struct{})
	for _, info := range refs {
		// references qualified with the document's own locator are local
		if !info.Reference.IsExternal() || info.Reference.Resource == doc.Location {
			continue
		}
		if _, ok := seen[info.Reference.Resource]; ok {
			continue
		}
		seen[info.Reference.Resource] = struct{}{}
		out = append(out, info.Reference.Resource)
	}
	return out, nil
}
