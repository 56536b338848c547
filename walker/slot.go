package walker

import (
	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/apigraph/model"
)

// Slot is the location holding an element: a struct field, a list item or
// a table entry. Visitors use it to learn where an element lives and to swap
// a placeholder for its target.
type Slot struct {
	// Pointer is the JSON pointer of the slot within the walked resource.
	Pointer string
	// Kind is the element kind the slot accepts.
	Kind model.RefKind
	// Linked is set when the slot holds a resolved reference to an element
	// defined at another location.
	Linked bool

	get func() model.Referenceable
	set func(model.Referenceable) bool
}

// Value returns the element currently held by the slot, or nil.
func (s *Slot) Value() model.Referenceable {
	return s.get()
}

// Set stores v in the slot. It returns false when v is nil or not of the
// slot's element type.
func (s *Slot) Set(v model.Referenceable) bool {
	if v == nil || s.set == nil {
		return false
	}
	return s.set(v)
}

// Reference returns the reference of the placeholder held by the slot, or
// nil when the slot holds a regular element.
func (s *Slot) Reference() *model.Reference {
	v := s.Value()
	if !model.IsPlaceholder(v) {
		return nil
	}
	return v.RefInfo().Reference
}

func fieldSlot[T any, PT element[T]](pointer string, kind model.RefKind, field *PT) *Slot {
	return &Slot{
		Pointer: pointer,
		Kind:    kind,
		get:     func() model.Referenceable { return asReferenceable(*field) },
		set: func(v model.Referenceable) bool {
			typed, ok := v.(PT)
			if ok {
				*field = typed
			}
			return ok
		},
	}
}

func entrySlot[T any, PT element[T]](pointer string, kind model.RefKind, m *sequencedmap.Map[string, PT], key string) *Slot {
	return &Slot{
		Pointer: pointer,
		Kind:    kind,
		get: func() model.Referenceable {
			v, _ := m.Get(key)
			return asReferenceable(v)
		},
		set: func(v model.Referenceable) bool {
			typed, ok := v.(PT)
			if ok {
				// Set updates an existing entry in place and keeps its position
				m.Set(key, typed)
			}
			return ok
		},
	}
}

func itemSlot[T any, PT element[T]](pointer string, kind model.RefKind, list []PT, i int) *Slot {
	return &Slot{
		Pointer: pointer,
		Kind:    kind,
		get:     func() model.Referenceable { return asReferenceable(list[i]) },
		set: func(v model.Referenceable) bool {
			typed, ok := v.(PT)
			if ok {
				list[i] = typed
			}
			return ok
		},
	}
}

// rootSlot holds an element that has no owner; it cannot be replaced.
func rootSlot(pointer string, v model.Referenceable) *Slot {
	return &Slot{
		Pointer: pointer,
		Kind:    model.KindOf(v),
		get:     func() model.Referenceable { return v },
	}
}

// element constrains a pointer to a referenceable model type.
type element[T any] interface {
	*T
	model.Referenceable
}

// asReferenceable converts v, keeping a nil pointer a nil interface.
func asReferenceable[T any, PT element[T]](v PT) model.Referenceable {
	if v == nil {
		return nil
	}
	return v
}
