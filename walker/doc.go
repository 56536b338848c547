// Package walker provides a depth-first traversal API for AsyncAPI documents.
//
// The walker visits every element of a parsed document, AsyncAPI 2.x and 3.x
// alike, and dispatches each one to a typed [Visitor] callback. It defines no
// resolution or validation logic; the resolver package and other consumers
// are built on top of it as visitors.
//
// # Quick Start
//
// Collect the names of all component messages:
//
//	type messageNames struct {
//	    walker.BaseVisitor
//	    names []string
//	}
//
//	func (v *messageNames) VisitMessage(slot *walker.Slot, msg *model.Message) walker.Action {
//	    v.names = append(v.names, msg.Name)
//	    return walker.Continue
//	}
//
//	err := walker.Walk(result.Document, &messageNames{})
//
// # Flow Control
//
// Callbacks return an [Action] to control traversal:
//
//   - [Continue]: continue traversing children and siblings normally
//   - [SkipChildren]: skip all children of the current element, continue with siblings
//   - [Stop]: stop the entire walk immediately
//
// # Slots and References
//
// Every callback receives the [Slot] holding the element. A slot knows its
// JSON pointer and the element kind it accepts, and can replace the element
// it holds. Placeholders left by the parser for "$ref" values are reported to
// [Visitor.VisitReference]; the resolver swaps them for their targets with
// [Slot.Set].
//
// A resolved reference is reported to the typed callback with [Slot.Linked]
// set, but its children are only walked where the target is defined. Walking
// a resolved document therefore visits each element's subtree once.
//
// # Cycles and Depth
//
// Elements on the current path are tracked in a loop guard scoped to the
// walk. An element met again on its own path, as happens with a
// self-referencing schema built in code, is visited but its children are
// skipped and [Visitor.VisitSkipped] is called with [SkipCycle]. Elements
// nested deeper than [WithMaxDepth] are reported with [SkipDepth].
//
// # Traversal Order
//
// Document, info tags and external docs, servers, channels, top-level
// operations (AsyncAPI 3), components tables, document tags (AsyncAPI 2).
// Within a channel: servers, parameters, messages, subscribe and publish
// operations (AsyncAPI 2), tags, external docs, bindings. Map entries are
// visited in document order.
package walker
