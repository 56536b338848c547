package walker

import (
	"context"
	"errors"
	"fmt"

	"github.com/erraggy/apigraph/internal/loopguard"
	"github.com/erraggy/apigraph/internal/pathutil"
	"github.com/erraggy/apigraph/model"
)

// Action controls the walker's behavior after visiting a node.
type Action int

const (
	// Continue continues walking normally, visiting children and siblings.
	Continue Action = iota

	// SkipChildren skips all children of the current node but continues with siblings.
	SkipChildren

	// Stop stops the walk immediately. No more nodes will be visited.
	Stop
)

// IsValid returns true if the action is one of the defined constants.
func (a Action) IsValid() bool {
	return a >= Continue && a <= Stop
}

// String returns a string representation of the action.
func (a Action) String() string {
	switch a {
	case Continue:
		return "Continue"
	case SkipChildren:
		return "SkipChildren"
	case Stop:
		return "Stop"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

// SkipReason tells why the children of an element were not visited.
type SkipReason string

const (
	// SkipCycle means the element is already being visited higher up the
	// current path.
	SkipCycle SkipReason = "cycle"
	// SkipDepth means the element lies deeper than the configured maximum.
	SkipDepth SkipReason = "depth"
)

// DefaultMaxDepth is the nesting limit used unless WithMaxDepth is given.
const DefaultMaxDepth = 100

// walkStack is the loop guard stack holding the elements on the current path.
const walkStack = "walk"

// Visitor receives callbacks for every element of a document.
//
// Each element callback receives the Slot holding the element. Returning
// SkipChildren skips the element's children; Stop ends the walk.
//
// Slots holding a placeholder are reported to VisitReference instead of the
// typed callback. A slot holding a resolved reference is reported to the typed
// callback with Slot.Linked set, and its children are not walked there: they
// are walked where the target is defined.
type Visitor interface {
	VisitDocument(doc *model.Document) Action
	VisitServer(slot *Slot, server *model.Server) Action
	VisitServerVariable(slot *Slot, v *model.ServerVariable) Action
	VisitChannel(slot *Slot, channel *model.Channel) Action
	VisitOperation(slot *Slot, op *model.Operation) Action
	VisitOperationReply(slot *Slot, reply *model.OperationReply) Action
	VisitReplyAddress(slot *Slot, addr *model.OperationReplyAddress) Action
	VisitMessage(slot *Slot, msg *model.Message) Action
	VisitSchema(slot *Slot, schema *model.Schema) Action
	VisitParameter(slot *Slot, param *model.Parameter) Action
	VisitSecurityScheme(slot *Slot, scheme *model.SecurityScheme) Action
	VisitCorrelationID(slot *Slot, id *model.CorrelationID) Action
	VisitOperationTrait(slot *Slot, trait *model.OperationTrait) Action
	VisitMessageTrait(slot *Slot, trait *model.MessageTrait) Action
	VisitBindings(slot *Slot, bindings *model.Bindings) Action
	VisitTag(slot *Slot, tag *model.Tag) Action
	VisitExternalDocs(slot *Slot, docs *model.ExternalDocs) Action

	// VisitReference is called for every slot holding a placeholder.
	// Implementations may replace the placeholder with slot.Set.
	VisitReference(slot *Slot) Action

	// VisitSkipped is called when the children of the element in slot are
	// not visited because of a cycle or the depth limit.
	VisitSkipped(slot *Slot, reason SkipReason)
}

// Walker traverses AsyncAPI documents and calls a Visitor for each element.
type Walker struct {
	ctx        context.Context
	maxDepth   int
	components bool

	v       Visitor
	path    pathutil.PointerBuilder
	guard   *loopguard.Guard
	depth   int
	stopped bool
	err     error
}

func newWalker(v Visitor, opts ...Option) *Walker {
	w := &Walker{
		ctx:        context.Background(),
		maxDepth:   DefaultMaxDepth,
		components: true,
		v:          v,
		// loop guards are scoped to one walk
		guard: loopguard.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk traverses doc depth-first and calls v for each element.
//
// Order: document, info tags, servers, channels, operations, components
// tables, document tags. It returns the context's error when the walk was
// cancelled.
func Walk(doc *model.Document, v Visitor, opts ...Option) error {
	if doc == nil {
		return errors.New("walker: nil document")
	}
	if v == nil {
		return errors.New("walker: nil visitor")
	}
	w := newWalker(v, opts...)
	w.walkDocument(doc)
	return w.err
}

// WalkElement traverses a single element as if it were defined at pointer.
// It is used for elements that do not belong to a document, such as a schema
// loaded from a plain JSON Schema file.
func WalkElement(root model.Referenceable, pointer string, v Visitor, opts ...Option) error {
	if root == nil || v == nil {
		return errors.New("walker: nil element or visitor")
	}
	w := newWalker(v, opts...)
	for _, seg := range pathutil.Split(pointer) {
		w.path.Push(seg)
	}
	slot := rootSlot(w.pointer(), root)
	switch el := root.(type) {
	case *model.Schema:
		descend(w, slot, w.v.VisitSchema, w.schemaChildren)
	case *model.Message:
		descend(w, slot, w.v.VisitMessage, w.messageChildren)
	case *model.MessageTrait:
		descend(w, slot, w.v.VisitMessageTrait, w.messageTraitChildren)
	case *model.Channel:
		descend(w, slot, w.v.VisitChannel, w.channelChildren)
	case *model.Operation:
		descend(w, slot, w.v.VisitOperation, w.operationChildren)
	case *model.OperationTrait:
		descend(w, slot, w.v.VisitOperationTrait, w.operationTraitChildren)
	case *model.OperationReply:
		descend(w, slot, w.v.VisitOperationReply, w.replyChildren)
	case *model.Server:
		descend(w, slot, w.v.VisitServer, w.serverChildren)
	case *model.Parameter:
		descend(w, slot, w.v.VisitParameter, w.parameterChildren)
	case *model.Tag:
		descend(w, slot, w.v.VisitTag, w.tagChildren)
	case *model.ServerVariable:
		descend(w, slot, w.v.VisitServerVariable, nil)
	case *model.OperationReplyAddress:
		descend(w, slot, w.v.VisitReplyAddress, nil)
	case *model.SecurityScheme:
		descend(w, slot, w.v.VisitSecurityScheme, nil)
	case *model.CorrelationID:
		descend(w, slot, w.v.VisitCorrelationID, nil)
	case *model.Bindings:
		descend(w, slot, w.v.VisitBindings, nil)
	case *model.ExternalDocs:
		descend(w, slot, w.v.VisitExternalDocs, nil)
	default:
		return fmt.Errorf("walker: unsupported element type %T", el)
	}
	return w.err
}

// done reports whether the walk was stopped or its context cancelled.
func (w *Walker) done() bool {
	if w.stopped {
		return true
	}
	if err := w.ctx.Err(); err != nil {
		w.err = err
		w.stopped = true
		return true
	}
	return false
}

// handleAction processes the action returned by a callback.
// Returns true if walking should continue to children.
func (w *Walker) handleAction(action Action) bool {
	switch action {
	case Stop:
		w.stopped = true
		return false
	case SkipChildren:
		return false
	default:
		return true
	}
}

func (w *Walker) enter(segments ...string) func() {
	for _, s := range segments {
		w.path.Push(s)
	}
	return func() {
		for range segments {
			w.path.Pop()
		}
	}
}

func (w *Walker) pointer() string {
	return w.path.String()
}

// descend visits the element held by slot and then its children.
// children may be nil for elements without nested elements.
func descend[PT model.Referenceable](w *Walker, slot *Slot, visit func(*Slot, PT) Action, children func(PT)) {
	if w.done() {
		return
	}
	cur := slot.Value()
	if cur == nil {
		return
	}
	if model.IsPlaceholder(cur) {
		w.handleAction(w.v.VisitReference(slot))
		return
	}
	el, ok := cur.(PT)
	if !ok {
		return
	}

	info := cur.RefInfo()
	if !info.IsDefinedAt(slot.Pointer) {
		extra, below := pathutil.Below(info.Location, slot.Pointer)
		if !below {
			// a resolved reference; the target is walked where it is defined
			slot.Linked = true
			w.handleAction(visit(slot, el))
			return
		}
		// defined under a wrapper, such as a multi format payload
		defer w.enter(extra...)()
		slot.Pointer = w.pointer()
	}

	if w.depth > w.maxDepth {
		w.v.VisitSkipped(slot, SkipDepth)
		return
	}
	if !w.guard.Push(walkStack, cur) {
		w.handleAction(visit(slot, el))
		if !w.stopped {
			w.v.VisitSkipped(slot, SkipCycle)
		}
		return
	}
	defer w.guard.Pop(walkStack)

	if !w.handleAction(visit(slot, el)) {
		return
	}
	if children == nil {
		return
	}
	w.depth++
	children(el)
	w.depth--
}
