package parser

import (
	"fmt"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/internal/loopguard"
	"github.com/erraggy/apigraph/internal/pathutil"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
)

// ExtensionParser turns the value of an "x-" field into the value stored in
// the owning object's Extensions.
type ExtensionParser func(key string, n *node.Node, ctx *Context) any

// DefaultExtensionParser echoes the node structurally.
func DefaultExtensionParser(_ string, n *node.Node, _ *Context) any {
	return n.Interface()
}

// Context carries the mutable state of a single parse: the location stack
// used for JSON pointers, temporary storage, loop guards and the diagnostics
// sink. Create one per parse; it is not safe for concurrent use.
type Context struct {
	path   pathutil.PointerBuilder
	temp   map[string]any
	scoped map[any]map[string]any
	loops  loopguard.Guard
	diags  *diag.List
	logger Logger
	ext    ExtensionParser

	// base qualifies every reference with the locator of the resource
	// being parsed; empty for standalone documents
	base  string
	specs *specSet
}

// NewContext returns a Context reporting into diags. A nil diags gets a
// fresh list and a nil logger a NopLogger.
func NewContext(diags *diag.List, logger Logger) *Context {
	if diags == nil {
		diags = diag.New()
	}
	return &Context{
		diags:  diags,
		logger: OrNop(logger),
		ext:    DefaultExtensionParser,
	}
}

// Enter pushes segment onto the location stack and returns the func that pops
// it:
//
//	defer ctx.Enter("payload")()
func (c *Context) Enter(segment string) func() {
	c.path.Push(segment)
	return c.Exit
}

// EnterIndex pushes a list index onto the location stack.
func (c *Context) EnterIndex(i int) func() {
	c.path.PushIndex(i)
	return c.Exit
}

// Exit pops the location stack. Popping an empty stack is a programming
// error and panics with apierrors.ErrLocationStack.
func (c *Context) Exit() {
	if !c.path.Pop() {
		panic(fmt.Errorf("%w: exit without matching enter", apierrors.ErrLocationStack))
	}
}

// Depth returns the location stack depth.
func (c *Context) Depth() int {
	return c.path.Depth()
}

// Pointer renders the current location as a "#/"-rooted JSON pointer.
func (c *Context) Pointer() string {
	return c.path.String()
}

// PointerFor renders the pointer of a child location without entering it.
func (c *Context) PointerFor(extra ...string) string {
	return c.path.Child(extra...)
}

// SetTemp stores value under key. A nil value deletes the key.
func (c *Context) SetTemp(key string, value any) {
	if value == nil {
		delete(c.temp, key)
		return
	}
	if c.temp == nil {
		c.temp = make(map[string]any)
	}
	c.temp[key] = value
}

// Temp returns the value stored under key.
func (c *Context) Temp(key string) (any, bool) {
	v, ok := c.temp[key]
	return v, ok
}

// SetScopedTemp stores value under key in the scope of owner. A nil value
// deletes the key. Owners must be comparable, typically the object being built.
func (c *Context) SetScopedTemp(owner any, key string, value any) {
	scope := c.scoped[owner]
	if value == nil {
		if scope != nil {
			delete(scope, key)
		}
		return
	}
	if scope == nil {
		if c.scoped == nil {
			c.scoped = make(map[any]map[string]any)
		}
		scope = make(map[string]any)
		c.scoped[owner] = scope
	}
	scope[key] = value
}

// ScopedTemp returns the value stored under key in the scope of owner.
func (c *Context) ScopedTemp(owner any, key string) (any, bool) {
	v, ok := c.scoped[owner][key]
	return v, ok
}

// ClearScope drops every value stored for owner.
func (c *Context) ClearScope(owner any) {
	delete(c.scoped, owner)
}

// PushLoop pushes key on the loop stack stackID. It returns false, without
// pushing, when key is already being visited.
func (c *Context) PushLoop(stackID string, key any) bool {
	return c.loops.Push(stackID, key)
}

// PopLoop removes the most recent key of the loop stack stackID.
func (c *Context) PopLoop(stackID string) {
	c.loops.Pop(stackID)
}

// ClearLoop empties the loop stack stackID.
func (c *Context) ClearLoop(stackID string) {
	c.loops.Clear(stackID)
}

// InLoop reports whether key is on the loop stack stackID.
func (c *Context) InLoop(stackID string, key any) bool {
	return c.loops.Contains(stackID, key)
}

// Diagnostics returns the sink diagnostics are recorded into.
func (c *Context) Diagnostics() *diag.List {
	return c.diags
}

// Logger returns the configured logger.
func (c *Context) Logger() Logger {
	return c.logger
}

// Errorf records an error diagnostic at the current location.
func (c *Context) Errorf(format string, args ...any) {
	c.diags.Add(diag.Diagnostic{
		Pointer:  c.Pointer(),
		Message:  fmt.Sprintf(format, args...),
		Severity: diag.SeverityError,
		Source:   c.base,
	})
}

// ErrorAt records an error diagnostic at the current location with the
// source position of n.
func (c *Context) ErrorAt(n *node.Node, format string, args ...any) {
	var pos node.Position
	if n != nil {
		pos = n.Position()
	}
	c.report(c.Pointer(), pos, diag.SeverityError, fmt.Sprintf(format, args...))
}

// WarnAt records a warning diagnostic at the current location with the
// source position of n.
func (c *Context) WarnAt(n *node.Node, format string, args ...any) {
	var pos node.Position
	if n != nil {
		pos = n.Position()
	}
	c.report(c.Pointer(), pos, diag.SeverityWarning, fmt.Sprintf(format, args...))
}

func (c *Context) report(pointer string, pos node.Position, sev diag.Severity, msg string) {
	c.diags.Add(diag.Diagnostic{
		Pointer:  pointer,
		Message:  msg,
		Severity: sev,
		Line:     pos.Line,
		Column:   pos.Column,
		Source:   c.base,
	})
}

// Extension runs the configured extension parser for an "x-" field.
func (c *Context) Extension(key string, n *node.Node) any {
	return c.ext(key, n, c)
}

// NewReference parses a "$ref" string found in a slot of the given kind.
// When parsing a resource fetched into a workspace, the reference is
// qualified with that resource's locator.
func (c *Context) NewReference(raw string, kind model.RefKind) *model.Reference {
	ref := model.ParseRefAs(raw, kind)
	if c.base != "" {
		ref.Resource = pathutil.ResolveLocator(c.base, ref.Resource)
	}
	return ref
}
