package resolver

import (
	"context"
	"fmt"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/internal/loopguard"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/parser"
	"github.com/erraggy/apigraph/walker"
)

// chainStack is the loop guard stack used while following chained references.
const chainStack = "resolve-chain"

// Mode selects how far references are resolved.
type Mode int

const (
	// ModeNone leaves every reference unresolved.
	ModeNone Mode = iota
	// ModeLocal resolves references into the document itself.
	ModeLocal
	// ModeFull also resolves external references through a workspace.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeLocal:
		return "local"
	case ModeFull:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name as printed by Mode.String.
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{ModeNone, ModeLocal, ModeFull} {
		if m.String() == name {
			return m, nil
		}
	}
	return ModeNone, &apierrors.ConfigError{Option: "mode", Value: name, Message: "expected none, local or full"}
}

// ResourceChecker is implemented by workspaces that can tell whether a
// resource was loaded. It lets the resolver tell a missing component apart
// from a resource that could not be fetched.
type ResourceChecker interface {
	Has(locator string) bool
}

// Resolver is a walker.Visitor replacing placeholders with their targets.
type Resolver struct {
	walker.BaseVisitor

	doc            *model.Document
	workspace      model.Workspace
	external       bool
	reportExternal bool
	diags          *diag.List
	source         string
	logger         parser.Logger
	guard          *loopguard.Guard

	resolved   int
	unresolved int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWorkspace resolves external references through ws.
func WithWorkspace(ws model.Workspace) Option {
	return func(r *Resolver) {
		r.workspace = ws
		r.external = ws != nil
	}
}

// WithReportExternal records an info diagnostic for every external
// reference left unresolved because no workspace is in use.
func WithReportExternal(enabled bool) Option {
	return func(r *Resolver) { r.reportExternal = enabled }
}

// WithDiagnostics appends diagnostics to list instead of a new one.
func WithDiagnostics(list *diag.List) Option {
	return func(r *Resolver) {
		if list != nil {
			r.diags = list
		}
	}
}

// WithSource sets the source recorded on diagnostics. It defaults to the
// document's location.
func WithSource(source string) Option {
	return func(r *Resolver) { r.source = source }
}

// WithLogger sets the logger used for resolution progress.
func WithLogger(l parser.Logger) Option {
	return func(r *Resolver) { r.logger = parser.OrNop(l) }
}

// New returns a resolver for doc. Without WithWorkspace only local
// references are resolved.
func New(doc *model.Document, opts ...Option) *Resolver {
	r := &Resolver{
		doc:    doc,
		diags:  diag.New(),
		logger: parser.NopLogger{},
		guard:  loopguard.New(),
	}
	if doc != nil {
		r.source = doc.Location
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Diagnostics returns the diagnostics recorded so far.
func (r *Resolver) Diagnostics() *diag.List {
	return r.diags
}

// Resolved returns the number of slots that were filled.
func (r *Resolver) Resolved() int {
	return r.resolved
}

// Unresolved returns the number of placeholders left in place.
func (r *Resolver) Unresolved() int {
	return r.unresolved
}

// Run walks the document and resolves every placeholder it finds.
func (r *Resolver) Run(ctx context.Context, opts ...walker.Option) error {
	opts = append([]walker.Option{walker.WithContext(ctx)}, opts...)
	if err := walker.Walk(r.doc, r, opts...); err != nil {
		return err
	}
	r.logger.Debug("resolved references",
		"document", r.doc.Location,
		"resolved", r.resolved,
		"unresolved", r.unresolved)
	return nil
}

// RunElement resolves the placeholders below el, an element defined at
// pointer outside of any document, such as a schema from a fragment file.
// Every reference below el is looked up through the workspace, so New should
// be given an empty document and WithWorkspace.
func (r *Resolver) RunElement(ctx context.Context, el model.Referenceable, pointer string) error {
	return walker.WalkElement(el, pointer, r, walker.WithContext(ctx))
}

// VisitReference implements walker.Visitor.
func (r *Resolver) VisitReference(slot *walker.Slot) walker.Action {
	ref := slot.Reference()
	if ref == nil {
		return walker.Continue
	}
	if r.isExternal(ref) && !r.external {
		r.unresolved++
		if r.reportExternal {
			r.add(slot.Pointer, diag.SeverityInfo, "External reference %s not resolved", ref.Raw)
		}
		return walker.Continue
	}

	target, ok := r.follow(slot, ref)
	if !ok {
		r.unresolved++
		return walker.Continue
	}
	if !kindMatches(slot.Kind, ref.Kind) || !slot.Set(target) {
		r.unresolved++
		r.add(slot.Pointer, diag.SeverityError, "Reference '%s' resolves to a %s, expected a %s",
			ref.Raw, describe(target, ref.Kind), slot.Kind)
		return walker.Continue
	}
	r.resolved++
	return walker.Continue
}

// follow looks ref up, following chains of placeholders to the final target.
func (r *Resolver) follow(slot *walker.Slot, ref *model.Reference) (model.Referenceable, bool) {
	pushed := 0
	defer func() {
		for ; pushed > 0; pushed-- {
			r.guard.Pop(chainStack)
		}
	}()

	cur := ref
	for {
		if !r.guard.Push(chainStack, cur.Key()) {
			r.add(slot.Pointer, diag.SeverityError, "Circular reference %s", ref.Raw)
			return nil, false
		}
		pushed++

		target, ok := r.lookup(slot, cur)
		if !ok {
			return nil, false
		}
		if !model.IsPlaceholder(target) {
			return target, true
		}
		next := target.RefInfo().Reference
		if r.isExternal(next) && !r.external {
			return nil, false
		}
		cur = next
	}
}

func (r *Resolver) lookup(slot *walker.Slot, ref *model.Reference) (model.Referenceable, bool) {
	if !r.isExternal(ref) {
		if target, ok := r.doc.Lookup(ref); ok {
			return target, true
		}
		r.add(slot.Pointer, diag.SeverityError, "Invalid Reference Id %s", ref.ID)
		return nil, false
	}

	if target, ok := r.workspace.Resolve(ref); ok {
		return target, true
	}
	if rc, ok := r.workspace.(ResourceChecker); ok && !rc.Has(ref.Resource) {
		r.add(slot.Pointer, diag.SeverityWarning, "External resource %s is not loaded", ref.Resource)
		return nil, false
	}
	r.add(slot.Pointer, diag.SeverityError, "Invalid Reference Id %s", ref.ID)
	return nil, false
}

// isExternal reports whether ref points outside the document. References
// qualified with the document's own locator are local.
func (r *Resolver) isExternal(ref *model.Reference) bool {
	return ref.IsExternal() && ref.Resource != r.doc.Location
}

func (r *Resolver) add(pointer string, sev diag.Severity, format string, args ...any) {
	r.diags.Add(diag.Diagnostic{
		Pointer:  pointer,
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
		Source:   r.source,
	})
}

// kindMatches reports whether a reference of kind got may fill a slot of
// kind want. Unknown kinds match anything.
func kindMatches(want, got model.RefKind) bool {
	return want == model.RefKindUnknown || got == model.RefKindUnknown || want == got
}

func describe(target model.Referenceable, kind model.RefKind) model.RefKind {
	if k := model.KindOf(target); k != model.RefKindUnknown {
		return k
	}
	return kind
}
