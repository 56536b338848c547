package parser

import (
	"maps"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
)

// fieldFunc parses n and assigns the result onto obj.
type fieldFunc[T any] func(obj *T, n *node.Node, ctx *Context)

// fields maps literal field names to their parsers.
type fields[T any] map[string]fieldFunc[T]

// extend copies base and applies overrides. A nil override removes the field.
func extend[T any](base fields[T], overrides fields[T]) fields[T] {
	out := maps.Clone(base)
	for name, f := range overrides {
		if f == nil {
			delete(out, name)
			continue
		}
		out[name] = f
	}
	return out
}

// lift adapts the registry of an embedded fields struct to its outer type.
func lift[T, F any](base fields[F], get func(*T) *F) fields[T] {
	out := make(fields[T], len(base))
	for name, f := range base {
		out[name] = func(obj *T, n *node.Node, ctx *Context) {
			f(get(obj), n, ctx)
		}
	}
	return out
}

// objectSpec describes how one typed object is parsed in one version.
type objectSpec[T any] struct {
	fields     fields[T]
	required   []string
	extensions func(*T) *model.Extensions
	// finish runs after every field has been parsed
	finish func(obj *T, n *node.Node, m *node.Map, ctx *Context)
}

// derive returns a copy of s with its fields extended by overrides and, when
// required is non-nil, a new required list.
func (s *objectSpec[T]) derive(overrides fields[T], required []string) *objectSpec[T] {
	cp := *s
	cp.fields = extend(s.fields, overrides)
	if required != nil {
		cp.required = required
	}
	return &cp
}

// specSet holds the object specs of one version.
type specSet struct {
	version Version

	document       *objectSpec[model.Document]
	info           *objectSpec[model.Info]
	contact        *objectSpec[model.Contact]
	license        *objectSpec[model.License]
	tag            *objectSpec[model.Tag]
	externalDocs   *objectSpec[model.ExternalDocs]
	server         *objectSpec[model.Server]
	serverVariable *objectSpec[model.ServerVariable]
	channel        *objectSpec[model.Channel]
	operation      *objectSpec[model.Operation]
	operationTrait *objectSpec[model.OperationTrait]
	reply          *objectSpec[model.OperationReply]
	replyAddress   *objectSpec[model.OperationReplyAddress]
	message        *objectSpec[model.Message]
	messageTrait   *objectSpec[model.MessageTrait]
	messageExample *objectSpec[model.MessageExample]
	parameter      *objectSpec[model.Parameter]
	securityScheme *objectSpec[model.SecurityScheme]
	oauthFlows     *objectSpec[model.OAuthFlows]
	oauthFlow      *objectSpec[model.OAuthFlow]
	correlationID  *objectSpec[model.CorrelationID]
	components     *objectSpec[model.Components]
	schema         *objectSpec[model.Schema]
}

// loadObject parses the map node n onto obj field by field, in document
// order. It reports false when n is not a map.
func loadObject[T any](obj *T, n *node.Node, spec *objectSpec[T], ctx *Context) bool {
	m, ok := asMap(n, ctx)
	if !ok {
		return false
	}
	for _, e := range m.Entries() {
		if f, ok := spec.fields[e.Key]; ok {
			exit := ctx.Enter(e.Key)
			f(obj, e.Value, ctx)
			exit()
			continue
		}
		if strings.HasPrefix(e.Key, "x-") && spec.extensions != nil {
			exit := ctx.Enter(e.Key)
			ext := spec.extensions(obj)
			if *ext == nil {
				*ext = make(model.Extensions)
			}
			(*ext)[e.Key] = ctx.Extension(e.Key, e.Value)
			exit()
			continue
		}
		ctx.report(ctx.PointerFor(e.Key), e.KeyPos, diag.SeverityError, "Unrecognized field '"+e.Key+"'")
	}
	for _, name := range spec.required {
		if !m.Has(name) {
			ctx.report(ctx.PointerFor(name), n.Position(), diag.SeverityError, "Missing required field '"+name+"'")
		}
	}
	if spec.finish != nil {
		spec.finish(obj, n, m, ctx)
	}
	return true
}

// loadRef parses a referenceable slot: a map with "$ref" becomes a
// placeholder, anything else is parsed inline. It returns nil when n has the
// wrong shape.
func loadRef[T any, PT interface {
	*T
	model.Referenceable
}](n *node.Node, kind model.RefKind, spec *objectSpec[T], ctx *Context) PT {
	if ref, isRef := refOf(n, kind, ctx); isRef {
		if ref == nil {
			return nil
		}
		return model.Placeholder[T, PT](ref)
	}
	return loadOwned[T, PT](n, spec, ctx)
}

// loadOwned parses an inline referenceable element and records where it
// was defined.
func loadOwned[T any, PT interface {
	*T
	model.Referenceable
}](n *node.Node, spec *objectSpec[T], ctx *Context) PT {
	obj := new(T)
	if !loadObject(obj, n, spec, ctx) {
		return nil
	}
	p := PT(obj)
	p.RefInfo().Location = ctx.Pointer()
	return p
}

// refOf reports whether n is a reference object. A non-string "$ref" is
// reported and yields a nil reference.
func refOf(n *node.Node, kind model.RefKind, ctx *Context) (*model.Reference, bool) {
	if n.Kind() != node.KindMap {
		return nil, false
	}
	m, _ := n.AsMap()
	refNode, ok := m.Get("$ref")
	if !ok {
		return nil, false
	}
	defer ctx.Enter("$ref")()
	raw, err := refNode.AsString()
	if err != nil {
		ctx.ErrorAt(refNode, "Invalid $ref: %v", err)
		return nil, true
	}
	return ctx.NewReference(raw, kind), true
}

// loadRefMap parses a map of referenceable slots.
func loadRefMap[T any, PT interface {
	*T
	model.Referenceable
}](n *node.Node, kind model.RefKind, spec *objectSpec[T], ctx *Context) *sequencedmap.Map[string, PT] {
	m, ok := asMap(n, ctx)
	if !ok {
		return nil
	}
	out := sequencedmap.New[string, PT]()
	for _, e := range m.Entries() {
		exit := ctx.Enter(e.Key)
		if v := loadRef[T, PT](e.Value, kind, spec, ctx); v != nil {
			out.Set(e.Key, v)
		}
		exit()
	}
	return out
}

// loadRefList parses a list of referenceable slots.
func loadRefList[T any, PT interface {
	*T
	model.Referenceable
}](n *node.Node, kind model.RefKind, spec *objectSpec[T], ctx *Context) []PT {
	items, ok := asList(n, ctx)
	if !ok {
		return nil
	}
	out := make([]PT, 0, len(items))
	for i, item := range items {
		exit := ctx.EnterIndex(i)
		if v := loadRef[T, PT](item, kind, spec, ctx); v != nil {
			out = append(out, v)
		}
		exit()
	}
	return out
}

// loadObjectPtr parses a non-referenceable object slot.
func loadObjectPtr[T any](n *node.Node, spec *objectSpec[T], ctx *Context) *T {
	obj := new(T)
	if !loadObject(obj, n, spec, ctx) {
		return nil
	}
	return obj
}

// loadBindings parses a bindings object: protocol names map to structural
// values that are kept as-is.
func loadBindings(n *node.Node, kind model.RefKind, ctx *Context) *model.Bindings {
	if ref, isRef := refOf(n, kind, ctx); isRef {
		if ref == nil {
			return nil
		}
		return model.Placeholder[model.Bindings](ref)
	}
	m, ok := asMap(n, ctx)
	if !ok {
		return nil
	}
	b := &model.Bindings{Protocols: sequencedmap.New[string, any]()}
	b.Location = ctx.Pointer()
	for _, e := range m.Entries() {
		exit := ctx.Enter(e.Key)
		if strings.HasPrefix(e.Key, "x-") {
			if b.Extensions == nil {
				b.Extensions = make(model.Extensions)
			}
			b.Extensions[e.Key] = ctx.Extension(e.Key, e.Value)
		} else {
			b.Protocols.Set(e.Key, e.Value.Interface())
		}
		exit()
	}
	return b
}

func asMap(n *node.Node, ctx *Context) (*node.Map, bool) {
	m, err := n.AsMap()
	if err != nil {
		ctx.ErrorAt(n, "Invalid value: %v", err)
		return nil, false
	}
	return m, true
}

func asList(n *node.Node, ctx *Context) ([]*node.Node, bool) {
	items, err := n.AsList()
	if err != nil {
		ctx.ErrorAt(n, "Invalid value: %v", err)
		return nil, false
	}
	return items, true
}

func asString(n *node.Node, ctx *Context) (string, bool) {
	s, err := n.AsString()
	if err != nil {
		ctx.ErrorAt(n, "Invalid value: %v", err)
		return "", false
	}
	return s, true
}

// asText accepts any scalar, so enum values such as 1 or true are kept as text.
func asText(n *node.Node, ctx *Context) (string, bool) {
	s, err := n.AsScalar()
	if err != nil {
		ctx.ErrorAt(n, "Invalid value: %v", err)
		return "", false
	}
	return s, true
}

func asStringList(n *node.Node, ctx *Context) ([]string, bool) {
	items, ok := asList(n, ctx)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		exit := ctx.EnterIndex(i)
		if s, ok := asText(item, ctx); ok {
			out = append(out, s)
		}
		exit()
	}
	return out, true
}

// Field builders shared by every registry.

func stringField[T any](get func(*T) *string) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		if s, ok := asString(n, ctx); ok {
			*get(obj) = s
		}
	}
}

func textField[T any](get func(*T) *string) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		if s, ok := asText(n, ctx); ok {
			*get(obj) = s
		}
	}
}

func stringListField[T any](get func(*T) *[]string) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		if list, ok := asStringList(n, ctx); ok {
			*get(obj) = list
		}
	}
}

func boolField[T any](get func(*T) *bool) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		b, err := n.AsBool()
		if err != nil {
			ctx.ErrorAt(n, "Invalid value: %v", err)
			return
		}
		*get(obj) = b
	}
}

func intField[T any](get func(*T) **int64) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		i, err := n.AsInt()
		if err != nil {
			ctx.ErrorAt(n, "Invalid value: %v", err)
			return
		}
		*get(obj) = &i
	}
}

func floatField[T any](get func(*T) **float64) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		f, err := n.AsFloat()
		if err != nil {
			ctx.ErrorAt(n, "Invalid value: %v", err)
			return
		}
		*get(obj) = &f
	}
}

func anyField[T any](get func(*T) *any) fieldFunc[T] {
	return func(obj *T, n *node.Node, _ *Context) {
		*get(obj) = n.Interface()
	}
}

func anyListField[T any](get func(*T) *[]any) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		items, ok := asList(n, ctx)
		if !ok {
			return
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item.Interface()
		}
		*get(obj) = out
	}
}

func ignoreField[T any](*T, *node.Node, *Context) {}

func tagsField[T any](get func(*T) *[]*model.Tag) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		*get(obj) = loadRefList[model.Tag](n, model.RefKindTag, ctx.specs.tag, ctx)
	}
}

func externalDocsField[T any](get func(*T) **model.ExternalDocs) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		*get(obj) = loadRef[model.ExternalDocs](n, model.RefKindExternalDocs, ctx.specs.externalDocs, ctx)
	}
}

func bindingsField[T any](kind model.RefKind, get func(*T) **model.Bindings) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		*get(obj) = loadBindings(n, kind, ctx)
	}
}

// securityRequirementsField parses the AsyncAPI 2 list of name to scopes maps.
func securityRequirementsField[T any](get func(*T) *[]model.SecurityRequirement) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		items, ok := asList(n, ctx)
		if !ok {
			return
		}
		out := make([]model.SecurityRequirement, 0, len(items))
		for i, item := range items {
			exit := ctx.EnterIndex(i)
			if m, ok := asMap(item, ctx); ok {
				req := make(model.SecurityRequirement, m.Len())
				for _, e := range m.Entries() {
					inner := ctx.Enter(e.Key)
					scopes, _ := asStringList(e.Value, ctx)
					req[e.Key] = scopes
					inner()
				}
				out = append(out, req)
			}
			exit()
		}
		*get(obj) = out
	}
}

// securitySchemesField parses the AsyncAPI 3 list of security scheme references.
func securitySchemesField[T any](get func(*T) *[]*model.SecurityScheme) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		*get(obj) = loadRefList[model.SecurityScheme](n, model.RefKindSecurityScheme, ctx.specs.securityScheme, ctx)
	}
}
