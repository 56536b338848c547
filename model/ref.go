package model

import (
	"strings"

	"github.com/erraggy/apigraph/internal/pathutil"
)

// RefKind identifies which components table a reference points into.
type RefKind int

const (
	RefKindUnknown RefKind = iota
	RefKindSchema
	RefKindMessage
	RefKindParameter
	RefKindSecurityScheme
	RefKindCorrelationID
	RefKindOperationTrait
	RefKindMessageTrait
	RefKindServerBindings
	RefKindChannelBindings
	RefKindOperationBindings
	RefKindMessageBindings
	RefKindTag
	// AsyncAPI 3 kinds
	RefKindServer
	RefKindChannel
	RefKindOperation
	RefKindServerVariable
	RefKindReply
	RefKindReplyAddress
	RefKindExternalDocs
)

var refKindInfo = map[RefKind]struct{ name, table string }{
	RefKindSchema:            {"schema", pathutil.TableSchemas},
	RefKindMessage:           {"message", pathutil.TableMessages},
	RefKindParameter:         {"parameter", pathutil.TableParameters},
	RefKindSecurityScheme:    {"securityScheme", pathutil.TableSecuritySchemes},
	RefKindCorrelationID:     {"correlationId", pathutil.TableCorrelationIDs},
	RefKindOperationTrait:    {"operationTrait", pathutil.TableOperationTraits},
	RefKindMessageTrait:      {"messageTrait", pathutil.TableMessageTraits},
	RefKindServerBindings:    {"serverBindings", pathutil.TableServerBindings},
	RefKindChannelBindings:   {"channelBindings", pathutil.TableChannelBindings},
	RefKindOperationBindings: {"operationBindings", pathutil.TableOperationBindings},
	RefKindMessageBindings:   {"messageBindings", pathutil.TableMessageBindings},
	RefKindTag:               {"tag", pathutil.TableTags},
	RefKindServer:            {"server", pathutil.TableServers},
	RefKindChannel:           {"channel", pathutil.TableChannels},
	RefKindOperation:         {"operation", pathutil.TableOperations},
	RefKindServerVariable:    {"serverVariable", pathutil.TableServerVariables},
	RefKindReply:             {"reply", pathutil.TableReplies},
	RefKindReplyAddress:      {"replyAddress", pathutil.TableReplyAddresses},
	RefKindExternalDocs:      {"externalDocs", pathutil.TableExternalDocs},
}

var tableKinds = func() map[string]RefKind {
	m := make(map[string]RefKind, len(refKindInfo)+1)
	for k, info := range refKindInfo {
		m[info.table] = k
	}
	// server variables are addressed as "variables" under a server
	m["variables"] = RefKindServerVariable
	return m
}()

// String returns the AsyncAPI spelling of the kind, e.g. "correlationId".
func (k RefKind) String() string {
	if info, ok := refKindInfo[k]; ok {
		return info.name
	}
	return "unknown"
}

// Table returns the components table name for the kind.
func (k RefKind) Table() string {
	return refKindInfo[k].table
}

// KindForTable maps a components table name to its kind.
func KindForTable(table string) RefKind {
	return tableKinds[table]
}

// InferKind guesses the kind of the element a fragment addresses from its
// shape, e.g. "#/components/schemas/A" or "#/channels/c/messages/m".
func InferKind(fragment string) RefKind {
	segs := pathutil.Split(fragment)
	kind := RefKindUnknown
	for i := 0; i < len(segs); i++ {
		if kind == RefKindSchema {
			// everything below a schema is a subschema
			break
		}
		seg := segs[i]
		switch seg {
		case "components":
			continue
		case "payload", "headers":
			kind = RefKindSchema
		case "correlationId":
			kind = RefKindCorrelationID
		case "reply":
			kind = RefKindReply
		case "address":
			if kind == RefKindReply {
				kind = RefKindReplyAddress
			} else {
				kind = RefKindUnknown
			}
		case "channel":
			kind = RefKindChannel
		case "bindings":
			kind = bindingsKind(kind)
		case "traits":
			switch kind {
			case RefKindMessage:
				kind = RefKindMessageTrait
			case RefKindOperation:
				kind = RefKindOperationTrait
			default:
				kind = RefKindUnknown
			}
			i++
		default:
			if k, ok := tableKinds[seg]; ok && i+1 < len(segs) {
				kind = k
				i++
				continue
			}
			kind = RefKindUnknown
		}
	}
	return kind
}

func bindingsKind(owner RefKind) RefKind {
	switch owner {
	case RefKindServer:
		return RefKindServerBindings
	case RefKindChannel:
		return RefKindChannelBindings
	case RefKindOperation:
		return RefKindOperationBindings
	case RefKindMessage:
		return RefKindMessageBindings
	}
	return RefKindUnknown
}

// Reference describes the target of a "$ref".
type Reference struct {
	// Kind is the kind of element the reference must resolve to
	Kind RefKind
	// ID is the last fragment segment (the component name for components
	// references), or the resource when there is no fragment
	ID string
	// Resource is the external locator, empty for local references
	Resource string
	// Fragment is the "#/"-rooted pointer part, empty for whole-resource references
	Fragment string
	// Raw is the reference text as written
	Raw string
}

// ParseRef splits raw into resource and fragment and infers the kind from
// the fragment shape.
func ParseRef(raw string) *Reference {
	ref := &Reference{Raw: raw}
	resource, fragment, hasFragment := strings.Cut(raw, "#")
	ref.Resource = resource
	if hasFragment {
		ref.Fragment = "#" + fragment
		if ref.Fragment == "#" {
			ref.Fragment = pathutil.Root
		}
	}
	ref.Kind = InferKind(ref.Fragment)
	if segs := pathutil.Split(ref.Fragment); len(segs) > 0 {
		ref.ID = segs[len(segs)-1]
	} else {
		ref.ID = resource
	}
	return ref
}

// ParseRefAs parses raw and falls back to kind when the fragment shape does
// not identify one.
func ParseRefAs(raw string, kind RefKind) *Reference {
	ref := ParseRef(raw)
	if ref.Kind == RefKindUnknown {
		ref.Kind = kind
	}
	return ref
}

// IsExternal reports whether the reference points into another resource.
func (r *Reference) IsExternal() bool {
	return r.Resource != ""
}

// Path returns the unescaped fragment segments.
func (r *Reference) Path() []string {
	return pathutil.Split(r.Fragment)
}

// IsWholeResource reports whether the reference addresses a resource root.
func (r *Reference) IsWholeResource() bool {
	return len(r.Path()) == 0
}

// ComponentTable returns the table name when the fragment addresses a single
// entry of a components table.
func (r *Reference) ComponentTable() (string, bool) {
	table, _, ok := pathutil.SplitComponentRef(r.Fragment)
	return table, ok
}

// WithResource returns a copy of r pointing into resource.
func (r *Reference) WithResource(resource string) *Reference {
	cp := *r
	cp.Resource = resource
	return &cp
}

// Local returns a copy of r without its resource.
func (r *Reference) Local() *Reference {
	return r.WithResource("")
}

// Key returns a stable identity for the target, usable as a map key.
func (r *Reference) Key() string {
	return r.Kind.String() + "|" + r.Resource + r.Fragment
}

func (r *Reference) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	return r.Resource + r.Fragment
}

// Ref is embedded by every referenceable element.
type Ref struct {
	// Unresolved is set on placeholders built from a "$ref"
	Unresolved bool `key:"-"`
	// Reference describes the "$ref"; always set when Unresolved is
	Reference *Reference `key:"$ref"`
	// Location is the JSON pointer the element was defined at within its
	// resource; empty for placeholders and elements built in code
	Location string `key:"-"`
}

// IsDefinedAt reports whether the element was defined at pointer. Elements
// built in code have no location and are treated as defined wherever they
// are found.
func (r *Ref) IsDefinedAt(pointer string) bool {
	return r.Location == "" || r.Location == pointer
}

// RefInfo gives access to the reference state of an element.
func (r *Ref) RefInfo() *Ref { return r }

// IsUnresolved reports whether the element is still a placeholder.
func (r *Ref) IsUnresolved() bool { return r.Unresolved }

// Referenceable is implemented by every element that may be a placeholder.
type Referenceable interface {
	RefInfo() *Ref
}

// Placeholder builds an unresolved element of type T standing for ref.
// It panics when ref is nil.
func Placeholder[T any, PT interface {
	*T
	Referenceable
}](ref *Reference) PT {
	if ref == nil {
		panic("model: placeholder without a reference")
	}
	p := PT(new(T))
	info := p.RefInfo()
	info.Unresolved = true
	info.Reference = ref
	return p
}

// IsPlaceholder reports whether r is a non-nil unresolved element.
func IsPlaceholder(r Referenceable) bool {
	if r == nil || isNil(r) {
		return false
	}
	return r.RefInfo().Unresolved
}

// KindOf returns the kind of element r. Bindings yield RefKindUnknown since
// their kind depends on the owner.
func KindOf(r Referenceable) RefKind {
	switch r.(type) {
	case *Schema:
		return RefKindSchema
	case *Message:
		return RefKindMessage
	case *MessageTrait:
		return RefKindMessageTrait
	case *Channel:
		return RefKindChannel
	case *Operation:
		return RefKindOperation
	case *OperationTrait:
		return RefKindOperationTrait
	case *OperationReply:
		return RefKindReply
	case *OperationReplyAddress:
		return RefKindReplyAddress
	case *Server:
		return RefKindServer
	case *ServerVariable:
		return RefKindServerVariable
	case *Parameter:
		return RefKindParameter
	case *SecurityScheme:
		return RefKindSecurityScheme
	case *CorrelationID:
		return RefKindCorrelationID
	case *Tag:
		return RefKindTag
	case *ExternalDocs:
		return RefKindExternalDocs
	default:
		return RefKindUnknown
	}
}
