package parser

import (
	"slices"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/internal/pathutil"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
)

// asyncAPI2Specs is shared by every AsyncAPI 2 parse; specs are never
// mutated after construction.
var asyncAPI2Specs = newAsyncAPI2Specs()

type asyncAPI2Loader struct{}

func (asyncAPI2Loader) Version() Version { return VersionAsyncAPI2 }

func (asyncAPI2Loader) LoadDocument(root *node.Node, ctx *Context) *model.Document {
	return loadDocument(root, asyncAPI2Specs, ctx)
}

func (asyncAPI2Loader) LoadElement(kind ElementKind, n *node.Node, ctx *Context) (any, error) {
	return loadElement(kind, n, asyncAPI2Specs, ctx)
}

// isJSONSchemaFormat reports whether payloads in format are parsed as schemas.
func isJSONSchemaFormat(format string) bool {
	format = strings.ToLower(format)
	return format == "" ||
		strings.HasPrefix(format, "application/vnd.aai.asyncapi") ||
		strings.HasPrefix(format, "application/schema+json") ||
		strings.HasPrefix(format, "application/schema+yaml")
}

const payloadKey = "payload"

// deferPayload stores the payload node until the schemaFormat sibling, which
// may appear later in the map, is known.
func deferPayload(m *model.Message, n *node.Node, ctx *Context) {
	ctx.SetScopedTemp(m, payloadKey, n)
}

// finishMessage loads the deferred payload. An AsyncAPI 2 message must carry
// a payload unless it is a oneOf container or takes its fields from traits.
func finishMessage(m *model.Message, n *node.Node, obj *node.Map, ctx *Context) {
	payload, ok := takePayload(m, ctx)
	if !ok {
		if !obj.Has("oneOf") && !obj.Has("traits") {
			ctx.report(ctx.PointerFor(payloadKey), n.Position(), diag.SeverityError, "Missing required field '"+payloadKey+"'")
		}
		return
	}
	defer ctx.Enter(payloadKey)()
	loadPayload(m, payload, ctx)
}

// finishChannel warns about channel parameters that the channel name never
// uses. Component channels are skipped since their key is not a name.
func finishChannel(_ *model.Channel, _ *node.Node, obj *node.Map, ctx *Context) {
	segs := pathutil.Split(ctx.Pointer())
	if len(segs) != 2 || segs[0] != pathutil.TableChannels {
		return
	}
	params, ok := obj.Get("parameters")
	if !ok {
		return
	}
	pm, err := params.AsMap()
	if err != nil {
		return
	}
	used := pathutil.ChannelParams(segs[1])
	defer ctx.Enter("parameters")()
	for _, e := range pm.Entries() {
		if slices.Contains(used, e.Key) {
			continue
		}
		exit := ctx.Enter(e.Key)
		ctx.WarnAt(e.Value, "Parameter '%s' is not used in channel name '%s'", e.Key, segs[1])
		exit()
	}
}

func takePayload(m *model.Message, ctx *Context) (*node.Node, bool) {
	v, ok := ctx.ScopedTemp(m, payloadKey)
	ctx.ClearScope(m)
	if !ok {
		return nil, false
	}
	return v.(*node.Node), true
}

func loadPayload(m *model.Message, n *node.Node, ctx *Context) {
	if isJSONSchemaFormat(m.SchemaFormat) {
		m.Payload = loadSchema(n, ctx)
		return
	}
	m.PayloadRaw = n.Interface()
}

func newAsyncAPI2Specs() *specSet {
	s := &specSet{version: VersionAsyncAPI2, schema: newSchemaSpec()}

	s.contact = &objectSpec[model.Contact]{
		extensions: func(c *model.Contact) *model.Extensions { return &c.Extensions },
		fields: fields[model.Contact]{
			"name":  stringField(func(c *model.Contact) *string { return &c.Name }),
			"url":   stringField(func(c *model.Contact) *string { return &c.URL }),
			"email": stringField(func(c *model.Contact) *string { return &c.Email }),
		},
	}
	s.license = &objectSpec[model.License]{
		required:   []string{"name"},
		extensions: func(l *model.License) *model.Extensions { return &l.Extensions },
		fields: fields[model.License]{
			"name": stringField(func(l *model.License) *string { return &l.Name }),
			"url":  stringField(func(l *model.License) *string { return &l.URL }),
		},
	}
	s.externalDocs = &objectSpec[model.ExternalDocs]{
		required:   []string{"url"},
		extensions: func(d *model.ExternalDocs) *model.Extensions { return &d.Extensions },
		fields: fields[model.ExternalDocs]{
			"description": stringField(func(d *model.ExternalDocs) *string { return &d.Description }),
			"url":         stringField(func(d *model.ExternalDocs) *string { return &d.URL }),
		},
	}
	s.tag = &objectSpec[model.Tag]{
		required:   []string{"name"},
		extensions: func(t *model.Tag) *model.Extensions { return &t.Extensions },
		fields: fields[model.Tag]{
			"name":         stringField(func(t *model.Tag) *string { return &t.Name }),
			"description":  stringField(func(t *model.Tag) *string { return &t.Description }),
			"externalDocs": externalDocsField(func(t *model.Tag) **model.ExternalDocs { return &t.ExternalDocs }),
		},
	}
	s.info = &objectSpec[model.Info]{
		required:   []string{"title", "version"},
		extensions: func(i *model.Info) *model.Extensions { return &i.Extensions },
		fields: fields[model.Info]{
			"title":          stringField(func(i *model.Info) *string { return &i.Title }),
			"version":        textField(func(i *model.Info) *string { return &i.Version }),
			"description":    stringField(func(i *model.Info) *string { return &i.Description }),
			"termsOfService": stringField(func(i *model.Info) *string { return &i.TermsOfService }),
			"contact": func(i *model.Info, n *node.Node, ctx *Context) {
				i.Contact = loadObjectPtr(n, ctx.specs.contact, ctx)
			},
			"license": func(i *model.Info, n *node.Node, ctx *Context) {
				i.License = loadObjectPtr(n, ctx.specs.license, ctx)
			},
		},
	}

	s.serverVariable = &objectSpec[model.ServerVariable]{
		extensions: func(v *model.ServerVariable) *model.Extensions { return &v.Extensions },
		fields: fields[model.ServerVariable]{
			"enum":        stringListField(func(v *model.ServerVariable) *[]string { return &v.Enum }),
			"default":     textField(func(v *model.ServerVariable) *string { return &v.Default }),
			"description": stringField(func(v *model.ServerVariable) *string { return &v.Description }),
			"examples":    stringListField(func(v *model.ServerVariable) *[]string { return &v.Examples }),
		},
	}
	s.server = &objectSpec[model.Server]{
		required:   []string{"url", "protocol"},
		extensions: func(sv *model.Server) *model.Extensions { return &sv.Extensions },
		fields: fields[model.Server]{
			"url":             stringField(func(sv *model.Server) *string { return &sv.URL }),
			"protocol":        stringField(func(sv *model.Server) *string { return &sv.Protocol }),
			"protocolVersion": textField(func(sv *model.Server) *string { return &sv.ProtocolVersion }),
			"description":     stringField(func(sv *model.Server) *string { return &sv.Description }),
			"variables": func(sv *model.Server, n *node.Node, ctx *Context) {
				sv.Variables = loadRefMap[model.ServerVariable](n, model.RefKindServerVariable, ctx.specs.serverVariable, ctx)
			},
			"security": securityRequirementsField(func(sv *model.Server) *[]model.SecurityRequirement { return &sv.Security }),
			"tags":     tagsField(func(sv *model.Server) *[]*model.Tag { return &sv.Tags }),
			"bindings": bindingsField(model.RefKindServerBindings, func(sv *model.Server) **model.Bindings { return &sv.Bindings }),
		},
	}

	s.parameter = &objectSpec[model.Parameter]{
		extensions: func(p *model.Parameter) *model.Extensions { return &p.Extensions },
		fields: fields[model.Parameter]{
			"description": stringField(func(p *model.Parameter) *string { return &p.Description }),
			"schema":      schemaField(func(p *model.Parameter) **model.Schema { return &p.Schema }),
			"location":    stringField(func(p *model.Parameter) *string { return &p.Location }),
		},
	}
	s.correlationID = &objectSpec[model.CorrelationID]{
		required:   []string{"location"},
		extensions: func(c *model.CorrelationID) *model.Extensions { return &c.Extensions },
		fields: fields[model.CorrelationID]{
			"description": stringField(func(c *model.CorrelationID) *string { return &c.Description }),
			"location":    stringField(func(c *model.CorrelationID) *string { return &c.Location }),
		},
	}

	s.oauthFlow = &objectSpec[model.OAuthFlow]{
		required:   []string{"scopes"},
		extensions: func(f *model.OAuthFlow) *model.Extensions { return &f.Extensions },
		fields: fields[model.OAuthFlow]{
			"authorizationUrl": stringField(func(f *model.OAuthFlow) *string { return &f.AuthorizationURL }),
			"tokenUrl":         stringField(func(f *model.OAuthFlow) *string { return &f.TokenURL }),
			"refreshUrl":       stringField(func(f *model.OAuthFlow) *string { return &f.RefreshURL }),
			"scopes":           scopesField,
		},
	}
	s.oauthFlows = &objectSpec[model.OAuthFlows]{
		extensions: func(f *model.OAuthFlows) *model.Extensions { return &f.Extensions },
		fields: fields[model.OAuthFlows]{
			"implicit":          oauthFlowField(func(f *model.OAuthFlows) **model.OAuthFlow { return &f.Implicit }),
			"password":          oauthFlowField(func(f *model.OAuthFlows) **model.OAuthFlow { return &f.Password }),
			"clientCredentials": oauthFlowField(func(f *model.OAuthFlows) **model.OAuthFlow { return &f.ClientCredentials }),
			"authorizationCode": oauthFlowField(func(f *model.OAuthFlows) **model.OAuthFlow { return &f.AuthorizationCode }),
		},
	}
	s.securityScheme = &objectSpec[model.SecurityScheme]{
		required:   []string{"type"},
		extensions: func(sc *model.SecurityScheme) *model.Extensions { return &sc.Extensions },
		fields: fields[model.SecurityScheme]{
			"type":             stringField(func(sc *model.SecurityScheme) *string { return &sc.Type }),
			"description":      stringField(func(sc *model.SecurityScheme) *string { return &sc.Description }),
			"name":             stringField(func(sc *model.SecurityScheme) *string { return &sc.Name }),
			"in":               stringField(func(sc *model.SecurityScheme) *string { return &sc.In }),
			"scheme":           stringField(func(sc *model.SecurityScheme) *string { return &sc.Scheme }),
			"bearerFormat":     stringField(func(sc *model.SecurityScheme) *string { return &sc.BearerFormat }),
			"openIdConnectUrl": stringField(func(sc *model.SecurityScheme) *string { return &sc.OpenIDConnectURL }),
			"flows": func(sc *model.SecurityScheme, n *node.Node, ctx *Context) {
				sc.Flows = loadObjectPtr(n, ctx.specs.oauthFlows, ctx)
			},
		},
	}

	s.messageExample = &objectSpec[model.MessageExample]{
		extensions: func(e *model.MessageExample) *model.Extensions { return &e.Extensions },
		fields: fields[model.MessageExample]{
			"headers": func(e *model.MessageExample, n *node.Node, ctx *Context) {
				if _, ok := asMap(n, ctx); ok {
					e.Headers, _ = n.Interface().(map[string]any)
				}
			},
			"payload": anyField(func(e *model.MessageExample) *any { return &e.Payload }),
			"name":    stringField(func(e *model.MessageExample) *string { return &e.Name }),
			"summary": stringField(func(e *model.MessageExample) *string { return &e.Summary }),
		},
	}

	type MF = model.MessageFields
	messageFields := fields[MF]{
		"messageId":    stringField(func(m *MF) *string { return &m.MessageID }),
		"headers":      schemaField(func(m *MF) **model.Schema { return &m.Headers }),
		"schemaFormat": stringField(func(m *MF) *string { return &m.SchemaFormat }),
		"contentType":  stringField(func(m *MF) *string { return &m.ContentType }),
		"name":         stringField(func(m *MF) *string { return &m.Name }),
		"title":        stringField(func(m *MF) *string { return &m.Title }),
		"summary":      stringField(func(m *MF) *string { return &m.Summary }),
		"description":  stringField(func(m *MF) *string { return &m.Description }),
		"tags":         tagsField(func(m *MF) *[]*model.Tag { return &m.Tags }),
		"externalDocs": externalDocsField(func(m *MF) **model.ExternalDocs { return &m.ExternalDocs }),
		"bindings":     bindingsField(model.RefKindMessageBindings, func(m *MF) **model.Bindings { return &m.Bindings }),
		"correlationId": func(m *MF, n *node.Node, ctx *Context) {
			m.CorrelationID = loadRef[model.CorrelationID](n, model.RefKindCorrelationID, ctx.specs.correlationID, ctx)
		},
		"examples": func(m *MF, n *node.Node, ctx *Context) {
			items, ok := asList(n, ctx)
			if !ok {
				return
			}
			for i, item := range items {
				exit := ctx.EnterIndex(i)
				if ex := loadObjectPtr(item, ctx.specs.messageExample, ctx); ex != nil {
					m.Examples = append(m.Examples, ex)
				}
				exit()
			}
		},
	}
	s.messageTrait = &objectSpec[model.MessageTrait]{
		extensions: func(t *model.MessageTrait) *model.Extensions { return &t.Extensions },
		fields:     lift(messageFields, func(t *model.MessageTrait) *MF { return &t.MessageFields }),
	}
	s.message = &objectSpec[model.Message]{
		extensions: func(m *model.Message) *model.Extensions { return &m.Extensions },
		fields: extend(lift(messageFields, func(m *model.Message) *MF { return &m.MessageFields }), fields[model.Message]{
			"payload": deferPayload,
			"traits": func(m *model.Message, n *node.Node, ctx *Context) {
				m.Traits = loadRefList[model.MessageTrait](n, model.RefKindMessageTrait, ctx.specs.messageTrait, ctx)
			},
			"oneOf": func(m *model.Message, n *node.Node, ctx *Context) {
				m.OneOf = loadRefList[model.Message](n, model.RefKindMessage, ctx.specs.message, ctx)
			},
		}),
		finish: finishMessage,
	}

	type OF = model.OperationFields
	operationFields := fields[OF]{
		"operationId":  stringField(func(o *OF) *string { return &o.OperationID }),
		"summary":      stringField(func(o *OF) *string { return &o.Summary }),
		"description":  stringField(func(o *OF) *string { return &o.Description }),
		"security":     securityRequirementsField(func(o *OF) *[]model.SecurityRequirement { return &o.Security }),
		"tags":         tagsField(func(o *OF) *[]*model.Tag { return &o.Tags }),
		"externalDocs": externalDocsField(func(o *OF) **model.ExternalDocs { return &o.ExternalDocs }),
		"bindings":     bindingsField(model.RefKindOperationBindings, func(o *OF) **model.Bindings { return &o.Bindings }),
	}
	s.operationTrait = &objectSpec[model.OperationTrait]{
		extensions: func(t *model.OperationTrait) *model.Extensions { return &t.Extensions },
		fields:     lift(operationFields, func(t *model.OperationTrait) *OF { return &t.OperationFields }),
	}
	s.operation = &objectSpec[model.Operation]{
		extensions: func(o *model.Operation) *model.Extensions { return &o.Extensions },
		fields: extend(lift(operationFields, func(o *model.Operation) *OF { return &o.OperationFields }), fields[model.Operation]{
			"traits": func(o *model.Operation, n *node.Node, ctx *Context) {
				o.Traits = loadRefList[model.OperationTrait](n, model.RefKindOperationTrait, ctx.specs.operationTrait, ctx)
			},
			"message": func(o *model.Operation, n *node.Node, ctx *Context) {
				o.Message = loadRef[model.Message](n, model.RefKindMessage, ctx.specs.message, ctx)
			},
		}),
	}

	s.channel = &objectSpec[model.Channel]{
		extensions: func(c *model.Channel) *model.Extensions { return &c.Extensions },
		finish:     finishChannel,
		fields: fields[model.Channel]{
			"description": stringField(func(c *model.Channel) *string { return &c.Description }),
			"servers":     stringListField(func(c *model.Channel) *[]string { return &c.ServerNames }),
			"subscribe": func(c *model.Channel, n *node.Node, ctx *Context) {
				c.Subscribe = loadOwned[model.Operation](n, ctx.specs.operation, ctx)
			},
			"publish": func(c *model.Channel, n *node.Node, ctx *Context) {
				c.Publish = loadOwned[model.Operation](n, ctx.specs.operation, ctx)
			},
			"parameters": func(c *model.Channel, n *node.Node, ctx *Context) {
				c.Parameters = loadRefMap[model.Parameter](n, model.RefKindParameter, ctx.specs.parameter, ctx)
			},
			"bindings": bindingsField(model.RefKindChannelBindings, func(c *model.Channel) **model.Bindings { return &c.Bindings }),
		},
	}

	s.components = &objectSpec[model.Components]{
		extensions: func(c *model.Components) *model.Extensions { return &c.Extensions },
		fields: fields[model.Components]{
			"schemas": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.Schemas, loadSchemaMap(n, ctx))
			},
			"servers": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.Servers, loadRefMap[model.Server](n, model.RefKindServer, ctx.specs.server, ctx))
			},
			"serverVariables": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.ServerVariables, loadRefMap[model.ServerVariable](n, model.RefKindServerVariable, ctx.specs.serverVariable, ctx))
			},
			"channels": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.Channels, loadRefMap[model.Channel](n, model.RefKindChannel, ctx.specs.channel, ctx))
			},
			"messages": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.Messages, loadRefMap[model.Message](n, model.RefKindMessage, ctx.specs.message, ctx))
			},
			"securitySchemes": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.SecuritySchemes, loadRefMap[model.SecurityScheme](n, model.RefKindSecurityScheme, ctx.specs.securityScheme, ctx))
			},
			"parameters": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.Parameters, loadRefMap[model.Parameter](n, model.RefKindParameter, ctx.specs.parameter, ctx))
			},
			"correlationIds": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.CorrelationIDs, loadRefMap[model.CorrelationID](n, model.RefKindCorrelationID, ctx.specs.correlationID, ctx))
			},
			"operationTraits": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.OperationTraits, loadRefMap[model.OperationTrait](n, model.RefKindOperationTrait, ctx.specs.operationTrait, ctx))
			},
			"messageTraits": func(c *model.Components, n *node.Node, ctx *Context) {
				setTable(&c.MessageTraits, loadRefMap[model.MessageTrait](n, model.RefKindMessageTrait, ctx.specs.messageTrait, ctx))
			},
			"serverBindings":    bindingsTableField(model.RefKindServerBindings, func(c *model.Components) **sequencedmap.Map[string, *model.Bindings] { return &c.ServerBindings }),
			"channelBindings":   bindingsTableField(model.RefKindChannelBindings, func(c *model.Components) **sequencedmap.Map[string, *model.Bindings] { return &c.ChannelBindings }),
			"operationBindings": bindingsTableField(model.RefKindOperationBindings, func(c *model.Components) **sequencedmap.Map[string, *model.Bindings] { return &c.OperationBindings }),
			"messageBindings":   bindingsTableField(model.RefKindMessageBindings, func(c *model.Components) **sequencedmap.Map[string, *model.Bindings] { return &c.MessageBindings }),
		},
	}

	s.document = &objectSpec[model.Document]{
		required:   []string{"asyncapi", "info", "channels"},
		extensions: func(d *model.Document) *model.Extensions { return &d.Extensions },
		fields: fields[model.Document]{
			"asyncapi":           textField(func(d *model.Document) *string { return &d.AsyncAPI }),
			"id":                 stringField(func(d *model.Document) *string { return &d.ID }),
			"defaultContentType": stringField(func(d *model.Document) *string { return &d.DefaultContentType }),
			"info": func(d *model.Document, n *node.Node, ctx *Context) {
				d.Info = loadObjectPtr(n, ctx.specs.info, ctx)
			},
			"servers": func(d *model.Document, n *node.Node, ctx *Context) {
				setTable(&d.Servers, loadRefMap[model.Server](n, model.RefKindServer, ctx.specs.server, ctx))
			},
			"channels": func(d *model.Document, n *node.Node, ctx *Context) {
				setTable(&d.Channels, loadRefMap[model.Channel](n, model.RefKindChannel, ctx.specs.channel, ctx))
			},
			"components": func(d *model.Document, n *node.Node, ctx *Context) {
				c := model.NewComponents()
				if loadObject(c, n, ctx.specs.components, ctx) {
					d.Components = c
				}
			},
			"tags": func(d *model.Document, n *node.Node, ctx *Context) {
				d.Tags = loadRefList[model.Tag](n, model.RefKindTag, ctx.specs.tag, ctx)
			},
			"externalDocs": externalDocsField(func(d *model.Document) **model.ExternalDocs { return &d.ExternalDocs }),
		},
	}
	return s
}

// setTable replaces an allocated table only when loading produced one.
func setTable[V any](dst **sequencedmap.Map[string, V], m *sequencedmap.Map[string, V]) {
	if m != nil {
		*dst = m
	}
}

func bindingsTableField(kind model.RefKind, get func(*model.Components) **sequencedmap.Map[string, *model.Bindings]) fieldFunc[model.Components] {
	return func(c *model.Components, n *node.Node, ctx *Context) {
		m, ok := asMap(n, ctx)
		if !ok {
			return
		}
		out := sequencedmap.New[string, *model.Bindings]()
		for _, e := range m.Entries() {
			exit := ctx.Enter(e.Key)
			if b := loadBindings(e.Value, kind, ctx); b != nil {
				out.Set(e.Key, b)
			}
			exit()
		}
		*get(c) = out
	}
}

func oauthFlowField(get func(*model.OAuthFlows) **model.OAuthFlow) fieldFunc[model.OAuthFlows] {
	return func(f *model.OAuthFlows, n *node.Node, ctx *Context) {
		*get(f) = loadObjectPtr(n, ctx.specs.oauthFlow, ctx)
	}
}

func scopesField(f *model.OAuthFlow, n *node.Node, ctx *Context) {
	m, ok := asMap(n, ctx)
	if !ok {
		return
	}
	f.Scopes = sequencedmap.New[string, string]()
	for _, e := range m.Entries() {
		exit := ctx.Enter(e.Key)
		if desc, ok := asText(e.Value, ctx); ok {
			f.Scopes.Set(e.Key, desc)
		}
		exit()
	}
}
