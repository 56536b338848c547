package parser

import (
	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
)

var asyncAPI3Specs = newAsyncAPI3Specs()

type asyncAPI3Loader struct{}

func (asyncAPI3Loader) Version() Version { return VersionAsyncAPI3 }

func (asyncAPI3Loader) LoadDocument(root *node.Node, ctx *Context) *model.Document {
	return loadDocument(root, asyncAPI3Specs, ctx)
}

func (asyncAPI3Loader) LoadElement(kind ElementKind, n *node.Node, ctx *Context) (any, error) {
	return loadElement(kind, n, asyncAPI3Specs, ctx)
}

// finishMultiFormatMessage loads the deferred payload, which may be a plain
// schema or a multi format schema object naming its own schemaFormat.
func finishMultiFormatMessage(m *model.Message, _ *node.Node, _ *node.Map, ctx *Context) {
	n, ok := takePayload(m, ctx)
	if !ok {
		return
	}
	defer ctx.Enter(payloadKey)()
	pm, err := n.AsMap()
	if format, isMulti := pm.Get("schemaFormat"); err == nil && isMulti {
		exit := ctx.Enter("schemaFormat")
		if f, ok := asString(format, ctx); ok {
			m.SchemaFormat = f
		}
		exit()
		schema, ok := pm.Get("schema")
		if !ok {
			ctx.report(ctx.PointerFor("schema"), n.Position(), diag.SeverityError, "Missing required field 'schema'")
			return
		}
		defer ctx.Enter("schema")()
		n = schema
	}
	loadPayload(m, n, ctx)
}

// newAsyncAPI3Specs derives the AsyncAPI 3 registries from a fresh copy of
// the AsyncAPI 2 ones.
func newAsyncAPI3Specs() *specSet {
	s := newAsyncAPI2Specs()
	s.version = VersionAsyncAPI3

	s.info = s.info.derive(fields[model.Info]{
		"tags":         tagsField(func(i *model.Info) *[]*model.Tag { return &i.Tags }),
		"externalDocs": externalDocsField(func(i *model.Info) **model.ExternalDocs { return &i.ExternalDocs }),
	}, nil)

	s.server = s.server.derive(fields[model.Server]{
		"url":          nil,
		"host":         stringField(func(sv *model.Server) *string { return &sv.Host }),
		"pathname":     stringField(func(sv *model.Server) *string { return &sv.Pathname }),
		"title":        stringField(func(sv *model.Server) *string { return &sv.Title }),
		"summary":      stringField(func(sv *model.Server) *string { return &sv.Summary }),
		"security":     securitySchemesField(func(sv *model.Server) *[]*model.SecurityScheme { return &sv.SecuritySchemes }),
		"externalDocs": externalDocsField(func(sv *model.Server) **model.ExternalDocs { return &sv.ExternalDocs }),
	}, []string{"host", "protocol"})

	s.parameter = s.parameter.derive(fields[model.Parameter]{
		"schema":   nil,
		"enum":     stringListField(func(p *model.Parameter) *[]string { return &p.Enum }),
		"default":  textField(func(p *model.Parameter) *string { return &p.Default }),
		"examples": stringListField(func(p *model.Parameter) *[]string { return &p.Examples }),
	}, nil)

	s.securityScheme = s.securityScheme.derive(fields[model.SecurityScheme]{
		"scopes": stringListField(func(sc *model.SecurityScheme) *[]string { return &sc.Scopes }),
	}, nil)
	s.oauthFlow = s.oauthFlow.derive(fields[model.OAuthFlow]{
		"scopes":          nil,
		"availableScopes": scopesField,
	}, []string{"availableScopes"})

	s.messageTrait = s.messageTrait.derive(fields[model.MessageTrait]{
		"messageId":    nil,
		"schemaFormat": nil,
	}, nil)
	s.message = s.message.derive(fields[model.Message]{
		"messageId":    nil,
		"schemaFormat": nil,
		"oneOf":        nil,
	}, nil)
	s.message.finish = finishMultiFormatMessage

	s.operationTrait = s.operationTrait.derive(fields[model.OperationTrait]{
		"operationId": nil,
		"title":       stringField(func(t *model.OperationTrait) *string { return &t.Title }),
		"security":    securitySchemesField(func(t *model.OperationTrait) *[]*model.SecurityScheme { return &t.SecuritySchemes }),
	}, nil)

	s.replyAddress = &objectSpec[model.OperationReplyAddress]{
		required:   []string{"location"},
		extensions: func(a *model.OperationReplyAddress) *model.Extensions { return &a.Extensions },
		fields: fields[model.OperationReplyAddress]{
			"location":    stringField(func(a *model.OperationReplyAddress) *string { return &a.Location }),
			"description": stringField(func(a *model.OperationReplyAddress) *string { return &a.Description }),
		},
	}
	s.reply = &objectSpec[model.OperationReply]{
		extensions: func(r *model.OperationReply) *model.Extensions { return &r.Extensions },
		fields: fields[model.OperationReply]{
			"address": func(r *model.OperationReply, n *node.Node, ctx *Context) {
				r.Address = loadRef[model.OperationReplyAddress](n, model.RefKindReplyAddress, ctx.specs.replyAddress, ctx)
			},
			"channel": func(r *model.OperationReply, n *node.Node, ctx *Context) {
				r.Channel = loadRef[model.Channel](n, model.RefKindChannel, ctx.specs.channel, ctx)
			},
			"messages": func(r *model.OperationReply, n *node.Node, ctx *Context) {
				r.Messages = loadRefList[model.Message](n, model.RefKindMessage, ctx.specs.message, ctx)
			},
		},
	}

	s.operation = s.operation.derive(fields[model.Operation]{
		"operationId": nil,
		"message":     nil,
		"action":      stringField(func(o *model.Operation) *string { return &o.Action }),
		"title":       stringField(func(o *model.Operation) *string { return &o.Title }),
		"security":    securitySchemesField(func(o *model.Operation) *[]*model.SecurityScheme { return &o.SecuritySchemes }),
		"channel": func(o *model.Operation, n *node.Node, ctx *Context) {
			o.Channel = loadRef[model.Channel](n, model.RefKindChannel, ctx.specs.channel, ctx)
		},
		"messages": func(o *model.Operation, n *node.Node, ctx *Context) {
			o.Messages = loadRefList[model.Message](n, model.RefKindMessage, ctx.specs.message, ctx)
		},
		"reply": func(o *model.Operation, n *node.Node, ctx *Context) {
			o.Reply = loadRef[model.OperationReply](n, model.RefKindReply, ctx.specs.reply, ctx)
		},
	}, []string{"action", "channel"})

	s.channel = s.channel.derive(fields[model.Channel]{
		"subscribe": nil,
		"publish":   nil,
		"address": func(c *model.Channel, n *node.Node, ctx *Context) {
			if n.IsNull() {
				return
			}
			if addr, ok := asString(n, ctx); ok {
				c.Address = &addr
			}
		},
		"title":        stringField(func(c *model.Channel) *string { return &c.Title }),
		"summary":      stringField(func(c *model.Channel) *string { return &c.Summary }),
		"tags":         tagsField(func(c *model.Channel) *[]*model.Tag { return &c.Tags }),
		"externalDocs": externalDocsField(func(c *model.Channel) **model.ExternalDocs { return &c.ExternalDocs }),
		"servers": func(c *model.Channel, n *node.Node, ctx *Context) {
			c.Servers = loadRefList[model.Server](n, model.RefKindServer, ctx.specs.server, ctx)
		},
		"messages": func(c *model.Channel, n *node.Node, ctx *Context) {
			c.Messages = loadRefMap[model.Message](n, model.RefKindMessage, ctx.specs.message, ctx)
		},
	}, nil)

	s.components = s.components.derive(fields[model.Components]{
		"operations": func(c *model.Components, n *node.Node, ctx *Context) {
			setTable(&c.Operations, loadRefMap[model.Operation](n, model.RefKindOperation, ctx.specs.operation, ctx))
		},
		"replies": func(c *model.Components, n *node.Node, ctx *Context) {
			setTable(&c.Replies, loadRefMap[model.OperationReply](n, model.RefKindReply, ctx.specs.reply, ctx))
		},
		"replyAddresses": func(c *model.Components, n *node.Node, ctx *Context) {
			setTable(&c.ReplyAddresses, loadRefMap[model.OperationReplyAddress](n, model.RefKindReplyAddress, ctx.specs.replyAddress, ctx))
		},
		"externalDocs": func(c *model.Components, n *node.Node, ctx *Context) {
			setTable(&c.ExternalDocs, loadRefMap[model.ExternalDocs](n, model.RefKindExternalDocs, ctx.specs.externalDocs, ctx))
		},
		"tags": func(c *model.Components, n *node.Node, ctx *Context) {
			setTable(&c.Tags, loadRefMap[model.Tag](n, model.RefKindTag, ctx.specs.tag, ctx))
		},
	}, nil)

	s.document = s.document.derive(fields[model.Document]{
		"tags":         nil,
		"externalDocs": nil,
		"operations": func(d *model.Document, n *node.Node, ctx *Context) {
			setTable(&d.Operations, loadRefMap[model.Operation](n, model.RefKindOperation, ctx.specs.operation, ctx))
		},
	}, []string{"asyncapi", "info"})
	return s
}
