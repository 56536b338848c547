package walker

import (
	"slices"

	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/apigraph/internal/pathutil"
	"github.com/erraggy/apigraph/model"
)

func walkField[T any, PT element[T]](w *Walker, seg string, kind model.RefKind, field *PT, visit func(*Slot, PT) Action, children func(PT)) {
	if *field == nil || w.done() {
		return
	}
	defer w.enter(seg)()
	descend(w, fieldSlot(w.pointer(), kind, field), visit, children)
}

func walkList[T any, PT element[T]](w *Walker, seg string, kind model.RefKind, list []PT, visit func(*Slot, PT) Action, children func(PT)) {
	if len(list) == 0 {
		return
	}
	defer w.enter(seg)()
	for i := range list {
		if w.done() {
			return
		}
		w.path.PushIndex(i)
		descend(w, itemSlot(w.pointer(), kind, list, i), visit, children)
		w.path.Pop()
	}
}

func walkMap[T any, PT element[T]](w *Walker, seg string, kind model.RefKind, m *sequencedmap.Map[string, PT], visit func(*Slot, PT) Action, children func(PT)) {
	if m.Len() == 0 {
		return
	}
	defer w.enter(seg)()
	// visitors may replace entries while we iterate
	for _, key := range slices.Collect(m.Keys()) {
		if w.done() {
			return
		}
		w.path.Push(key)
		descend(w, entrySlot(w.pointer(), kind, m, key), visit, children)
		w.path.Pop()
	}
}

func (w *Walker) walkDocument(doc *model.Document) {
	if w.done() {
		return
	}
	if !w.handleAction(w.v.VisitDocument(doc)) {
		return
	}

	if info := doc.Info; info != nil {
		exit := w.enter("info")
		w.walkTags(info.Tags)
		w.walkExternalDocs(&info.ExternalDocs)
		exit()
	}
	walkMap(w, "servers", model.RefKindServer, doc.Servers, w.v.VisitServer, w.serverChildren)
	walkMap(w, "channels", model.RefKindChannel, doc.Channels, w.v.VisitChannel, w.channelChildren)
	walkMap(w, "operations", model.RefKindOperation, doc.Operations, w.v.VisitOperation, w.operationChildren)
	if w.components && doc.Components != nil {
		w.walkComponents(doc.Components)
	}
	w.walkTags(doc.Tags)
	w.walkExternalDocs(&doc.ExternalDocs)
}

func (w *Walker) walkComponents(c *model.Components) {
	defer w.enter("components")()
	walkMap(w, pathutil.TableSchemas, model.RefKindSchema, c.Schemas, w.v.VisitSchema, w.schemaChildren)
	walkMap(w, pathutil.TableServers, model.RefKindServer, c.Servers, w.v.VisitServer, w.serverChildren)
	walkMap(w, pathutil.TableServerVariables, model.RefKindServerVariable, c.ServerVariables, w.v.VisitServerVariable, nil)
	walkMap(w, pathutil.TableChannels, model.RefKindChannel, c.Channels, w.v.VisitChannel, w.channelChildren)
	walkMap(w, pathutil.TableOperations, model.RefKindOperation, c.Operations, w.v.VisitOperation, w.operationChildren)
	walkMap(w, pathutil.TableMessages, model.RefKindMessage, c.Messages, w.v.VisitMessage, w.messageChildren)
	walkMap(w, pathutil.TableSecuritySchemes, model.RefKindSecurityScheme, c.SecuritySchemes, w.v.VisitSecurityScheme, nil)
	walkMap(w, pathutil.TableParameters, model.RefKindParameter, c.Parameters, w.v.VisitParameter, w.parameterChildren)
	walkMap(w, pathutil.TableCorrelationIDs, model.RefKindCorrelationID, c.CorrelationIDs, w.v.VisitCorrelationID, nil)
	walkMap(w, pathutil.TableReplies, model.RefKindReply, c.Replies, w.v.VisitOperationReply, w.replyChildren)
	walkMap(w, pathutil.TableReplyAddresses, model.RefKindReplyAddress, c.ReplyAddresses, w.v.VisitReplyAddress, nil)
	walkMap(w, pathutil.TableExternalDocs, model.RefKindExternalDocs, c.ExternalDocs, w.v.VisitExternalDocs, nil)
	walkMap(w, pathutil.TableTags, model.RefKindTag, c.Tags, w.v.VisitTag, w.tagChildren)
	walkMap(w, pathutil.TableOperationTraits, model.RefKindOperationTrait, c.OperationTraits, w.v.VisitOperationTrait, w.operationTraitChildren)
	walkMap(w, pathutil.TableMessageTraits, model.RefKindMessageTrait, c.MessageTraits, w.v.VisitMessageTrait, w.messageTraitChildren)
	walkMap(w, pathutil.TableServerBindings, model.RefKindServerBindings, c.ServerBindings, w.v.VisitBindings, nil)
	walkMap(w, pathutil.TableChannelBindings, model.RefKindChannelBindings, c.ChannelBindings, w.v.VisitBindings, nil)
	walkMap(w, pathutil.TableOperationBindings, model.RefKindOperationBindings, c.OperationBindings, w.v.VisitBindings, nil)
	walkMap(w, pathutil.TableMessageBindings, model.RefKindMessageBindings, c.MessageBindings, w.v.VisitBindings, nil)
}

func (w *Walker) walkTags(tags []*model.Tag) {
	walkList(w, "tags", model.RefKindTag, tags, w.v.VisitTag, w.tagChildren)
}

func (w *Walker) walkExternalDocs(field **model.ExternalDocs) {
	walkField(w, "externalDocs", model.RefKindExternalDocs, field, w.v.VisitExternalDocs, nil)
}

func (w *Walker) walkBindings(kind model.RefKind, field **model.Bindings) {
	walkField(w, "bindings", kind, field, w.v.VisitBindings, nil)
}

func (w *Walker) tagChildren(t *model.Tag) {
	w.walkExternalDocs(&t.ExternalDocs)
}

func (w *Walker) serverChildren(s *model.Server) {
	walkMap(w, "variables", model.RefKindServerVariable, s.Variables, w.v.VisitServerVariable, nil)
	walkList(w, "security", model.RefKindSecurityScheme, s.SecuritySchemes, w.v.VisitSecurityScheme, nil)
	w.walkTags(s.Tags)
	w.walkExternalDocs(&s.ExternalDocs)
	w.walkBindings(model.RefKindServerBindings, &s.Bindings)
}

func (w *Walker) channelChildren(c *model.Channel) {
	walkList(w, "servers", model.RefKindServer, c.Servers, w.v.VisitServer, w.serverChildren)
	walkMap(w, "parameters", model.RefKindParameter, c.Parameters, w.v.VisitParameter, w.parameterChildren)
	walkMap(w, "messages", model.RefKindMessage, c.Messages, w.v.VisitMessage, w.messageChildren)
	walkField(w, "subscribe", model.RefKindOperation, &c.Subscribe, w.v.VisitOperation, w.operationChildren)
	walkField(w, "publish", model.RefKindOperation, &c.Publish, w.v.VisitOperation, w.operationChildren)
	w.walkTags(c.Tags)
	w.walkExternalDocs(&c.ExternalDocs)
	w.walkBindings(model.RefKindChannelBindings, &c.Bindings)
}

func (w *Walker) operationFieldsChildren(f *model.OperationFields) {
	walkList(w, "security", model.RefKindSecurityScheme, f.SecuritySchemes, w.v.VisitSecurityScheme, nil)
	w.walkTags(f.Tags)
	w.walkExternalDocs(&f.ExternalDocs)
	w.walkBindings(model.RefKindOperationBindings, &f.Bindings)
}

func (w *Walker) operationChildren(op *model.Operation) {
	walkField(w, "channel", model.RefKindChannel, &op.Channel, w.v.VisitChannel, w.channelChildren)
	walkList(w, "messages", model.RefKindMessage, op.Messages, w.v.VisitMessage, w.messageChildren)
	walkField(w, "message", model.RefKindMessage, &op.Message, w.v.VisitMessage, w.messageChildren)
	walkList(w, "traits", model.RefKindOperationTrait, op.Traits, w.v.VisitOperationTrait, w.operationTraitChildren)
	walkField(w, "reply", model.RefKindReply, &op.Reply, w.v.VisitOperationReply, w.replyChildren)
	w.operationFieldsChildren(&op.OperationFields)
}

func (w *Walker) operationTraitChildren(t *model.OperationTrait) {
	w.operationFieldsChildren(&t.OperationFields)
}

func (w *Walker) replyChildren(r *model.OperationReply) {
	walkField(w, "address", model.RefKindReplyAddress, &r.Address, w.v.VisitReplyAddress, nil)
	walkField(w, "channel", model.RefKindChannel, &r.Channel, w.v.VisitChannel, w.channelChildren)
	walkList(w, "messages", model.RefKindMessage, r.Messages, w.v.VisitMessage, w.messageChildren)
}

func (w *Walker) messageFieldsChildren(f *model.MessageFields) {
	walkField(w, "headers", model.RefKindSchema, &f.Headers, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "correlationId", model.RefKindCorrelationID, &f.CorrelationID, w.v.VisitCorrelationID, nil)
	w.walkTags(f.Tags)
	w.walkExternalDocs(&f.ExternalDocs)
	w.walkBindings(model.RefKindMessageBindings, &f.Bindings)
}

func (w *Walker) messageChildren(m *model.Message) {
	walkField(w, "payload", model.RefKindSchema, &m.Payload, w.v.VisitSchema, w.schemaChildren)
	walkList(w, "traits", model.RefKindMessageTrait, m.Traits, w.v.VisitMessageTrait, w.messageTraitChildren)
	walkList(w, "oneOf", model.RefKindMessage, m.OneOf, w.v.VisitMessage, w.messageChildren)
	w.messageFieldsChildren(&m.MessageFields)
}

func (w *Walker) messageTraitChildren(t *model.MessageTrait) {
	w.messageFieldsChildren(&t.MessageFields)
}

func (w *Walker) parameterChildren(p *model.Parameter) {
	walkField(w, "schema", model.RefKindSchema, &p.Schema, w.v.VisitSchema, w.schemaChildren)
}

func (w *Walker) schemaChildren(s *model.Schema) {
	walkMap(w, "properties", model.RefKindSchema, s.Properties, w.v.VisitSchema, w.schemaChildren)
	walkMap(w, "patternProperties", model.RefKindSchema, s.PatternProperties, w.v.VisitSchema, w.schemaChildren)
	walkMap(w, "definitions", model.RefKindSchema, s.Definitions, w.v.VisitSchema, w.schemaChildren)
	walkMap(w, "dependencies", model.RefKindSchema, s.Dependencies, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "additionalProperties", model.RefKindSchema, &s.AdditionalProperties, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "items", model.RefKindSchema, &s.Items, w.v.VisitSchema, w.schemaChildren)
	walkList(w, "items", model.RefKindSchema, s.ItemsTuple, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "additionalItems", model.RefKindSchema, &s.AdditionalItems, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "contains", model.RefKindSchema, &s.Contains, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "propertyNames", model.RefKindSchema, &s.PropertyNames, w.v.VisitSchema, w.schemaChildren)
	walkList(w, "allOf", model.RefKindSchema, s.AllOf, w.v.VisitSchema, w.schemaChildren)
	walkList(w, "anyOf", model.RefKindSchema, s.AnyOf, w.v.VisitSchema, w.schemaChildren)
	walkList(w, "oneOf", model.RefKindSchema, s.OneOf, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "not", model.RefKindSchema, &s.Not, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "if", model.RefKindSchema, &s.If, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "then", model.RefKindSchema, &s.Then, w.v.VisitSchema, w.schemaChildren)
	walkField(w, "else", model.RefKindSchema, &s.Else, w.v.VisitSchema, w.schemaChildren)
	w.walkExternalDocs(&s.ExternalDocs)
}
