package parser

import (
	"fmt"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
)

func loadDocument(root *node.Node, specs *specSet, ctx *Context) *model.Document {
	ctx.specs = specs
	doc := model.NewDocument(specs.version)
	doc.Location = ctx.base
	loadObject(doc, root, specs.document, ctx)
	return doc
}

// loadElement parses a single element of the given kind. A reference object
// yields a placeholder. Shape problems are recorded on ctx and also returned
// as a *apierrors.ShapeError because the caller has nothing else to return.
func loadElement(kind ElementKind, n *node.Node, specs *specSet, ctx *Context) (any, error) {
	ctx.specs = specs
	var v any
	switch kind {
	case model.RefKindSchema:
		v = element(loadSchema(n, ctx))
	case model.RefKindMessage:
		v = element(loadRef[model.Message](n, kind, specs.message, ctx))
	case model.RefKindMessageTrait:
		v = element(loadRef[model.MessageTrait](n, kind, specs.messageTrait, ctx))
	case model.RefKindOperation:
		v = element(loadRef[model.Operation](n, kind, specs.operation, ctx))
	case model.RefKindOperationTrait:
		v = element(loadRef[model.OperationTrait](n, kind, specs.operationTrait, ctx))
	case model.RefKindChannel:
		v = element(loadRef[model.Channel](n, kind, specs.channel, ctx))
	case model.RefKindServer:
		v = element(loadRef[model.Server](n, kind, specs.server, ctx))
	case model.RefKindServerVariable:
		v = element(loadRef[model.ServerVariable](n, kind, specs.serverVariable, ctx))
	case model.RefKindParameter:
		v = element(loadRef[model.Parameter](n, kind, specs.parameter, ctx))
	case model.RefKindSecurityScheme:
		v = element(loadRef[model.SecurityScheme](n, kind, specs.securityScheme, ctx))
	case model.RefKindCorrelationID:
		v = element(loadRef[model.CorrelationID](n, kind, specs.correlationID, ctx))
	case model.RefKindTag:
		v = element(loadRef[model.Tag](n, kind, specs.tag, ctx))
	case model.RefKindExternalDocs:
		v = element(loadRef[model.ExternalDocs](n, kind, specs.externalDocs, ctx))
	case model.RefKindServerBindings, model.RefKindChannelBindings,
		model.RefKindOperationBindings, model.RefKindMessageBindings:
		v = element(loadBindings(n, kind, ctx))
	case model.RefKindReply:
		if specs.reply == nil {
			return nil, unsupportedElement(kind, ctx)
		}
		v = element(loadRef[model.OperationReply](n, kind, specs.reply, ctx))
	case model.RefKindReplyAddress:
		if specs.replyAddress == nil {
			return nil, unsupportedElement(kind, ctx)
		}
		v = element(loadRef[model.OperationReplyAddress](n, kind, specs.replyAddress, ctx))
	default:
		return nil, unsupportedElement(kind, ctx)
	}
	if v == nil {
		pos := n.Position()
		return nil, &apierrors.ShapeError{Expected: "map", Actual: n.Kind().String(), Line: pos.Line, Column: pos.Column}
	}
	return v, nil
}

// element converts a typed pointer to any, keeping nil untyped.
func element[PT interface{ *T }, T any](p PT) any {
	if p == nil {
		return nil
	}
	return p
}

func unsupportedElement(kind ElementKind, ctx *Context) error {
	return &apierrors.ConfigError{
		Option:  "kind",
		Value:   kind.String(),
		Message: fmt.Sprintf("element kind not supported by %s", ctx.specs.version),
	}
}
