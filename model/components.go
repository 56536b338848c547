package model

import "github.com/speakeasy-api/openapi/sequencedmap"

// Components holds the reusable elements of a document, one ordered table
// per reference kind.
type Components struct {
	Schemas           *sequencedmap.Map[string, *Schema]                `key:"schemas"`
	Servers           *sequencedmap.Map[string, *Server]                `key:"servers"`
	ServerVariables   *sequencedmap.Map[string, *ServerVariable]        `key:"serverVariables"`
	Channels          *sequencedmap.Map[string, *Channel]               `key:"channels"`
	Operations        *sequencedmap.Map[string, *Operation]             `key:"operations"`
	Messages          *sequencedmap.Map[string, *Message]               `key:"messages"`
	SecuritySchemes   *sequencedmap.Map[string, *SecurityScheme]        `key:"securitySchemes"`
	Parameters        *sequencedmap.Map[string, *Parameter]             `key:"parameters"`
	CorrelationIDs    *sequencedmap.Map[string, *CorrelationID]         `key:"correlationIds"`
	Replies           *sequencedmap.Map[string, *OperationReply]        `key:"replies"`
	ReplyAddresses    *sequencedmap.Map[string, *OperationReplyAddress] `key:"replyAddresses"`
	ExternalDocs      *sequencedmap.Map[string, *ExternalDocs]          `key:"externalDocs"`
	Tags              *sequencedmap.Map[string, *Tag]                   `key:"tags"`
	OperationTraits   *sequencedmap.Map[string, *OperationTrait]        `key:"operationTraits"`
	MessageTraits     *sequencedmap.Map[string, *MessageTrait]          `key:"messageTraits"`
	ServerBindings    *sequencedmap.Map[string, *Bindings]              `key:"serverBindings"`
	ChannelBindings   *sequencedmap.Map[string, *Bindings]              `key:"channelBindings"`
	OperationBindings *sequencedmap.Map[string, *Bindings]              `key:"operationBindings"`
	MessageBindings   *sequencedmap.Map[string, *Bindings]              `key:"messageBindings"`
	Extensions        Extensions                                        `key:"-"`
}

// NewComponents returns components with every table allocated.
func NewComponents() *Components {
	return &Components{
		Schemas:           sequencedmap.New[string, *Schema](),
		Servers:           sequencedmap.New[string, *Server](),
		ServerVariables:   sequencedmap.New[string, *ServerVariable](),
		Channels:          sequencedmap.New[string, *Channel](),
		Operations:        sequencedmap.New[string, *Operation](),
		Messages:          sequencedmap.New[string, *Message](),
		SecuritySchemes:   sequencedmap.New[string, *SecurityScheme](),
		Parameters:        sequencedmap.New[string, *Parameter](),
		CorrelationIDs:    sequencedmap.New[string, *CorrelationID](),
		Replies:           sequencedmap.New[string, *OperationReply](),
		ReplyAddresses:    sequencedmap.New[string, *OperationReplyAddress](),
		ExternalDocs:      sequencedmap.New[string, *ExternalDocs](),
		Tags:              sequencedmap.New[string, *Tag](),
		OperationTraits:   sequencedmap.New[string, *OperationTrait](),
		MessageTraits:     sequencedmap.New[string, *MessageTrait](),
		ServerBindings:    sequencedmap.New[string, *Bindings](),
		ChannelBindings:   sequencedmap.New[string, *Bindings](),
		OperationBindings: sequencedmap.New[string, *Bindings](),
		MessageBindings:   sequencedmap.New[string, *Bindings](),
	}
}

func get[V Referenceable](m *sequencedmap.Map[string, V], id string) (Referenceable, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.Get(id)
	if !ok || isNil(v) {
		return nil, false
	}
	return v, true
}

// Lookup returns the component of the given kind registered under id.
func (c *Components) Lookup(kind RefKind, id string) (Referenceable, bool) {
	if c == nil {
		return nil, false
	}
	switch kind {
	case RefKindSchema:
		return get(c.Schemas, id)
	case RefKindServer:
		return get(c.Servers, id)
	case RefKindServerVariable:
		return get(c.ServerVariables, id)
	case RefKindChannel:
		return get(c.Channels, id)
	case RefKindOperation:
		return get(c.Operations, id)
	case RefKindMessage:
		return get(c.Messages, id)
	case RefKindSecurityScheme:
		return get(c.SecuritySchemes, id)
	case RefKindParameter:
		return get(c.Parameters, id)
	case RefKindCorrelationID:
		return get(c.CorrelationIDs, id)
	case RefKindReply:
		return get(c.Replies, id)
	case RefKindReplyAddress:
		return get(c.ReplyAddresses, id)
	case RefKindExternalDocs:
		return get(c.ExternalDocs, id)
	case RefKindTag:
		return get(c.Tags, id)
	case RefKindOperationTrait:
		return get(c.OperationTraits, id)
	case RefKindMessageTrait:
		return get(c.MessageTraits, id)
	case RefKindServerBindings:
		return get(c.ServerBindings, id)
	case RefKindChannelBindings:
		return get(c.ChannelBindings, id)
	case RefKindOperationBindings:
		return get(c.OperationBindings, id)
	case RefKindMessageBindings:
		return get(c.MessageBindings, id)
	}
	return nil, false
}

// Len returns the total number of components across all tables.
func (c *Components) Len() int {
	if c == nil {
		return 0
	}
	return c.Schemas.Len() + c.Servers.Len() + c.ServerVariables.Len() + c.Channels.Len() +
		c.Operations.Len() + c.Messages.Len() + c.SecuritySchemes.Len() + c.Parameters.Len() +
		c.CorrelationIDs.Len() + c.Replies.Len() + c.ReplyAddresses.Len() + c.ExternalDocs.Len() +
		c.Tags.Len() + c.OperationTraits.Len() + c.MessageTraits.Len() + c.ServerBindings.Len() +
		c.ChannelBindings.Len() + c.OperationBindings.Len() + c.MessageBindings.Len()
}
