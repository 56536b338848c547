package model

import (
	"reflect"

	"github.com/speakeasy-api/openapi/jsonpointer"
	"github.com/speakeasy-api/openapi/sequencedmap"
)

// Extensions holds "x-" fields keyed by their full name.
type Extensions map[string]any

// Info provides metadata about the API.
type Info struct {
	Title          string   `key:"title"`
	Version        string   `key:"version"`
	Description    string   `key:"description"`
	TermsOfService string   `key:"termsOfService"`
	Contact        *Contact `key:"contact"`
	License        *License `key:"license"`
	// AsyncAPI 3
	Tags         []*Tag        `key:"tags"`
	ExternalDocs *ExternalDocs `key:"externalDocs"`
	Extensions   Extensions    `key:"-"`
}

// Contact information for the exposed API.
type Contact struct {
	Name       string     `key:"name"`
	URL        string     `key:"url"`
	Email      string     `key:"email"`
	Extensions Extensions `key:"-"`
}

// License information for the exposed API.
type License struct {
	Name       string     `key:"name"`
	URL        string     `key:"url"`
	Extensions Extensions `key:"-"`
}

// Tag adds metadata to a single tag. Referenceable in AsyncAPI 3.
type Tag struct {
	Ref
	Name         string        `key:"name"`
	Description  string        `key:"description"`
	ExternalDocs *ExternalDocs `key:"externalDocs"`
	Extensions   Extensions    `key:"-"`
}

// ExternalDocs references external documentation. Referenceable in AsyncAPI 3.
type ExternalDocs struct {
	Ref
	Description string     `key:"description"`
	URL         string     `key:"url"`
	Extensions  Extensions `key:"-"`
}

// SecurityRequirement maps security scheme names to required scopes (AsyncAPI 2).
type SecurityRequirement map[string][]string

// Server describes a message broker.
type Server struct {
	Ref
	// URL is the AsyncAPI 2 server url
	URL string `key:"url"`
	// Host and Pathname replace URL in AsyncAPI 3
	Host            string                                     `key:"host"`
	Pathname        string                                     `key:"pathname"`
	Protocol        string                                     `key:"protocol"`
	ProtocolVersion string                                     `key:"protocolVersion"`
	Title           string                                     `key:"title"`
	Summary         string                                     `key:"summary"`
	Description     string                                     `key:"description"`
	Variables       *sequencedmap.Map[string, *ServerVariable] `key:"variables"`
	Security        []SecurityRequirement                      `key:"-"`
	// SecuritySchemes is the AsyncAPI 3 form of Security
	SecuritySchemes []*SecurityScheme `key:"security"`
	Tags            []*Tag            `key:"tags"`
	ExternalDocs    *ExternalDocs     `key:"externalDocs"`
	Bindings        *Bindings         `key:"bindings"`
	Extensions      Extensions        `key:"-"`
}

// ServerVariable describes a substitution variable of a server URL.
type ServerVariable struct {
	Ref
	Enum        []string   `key:"enum"`
	Default     string     `key:"default"`
	Description string     `key:"description"`
	Examples    []string   `key:"examples"`
	Extensions  Extensions `key:"-"`
}

// Channel describes a shared communication channel.
type Channel struct {
	Ref
	// Address is the AsyncAPI 3 channel address; nil means dynamic or unknown
	Address     *string `key:"address"`
	Title       string  `key:"title"`
	Summary     string  `key:"summary"`
	Description string  `key:"description"`
	// ServerNames lists server names (AsyncAPI 2)
	ServerNames []string `key:"-"`
	// Servers lists server references (AsyncAPI 3)
	Servers      []*Server                             `key:"servers"`
	Subscribe    *Operation                            `key:"subscribe"`
	Publish      *Operation                            `key:"publish"`
	Messages     *sequencedmap.Map[string, *Message]   `key:"messages"`
	Parameters   *sequencedmap.Map[string, *Parameter] `key:"parameters"`
	Tags         []*Tag                                `key:"tags"`
	ExternalDocs *ExternalDocs                         `key:"externalDocs"`
	Bindings     *Bindings                             `key:"bindings"`
	Extensions   Extensions                            `key:"-"`
}

// Operations returns the AsyncAPI 2 operations of the channel in
// subscribe, publish order.
func (c *Channel) Operations() []*Operation {
	var ops []*Operation
	if c.Subscribe != nil {
		ops = append(ops, c.Subscribe)
	}
	if c.Publish != nil {
		ops = append(ops, c.Publish)
	}
	return ops
}

// OperationFields are shared by operations and operation traits.
type OperationFields struct {
	OperationID     string                `key:"operationId"`
	Title           string                `key:"title"`
	Summary         string                `key:"summary"`
	Description     string                `key:"description"`
	Security        []SecurityRequirement `key:"-"`
	SecuritySchemes []*SecurityScheme     `key:"security"`
	Tags            []*Tag                `key:"tags"`
	ExternalDocs    *ExternalDocs         `key:"externalDocs"`
	Bindings        *Bindings             `key:"bindings"`
	Extensions      Extensions            `key:"-"`
}

// Operation describes a publish/subscribe (AsyncAPI 2) or send/receive
// (AsyncAPI 3) operation.
type Operation struct {
	Ref
	OperationFields
	// Action is "send" or "receive" (AsyncAPI 3)
	Action  string            `key:"action"`
	Channel *Channel          `key:"channel"`
	Traits  []*OperationTrait `key:"traits"`
	// Message is the AsyncAPI 2 message, possibly with OneOf alternatives
	Message *Message `key:"message"`
	// Messages references channel messages (AsyncAPI 3)
	Messages []*Message      `key:"messages"`
	Reply    *OperationReply `key:"reply"`
}

// OperationTrait holds reusable operation fields.
type OperationTrait struct {
	Ref
	OperationFields
}

// OperationReply describes the reply of a request/reply operation.
type OperationReply struct {
	Ref
	Address    *OperationReplyAddress `key:"address"`
	Channel    *Channel               `key:"channel"`
	Messages   []*Message             `key:"messages"`
	Extensions Extensions             `key:"-"`
}

// OperationReplyAddress locates the reply address at runtime.
type OperationReplyAddress struct {
	Ref
	Location    string     `key:"location"`
	Description string     `key:"description"`
	Extensions  Extensions `key:"-"`
}

// MessageFields are shared by messages and message traits.
type MessageFields struct {
	MessageID     string            `key:"messageId"`
	Headers       *Schema           `key:"headers"`
	CorrelationID *CorrelationID    `key:"correlationId"`
	SchemaFormat  string            `key:"schemaFormat"`
	ContentType   string            `key:"contentType"`
	Name          string            `key:"name"`
	Title         string            `key:"title"`
	Summary       string            `key:"summary"`
	Description   string            `key:"description"`
	Tags          []*Tag            `key:"tags"`
	ExternalDocs  *ExternalDocs     `key:"externalDocs"`
	Bindings      *Bindings         `key:"bindings"`
	Examples      []*MessageExample `key:"examples"`
	Extensions    Extensions        `key:"-"`
}

// Message describes a message received or sent on a channel.
type Message struct {
	Ref
	MessageFields
	Payload *Schema `key:"payload"`
	// PayloadRaw holds payloads whose schemaFormat is not JSON Schema
	// compatible (Avro, RAML, Protobuf), in structural form
	PayloadRaw any             `key:"-"`
	Traits     []*MessageTrait `key:"traits"`
	// OneOf lists alternatives of an AsyncAPI 2 operation message
	OneOf []*Message `key:"oneOf"`
}

// MessageTrait holds reusable message fields.
type MessageTrait struct {
	Ref
	MessageFields
}

// MessageExample is one example of a message.
type MessageExample struct {
	Headers    map[string]any `key:"headers"`
	Payload    any            `key:"payload"`
	Name       string         `key:"name"`
	Summary    string         `key:"summary"`
	Extensions Extensions     `key:"-"`
}

// Parameter describes a channel name or address parameter.
type Parameter struct {
	Ref
	Description string   `key:"description"`
	Enum        []string `key:"enum"`
	Default     string   `key:"default"`
	Examples    []string `key:"examples"`
	Location    string   `key:"location"`
	// Schema is the AsyncAPI 2 parameter schema
	Schema     *Schema    `key:"schema"`
	Extensions Extensions `key:"-"`
}

// SecurityScheme defines a security scheme used by servers or operations.
type SecurityScheme struct {
	Ref
	Type             string      `key:"type"`
	Description      string      `key:"description"`
	Name             string      `key:"name"`
	In               string      `key:"in"`
	Scheme           string      `key:"scheme"`
	BearerFormat     string      `key:"bearerFormat"`
	Flows            *OAuthFlows `key:"flows"`
	OpenIDConnectURL string      `key:"openIdConnectUrl"`
	// Scopes lists required scopes (AsyncAPI 3)
	Scopes     []string   `key:"scopes"`
	Extensions Extensions `key:"-"`
}

// OAuthFlows configures the supported OAuth flows.
type OAuthFlows struct {
	Implicit          *OAuthFlow `key:"implicit"`
	Password          *OAuthFlow `key:"password"`
	ClientCredentials *OAuthFlow `key:"clientCredentials"`
	AuthorizationCode *OAuthFlow `key:"authorizationCode"`
	Extensions        Extensions `key:"-"`
}

// OAuthFlow configures one OAuth flow. Scopes holds "scopes" (AsyncAPI 2)
// or "availableScopes" (AsyncAPI 3).
type OAuthFlow struct {
	AuthorizationURL string                            `key:"authorizationUrl"`
	TokenURL         string                            `key:"tokenUrl"`
	RefreshURL       string                            `key:"refreshUrl"`
	Scopes           *sequencedmap.Map[string, string] `key:"scopes"`
	Extensions       Extensions                        `key:"-"`
}

// CorrelationID locates the identifier used to correlate messages.
type CorrelationID struct {
	Ref
	Description string     `key:"description"`
	Location    string     `key:"location"`
	Extensions  Extensions `key:"-"`
}

// Bindings maps protocol names to protocol specific binding objects, kept in
// their structural form. The same type serves server, channel, operation and
// message bindings.
type Bindings struct {
	Ref
	Protocols  *sequencedmap.Map[string, any] `key:"-"`
	Extensions Extensions                     `key:"-"`
}

// NavigateWithKey allows pointers to address a single protocol binding.
func (b *Bindings) NavigateWithKey(key string) (any, error) {
	return b.Protocols.NavigateWithKey(key)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// navigateFields resolves key against an embedded fields struct, deferring to
// the outer struct's own fields when key is not one of them.
func navigateFields(fields any, key string) (any, error) {
	v, err := jsonpointer.GetTarget(fields, jsonpointer.PartsToJSONPointer([]string{key}))
	if err != nil {
		return nil, jsonpointer.ErrSkipInterface
	}
	return v, nil
}

// NavigateWithKey exposes the embedded operation fields to pointer lookups.
func (o *Operation) NavigateWithKey(key string) (any, error) {
	return navigateFields(&o.OperationFields, key)
}

// NavigateWithKey exposes the embedded operation fields to pointer lookups.
func (t *OperationTrait) NavigateWithKey(key string) (any, error) {
	return navigateFields(&t.OperationFields, key)
}

// NavigateWithKey exposes the embedded message fields to pointer lookups.
func (m *Message) NavigateWithKey(key string) (any, error) {
	return navigateFields(&m.MessageFields, key)
}

// NavigateWithKey exposes the embedded message fields to pointer lookups.
func (t *MessageTrait) NavigateWithKey(key string) (any, error) {
	return navigateFields(&t.MessageFields, key)
}
