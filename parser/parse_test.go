package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
)

func parseString(t *testing.T, src string, opts ...Option) *Result {
	t.Helper()
	res, err := Parse([]byte(src), opts...)
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	return res
}

func TestParseFileAsyncAPI2(t *testing.T) {
	res, err := ParseFile("../testdata/streetlights-2.6.yaml")
	require.NoError(t, err)
	assert.False(t, res.HasErrors(), "unexpected diagnostics:\n%s", res.Diagnostics)
	assert.Equal(t, VersionAsyncAPI2, res.Version)
	assert.Equal(t, "2.6.0", res.RawVersion)
	assert.Equal(t, SourceFormatYAML, res.Format)
	assert.Equal(t, "../testdata/streetlights-2.6.yaml", res.SourcePath)
	assert.NotNil(t, res.Root)

	doc := res.Document
	assert.Equal(t, model.DialectAsyncAPI2, doc.Dialect)
	assert.Equal(t, "urn:com:smartylighting:streetlights:server", doc.ID)
	require.NotNil(t, doc.Info)
	assert.Equal(t, "Streetlights Kafka API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	require.NotNil(t, doc.Info.License)
	assert.Equal(t, "Apache 2.0", doc.Info.License.Name)

	server, ok := doc.Servers.Get("production")
	require.True(t, ok)
	assert.Equal(t, "kafka-secure", server.Protocol)
	port, ok := server.Variables.Get("port")
	require.True(t, ok)
	assert.Equal(t, []string{"1883", "8883"}, port.Enum)
	require.Len(t, server.Security, 1)
	assert.Contains(t, server.Security[0], "saslScram")

	require.Equal(t, 2, doc.Channels.Len())
	measured, ok := doc.Channels.Get("smartylighting/streetlights/1/0/event/{streetlightId}/lighting/measured")
	require.True(t, ok)
	require.NotNil(t, measured.Subscribe)
	assert.Nil(t, measured.Publish)
	assert.Equal(t, "receiveLightMeasurement", measured.Subscribe.OperationID)
	require.NotNil(t, measured.Subscribe.Message)
	assert.True(t, measured.Subscribe.Message.IsUnresolved())
	assert.Equal(t, "lightMeasured", measured.Subscribe.Message.Reference.ID)
	assert.Equal(t, model.RefKindMessage, measured.Subscribe.Message.Reference.Kind)
	require.Len(t, measured.Subscribe.Traits, 1)
	assert.Equal(t, model.RefKindOperationTrait, measured.Subscribe.Traits[0].Reference.Kind)

	param, ok := measured.Parameters.Get("streetlightId")
	require.True(t, ok)
	assert.True(t, param.IsUnresolved())

	turnOn, ok := doc.Channels.Get("smartylighting/streetlights/1/0/action/{streetlightId}/turn/on")
	require.True(t, ok)
	require.NotNil(t, turnOn.Publish)
	require.Len(t, turnOn.Publish.Message.OneOf, 2)
	assert.Equal(t, "dimLight", turnOn.Publish.Message.OneOf[1].Reference.ID)

	msg, ok := doc.Components.Messages.Get("lightMeasured")
	require.True(t, ok)
	assert.Equal(t, "application/json", msg.ContentType)
	require.NotNil(t, msg.Payload)
	assert.True(t, msg.Payload.IsUnresolved())
	assert.Equal(t, "lightMeasuredPayload", msg.Payload.Reference.ID)
	require.NotNil(t, msg.CorrelationID)
	assert.Equal(t, model.RefKindCorrelationID, msg.CorrelationID.Reference.Kind)

	schema, ok := doc.Components.Schemas.Get("dimLightPayload")
	require.True(t, ok)
	assert.Equal(t, []string{"object"}, schema.Type)
	pct, ok := schema.Properties.Get("percentage")
	require.True(t, ok)
	require.NotNil(t, pct.Maximum)
	assert.Equal(t, 100.0, *pct.Maximum)

	trait, ok := doc.Components.OperationTraits.Get("kafka")
	require.True(t, ok)
	require.NotNil(t, trait.Bindings)
	kafka, ok := trait.Bindings.Protocols.Get("kafka")
	require.True(t, ok)
	assert.Contains(t, kafka, "clientId")

	scheme, ok := doc.Components.SecuritySchemes.Get("saslScram")
	require.True(t, ok)
	assert.Equal(t, "scramSha256", scheme.Type)
}

func TestParseFileAsyncAPI3(t *testing.T) {
	res, err := ParseFile("../testdata/streetlights-3.0.yaml")
	require.NoError(t, err)
	assert.False(t, res.HasErrors(), "unexpected diagnostics:\n%s", res.Diagnostics)
	assert.Equal(t, VersionAsyncAPI3, res.Version)

	doc := res.Document
	require.NotNil(t, doc.Info)
	require.Len(t, doc.Info.Tags, 1)
	assert.True(t, doc.Info.Tags[0].IsUnresolved())
	require.NotNil(t, doc.Info.ExternalDocs)
	assert.Equal(t, "https://example.com/docs", doc.Info.ExternalDocs.URL)

	server, ok := doc.Servers.Get("scram-connections")
	require.True(t, ok)
	assert.Equal(t, "test.mykafkacluster.org:18092", server.Host)
	require.Len(t, server.SecuritySchemes, 1)
	assert.Equal(t, model.RefKindSecurityScheme, server.SecuritySchemes[0].Reference.Kind)
	assert.Empty(t, server.Security)

	measured, ok := doc.Channels.Get("lightingMeasured")
	require.True(t, ok)
	require.NotNil(t, measured.Address)
	assert.Equal(t, "smartylighting.streetlights.1.0.event.{streetlightId}.lighting.measured", *measured.Address)
	assert.Equal(t, 1, measured.Messages.Len())

	turnOnChannel, ok := doc.Channels.Get("lightTurnOn")
	require.True(t, ok)
	require.Len(t, turnOnChannel.Servers, 1)
	assert.Equal(t, model.RefKindServer, turnOnChannel.Servers[0].Reference.Kind)

	replies, ok := doc.Channels.Get("replies")
	require.True(t, ok)
	assert.Nil(t, replies.Address, "null address means dynamic")
	ack, ok := replies.Messages.Get("ack")
	require.True(t, ok)
	require.NotNil(t, ack.Payload)
	assert.True(t, ack.Payload.HasType("object"))

	require.Equal(t, 2, doc.Operations.Len())
	turnOn, ok := doc.Operations.Get("turnOn")
	require.True(t, ok)
	assert.Equal(t, "send", turnOn.Action)
	require.NotNil(t, turnOn.Channel)
	assert.Equal(t, "#/channels/lightTurnOn", turnOn.Channel.Reference.Raw)
	assert.Equal(t, model.RefKindChannel, turnOn.Channel.Reference.Kind)
	require.Len(t, turnOn.Messages, 1)
	assert.Equal(t, model.RefKindMessage, turnOn.Messages[0].Reference.Kind)
	require.NotNil(t, turnOn.Reply)
	require.NotNil(t, turnOn.Reply.Address)
	assert.Equal(t, "$message.header#/replyTo", turnOn.Reply.Address.Location)
	assert.True(t, turnOn.Reply.Channel.IsUnresolved())

	t.Run("multi format payloads", func(t *testing.T) {
		msg, ok := doc.Components.Messages.Get("turnOnOff")
		require.True(t, ok)
		assert.Equal(t, "application/vnd.aai.asyncapi+json;version=3.0.0", msg.SchemaFormat)
		require.NotNil(t, msg.Payload)
		assert.Equal(t, "turnOnOffPayload", msg.Payload.Reference.ID)

		avro, ok := doc.Components.Messages.Get("avroReading")
		require.True(t, ok)
		assert.Nil(t, avro.Payload)
		raw, ok := avro.PayloadRaw.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "record", raw["type"])
	})

	tag, ok := doc.Components.Tags.Get("lighting")
	require.True(t, ok)
	assert.Equal(t, "Lighting operations", tag.Description)
}

func TestParseMissingRequiredFieldPointer(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		want    string
	}{
		{name: "plain", channel: "foo", want: "#/channels/foo/subscribe/message/payload"},
		{name: "escaped", channel: "a/b~c", want: "#/channels/a~1b~0c/subscribe/message/payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `asyncapi: 2.6.0
info:
  title: t
  version: '1'
channels:
  '` + tt.channel + `':
    subscribe:
      message:
        name: m
`
			res := parseString(t, src)
			items := res.Diagnostics.Items()
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Pointer)
			assert.Equal(t, "Missing required field 'payload'", items[0].Message)
			assert.Equal(t, diag.SeverityError, items[0].Severity)
			assert.Equal(t, 9, items[0].Line)
		})
	}
}

func TestParseRecoverableDiagnostics(t *testing.T) {
	src := `asyncapi: 2.6.0
info:
  title: [not, a, string]
  version: '1'
  color: red
  x-audience: internal
`
	res := parseString(t, src)
	doc := res.Document

	unknown := res.Diagnostics.At("#/info/color")
	require.Len(t, unknown, 1)
	assert.Equal(t, "Unrecognized field 'color'", unknown[0].Message)
	assert.Equal(t, 5, unknown[0].Line)

	shape := res.Diagnostics.At("#/info/title")
	require.Len(t, shape, 1)
	assert.True(t, strings.HasPrefix(shape[0].Message, "Invalid value"), shape[0].Message)

	missing := res.Diagnostics.At("#/channels")
	require.Len(t, missing, 1)
	assert.Equal(t, "Missing required field 'channels'", missing[0].Message)

	require.NotNil(t, doc.Info)
	assert.Empty(t, doc.Info.Title)
	assert.Equal(t, "1", doc.Info.Version)
	assert.Equal(t, "internal", doc.Info.Extensions["x-audience"])
}

func TestParseUnusedChannelParameter(t *testing.T) {
	src := `asyncapi: 2.6.0
info:
  title: Users
  version: '1'
channels:
  user/{userId}:
    parameters:
      userId:
        schema:
          type: string
      eventType:
        schema:
          type: string
    publish:
      message:
        payload:
          type: string
components:
  channels:
    shared:
      parameters:
        anything:
          schema:
            type: string
`
	res := parseString(t, src)

	unused := res.Diagnostics.At("#/channels/user~1{userId}/parameters/eventType")
	require.Len(t, unused, 1)
	assert.Equal(t, diag.SeverityWarning, unused[0].Severity)
	assert.Equal(t, "Parameter 'eventType' is not used in channel name 'user/{userId}'", unused[0].Message)
	assert.Equal(t, 12, unused[0].Line)

	assert.Empty(t, res.Diagnostics.At("#/channels/user~1{userId}/parameters/userId"))
	assert.Empty(t, res.Diagnostics.At("#/components/channels/shared/parameters/anything"),
		"component channel keys are not channel names")
	assert.Equal(t, 1, res.Diagnostics.Len(), res.Diagnostics.String())
}

func TestParseAsyncAPI3RemovedFields(t *testing.T) {
	src := `asyncapi: 3.0.0
info:
  title: t
  version: '1'
channels:
  foo:
    subscribe:
      summary: AsyncAPI 2 only
operations:
  op:
    action: send
`
	res := parseString(t, src)
	assert.Len(t, res.Diagnostics.At("#/channels/foo/subscribe"), 1)
	missing := res.Diagnostics.At("#/operations/op/channel")
	require.Len(t, missing, 1)
	assert.Equal(t, "Missing required field 'channel'", missing[0].Message)
}

func TestParseExtensionParser(t *testing.T) {
	src := `asyncapi: 2.6.0
info:
  title: t
  version: '1'
  x-count: 3
channels: {}
`
	var seen []string
	res := parseString(t, src, WithExtensionParser(func(key string, n *node.Node, ctx *Context) any {
		seen = append(seen, key+"@"+ctx.Pointer())
		return n.Value()
	}))
	assert.Equal(t, []string{"x-count@#/info/x-count"}, seen)
	assert.Equal(t, "3", res.Document.Info.Extensions["x-count"])
}

func TestParseFatalErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		target error
	}{
		{name: "empty", src: "  \n", target: apierrors.ErrMalformedDocument},
		{name: "syntax", src: "asyncapi: [2.6.0", target: apierrors.ErrMalformedDocument},
		{name: "root list", src: "- asyncapi: 2.6.0", target: apierrors.ErrMalformedDocument},
		{name: "root scalar", src: "asyncapi", target: apierrors.ErrUnexpectedNodeShape},
		{name: "unknown version", src: "asyncapi: 9.9.9\ninfo: {}", target: apierrors.ErrUnsupportedVersion},
		{name: "no version", src: "info: {}", target: apierrors.ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			require.NotNil(t, res)
			assert.Nil(t, res.Document)
			assert.NotNil(t, res.Diagnostics)
		})
	}

	t.Run("parse error carries source and line", func(t *testing.T) {
		_, err := Parse([]byte("asyncapi: 2.6.0\ninfo:\n  title: [a\n"), WithSourceName("broken.yaml"))
		var perr *apierrors.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "broken.yaml", perr.Path)
		assert.Positive(t, perr.Line)
	})
}

func TestParseSources(t *testing.T) {
	const src = `{"asyncapi": "3.0.0", "info": {"title": "t", "version": "1"}}`

	res, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, SourceFormatJSON, res.Format)
	assert.Equal(t, "ParseBytes.json", res.SourcePath)

	res, err = ParseReader(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "ParseReader.json", res.SourcePath)
	assert.Equal(t, int64(len(src)), res.SourceSize)

	res, err = Parse([]byte(src), WithSourceName("inline"))
	require.NoError(t, err)
	assert.Equal(t, "inline", res.SourcePath)

	_, err = ParseWithOptions()
	assert.True(t, errors.Is(err, apierrors.ErrConfig))

	_, err = ParseWithOptions(WithBytes([]byte(src)), WithReader(strings.NewReader(src)))
	assert.True(t, errors.Is(err, apierrors.ErrConfig))

	_, err = ParseFile("../testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestParseBaseLocator(t *testing.T) {
	src := `asyncapi: 2.6.0
info:
  title: t
  version: '1'
channels:
  foo:
    publish:
      message:
        $ref: '../shared/messages.yaml#/components/messages/Foo'
  bar:
    publish:
      message:
        $ref: '#/components/messages/Bar'
        extra: ignored
  baz:
    publish:
      message:
        $ref: 42
`
	res := parseString(t, src, WithBaseLocator("apis/orders/asyncapi.yaml"))
	foo, _ := res.Document.Channels.Get("foo")
	assert.Equal(t, "apis/shared/messages.yaml", foo.Publish.Message.Reference.Resource)
	bar, _ := res.Document.Channels.Get("bar")
	assert.Equal(t, "apis/orders/asyncapi.yaml", bar.Publish.Message.Reference.Resource)

	baz, _ := res.Document.Channels.Get("baz")
	assert.Nil(t, baz.Publish.Message)
	bad := res.Diagnostics.At("#/channels/baz/publish/message/$ref")
	require.Len(t, bad, 1)
	assert.Equal(t, "apis/orders/asyncapi.yaml", bad[0].Source)
}

func TestParseElement(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		v, diags, err := ParseElement(model.RefKindMessage, []byte(`
name: ping
payload:
  schemaFormat: application/schema+json;version=draft-07
  schema:
    type: string
`), VersionAsyncAPI3)
		require.NoError(t, err)
		assert.Zero(t, diags.Len())
		msg, ok := v.(*model.Message)
		require.True(t, ok)
		assert.Equal(t, "ping", msg.Name)
		require.NotNil(t, msg.Payload)
		assert.True(t, msg.Payload.HasType("string"))
	})

	t.Run("reference object yields placeholder", func(t *testing.T) {
		v, _, err := ParseElement(model.RefKindSchema, []byte(`$ref: '#/components/schemas/A'`), VersionAsyncAPI2)
		require.NoError(t, err)
		s, ok := v.(*model.Schema)
		require.True(t, ok)
		assert.True(t, s.IsUnresolved())
	})

	t.Run("boolean schema", func(t *testing.T) {
		v, _, err := ParseElement(model.RefKindSchema, []byte(`false`), VersionAsyncAPI2)
		require.NoError(t, err)
		s := v.(*model.Schema)
		require.NotNil(t, s.Boolean)
		assert.False(t, *s.Boolean)
	})

	t.Run("wrong shape", func(t *testing.T) {
		v, diags, err := ParseElement(model.RefKindChannel, []byte(`just text`), VersionAsyncAPI2)
		assert.Nil(t, v)
		assert.True(t, errors.Is(err, apierrors.ErrUnexpectedNodeShape))
		assert.Equal(t, 1, diags.Len())
	})

	t.Run("kind not in version", func(t *testing.T) {
		_, _, err := ParseElement(model.RefKindReply, []byte(`channel: {}`), VersionAsyncAPI2)
		assert.True(t, errors.Is(err, apierrors.ErrConfig))

		v, _, err := ParseElement(model.RefKindReply, []byte(`address: {location: '$message.header#/r'}`), VersionAsyncAPI3)
		require.NoError(t, err)
		assert.IsType(t, &model.OperationReply{}, v)
	})
	t.Run("element pointer", func(t *testing.T) {
		v, _, err := ParseElement(model.RefKindSchema, []byte(`
type: object
properties:
  total:
    $ref: '#/Money'
`), VersionAsyncAPI2, WithElementPointer("#/Order"), WithBaseLocator("schemas.yaml"))
		require.NoError(t, err)
		s := v.(*model.Schema)
		assert.Equal(t, "#/Order", s.Location)
		total, _ := s.Properties.Get("total")
		assert.Equal(t, "schemas.yaml", total.Reference.Resource)
		assert.Equal(t, "#/Money", total.Reference.Fragment)
	})
}
