package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersV3 = `asyncapi: 3.0.0
info:
  title: Orders
  version: 2.1.0
  description: Order events.
  tags:
    - name: orders
defaultContentType: application/json
servers:
  broker:
    host: broker.example.com:9092
    protocol: kafka
channels:
  orders:
    address: orders
    messages:
      created:
        $ref: '#/components/messages/OrderCreated'
      audit:
        name: audit
        contentType: text/plain
        payload:
          type: string
operations:
  publishOrder:
    action: send
    channel:
      $ref: '#/channels/orders'
components:
  messages:
    OrderCreated:
      name: OrderCreated
      payload:
        type: object
        required:
          - id
        properties:
          id:
            type: string
    OrderDeleted:
      name: OrderDeleted
      contentType: application/avro
`

func TestHandleParse(t *testing.T) {
	specCache.reset()

	t.Run("summary", func(t *testing.T) {
		result, output, err := handleParse(context.Background(), nil, parseInput{Spec: specInput{Content: ordersV3}})
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, "3.0.0", output.AsyncAPI)
		assert.Equal(t, "Orders", output.Title)
		assert.Equal(t, "2.1.0", output.Version)
		assert.Equal(t, "Order events.", output.Description)
		assert.Equal(t, "yaml", output.Format)
		assert.Equal(t, []parseSummaryServer{{Name: "broker", Host: "broker.example.com:9092", Protocol: "kafka"}}, output.Servers)
		assert.Equal(t, 1, output.Stats.Servers)
		assert.Equal(t, 1, output.Stats.Channels)
		assert.Equal(t, 1, output.Stats.Operations)
		assert.Equal(t, 2, output.Stats.References)
		assert.Empty(t, output.Diagnostics)
	})

	t.Run("resolve", func(t *testing.T) {
		_, output, err := handleParse(context.Background(), nil, parseInput{Spec: specInput{Content: ordersV3}, Resolve: true})
		require.NoError(t, err)
		assert.Zero(t, output.Stats.References)
	})

	t.Run("asyncapi 2 file", func(t *testing.T) {
		_, output, err := handleParse(context.Background(), nil, parseInput{Spec: specInput{File: "../../testdata/streetlights-2.6.yaml"}})
		require.NoError(t, err)
		assert.Equal(t, "2.6.0", output.AsyncAPI)
		assert.Equal(t, "Streetlights Kafka API", output.Title)
		require.Len(t, output.Servers, 1)
		assert.Equal(t, "test.mykafkacluster.org:{port}", output.Servers[0].URL)
		assert.Equal(t, "kafka-secure", output.Servers[0].Protocol)
		assert.Equal(t, 2, output.Stats.Channels)
		assert.Equal(t, 2, output.Stats.Operations)
		assert.Positive(t, output.Stats.References)
	})

	t.Run("unsupported version", func(t *testing.T) {
		result, _, err := handleParse(context.Background(), nil, parseInput{Spec: specInput{Content: "asyncapi: 1.2.0\ninfo: {}\n"}})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.IsError)
	})
}
