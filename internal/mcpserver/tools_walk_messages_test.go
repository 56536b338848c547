package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageNames(summaries []messageSummary) []string {
	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	return names
}

func TestHandleWalkMessages(t *testing.T) {
	specCache.reset()

	t.Run("summaries", func(t *testing.T) {
		result, output, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{Spec: specInput{Content: ordersV3}})
		require.NoError(t, err)
		require.Nil(t, result)
		assert.Equal(t, 3, output.Total)
		assert.ElementsMatch(t, []string{"audit", "OrderCreated", "OrderDeleted"}, messageNames(output.Summaries))

		for _, s := range output.Summaries {
			switch s.Name {
			case "audit":
				assert.Equal(t, "#/channels/orders/messages/audit", s.Pointer)
				assert.Equal(t, "text/plain", s.ContentType)
				assert.Equal(t, "string", s.PayloadType)
				assert.False(t, s.Component)
			case "OrderCreated":
				assert.Equal(t, "#/components/messages/OrderCreated", s.Pointer)
				assert.Equal(t, "application/json", s.ContentType, "default content type applies")
				assert.Equal(t, "object", s.PayloadType)
				assert.True(t, s.Component)
			case "OrderDeleted":
				assert.Empty(t, s.PayloadType)
			}
		}
	})

	t.Run("component filter and glob", func(t *testing.T) {
		_, output, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{
			Spec:      specInput{Content: ordersV3},
			Component: true,
			Name:      "order*",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, output.Matched)
		assert.ElementsMatch(t, []string{"OrderCreated", "OrderDeleted"}, messageNames(output.Summaries))
	})

	t.Run("content type", func(t *testing.T) {
		_, output, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{
			Spec:        specInput{Content: ordersV3},
			ContentType: "APPLICATION/JSON",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"OrderCreated"}, messageNames(output.Summaries))
	})

	t.Run("detail", func(t *testing.T) {
		_, output, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{
			Spec:   specInput{Content: ordersV3},
			Name:   "OrderCreated",
			Detail: true,
		})
		require.NoError(t, err)
		require.Len(t, output.Details, 1)
		d := output.Details[0]
		require.NotNil(t, d.Payload)
		assert.Equal(t, []string{"object"}, d.Payload.Type)
		assert.Equal(t, []string{"id"}, d.Payload.Properties)
		assert.Equal(t, []string{"id"}, d.Payload.Required)
		assert.Nil(t, d.Headers)
	})

	t.Run("group by content type", func(t *testing.T) {
		_, output, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{
			Spec:    specInput{Content: ordersV3},
			GroupBy: "content_type",
		})
		require.NoError(t, err)
		assert.Equal(t, []groupCount{
			{Key: "application/avro", Count: 1},
			{Key: "application/json", Count: 1},
			{Key: "text/plain", Count: 1},
		}, output.Groups)
	})

	t.Run("unresolved payload", func(t *testing.T) {
		_, output, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{
			Spec: specInput{File: "../../testdata/external/common/messages.yaml"},
			Mode: "local",
			Name: "OrderCancelled",
		})
		require.NoError(t, err)
		require.Len(t, output.Summaries, 1)
		assert.Equal(t, "$ref", output.Summaries[0].PayloadType)
	})

	t.Run("workspace documents", func(t *testing.T) {
		_, output, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{
			Spec: specInput{File: externalMain},
			Mode: "full",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, output.Total)
		require.Len(t, output.Summaries, 2)
		for _, s := range output.Summaries {
			assert.Equal(t, "common/messages.yaml", s.Source)
			assert.Equal(t, "object", s.PayloadType)
			assert.True(t, s.Component)
		}
	})

	t.Run("content type wildcard", func(t *testing.T) {
		_, output, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{
			Spec:        specInput{Content: ordersV3},
			ContentType: "application/*",
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"OrderCreated", "OrderDeleted"}, messageNames(output.Summaries))
	})

	t.Run("invalid content type", func(t *testing.T) {
		result, _, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{
			Spec:        specInput{Content: ordersV3},
			ContentType: "application/json/extra",
		})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.IsError)
	})

	t.Run("invalid group_by", func(t *testing.T) {
		result, _, err := handleWalkMessages(context.Background(), nil, walkMessagesInput{
			Spec:    specInput{Content: ordersV3},
			GroupBy: "name",
		})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.IsError)
	})
}
