package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleResolve(t *testing.T) {
	specCache.reset()

	t.Run("full", func(t *testing.T) {
		result, output, err := handleResolve(context.Background(), nil, resolveInput{
			Spec: specInput{File: "../../testdata/external/main.yaml"},
			Mode: "full",
		})
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, "full", output.Mode)
		assert.Equal(t, []string{"common/messages.yaml", "main.yaml", "schemas.yaml"}, output.Resources)
		assert.Zero(t, output.Unresolved)
		assert.Zero(t, output.Errors)
		assert.Empty(t, output.Items)
	})

	t.Run("local", func(t *testing.T) {
		_, output, err := handleResolve(context.Background(), nil, resolveInput{
			Spec: specInput{File: "../../testdata/external/main.yaml"},
			Mode: "local",
		})
		require.NoError(t, err)
		assert.Equal(t, "local", output.Mode)
		assert.Nil(t, output.Resources)
		assert.Equal(t, 3, output.Unresolved)
	})

	t.Run("broken references", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "asyncapi.yaml")
		doc := `asyncapi: 2.6.0
info:
  title: Broken
  version: 1.0.0
channels:
  ping:
    publish:
      message:
        $ref: 'missing.yaml#/components/messages/Ping'
  pong:
    publish:
      message:
        $ref: '#/components/messages/Pong'
`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		_, output, err := handleResolve(context.Background(), nil, resolveInput{Spec: specInput{File: path}})
		require.NoError(t, err)
		assert.Equal(t, "full", output.Mode)
		assert.Equal(t, 2, output.Unresolved)
		assert.Positive(t, output.Errors)

		var failed bool
		for _, d := range output.Items {
			if strings.HasPrefix(d.Message, "Failed to load missing.yaml") {
				failed = true
				assert.Equal(t, "#/channels/ping/publish/message", d.Pointer)
			}
		}
		assert.True(t, failed, "expected a load failure for missing.yaml")

		_, paged, err := handleResolve(context.Background(), nil, resolveInput{Spec: specInput{File: path}, ErrorsOnly: true, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, paged.Returned)
		assert.Equal(t, "error", paged.Items[0].Severity)
	})

	t.Run("invalid mode", func(t *testing.T) {
		result, _, err := handleResolve(context.Background(), nil, resolveInput{
			Spec: specInput{Content: minimalDoc},
			Mode: "deep",
		})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.IsError)
	})
}
