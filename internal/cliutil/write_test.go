package cliutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/model"
)

func TestWritef(t *testing.T) {
	var buf bytes.Buffer
	Writef(&buf, "%s: %d items, %v active", "Status", 42, true)
	assert.Equal(t, "Status: 42 items, true active", buf.String())
}

// errorWriter is a writer that always returns an error
type errorWriter struct{}

func (errorWriter) Write([]byte) (int, error) {
	return 0, &writeError{}
}

type writeError struct{}

func (e *writeError) Error() string {
	return "simulated write error"
}

func TestWritef_WriteError(t *testing.T) {
	// Should not panic
	Writef(errorWriter{}, "This will fail")
}

func TestKindLabel(t *testing.T) {
	tests := []struct {
		kind model.RefKind
		want string
	}{
		{model.RefKindSchema, "Schema"},
		{model.RefKindMessageTrait, "MessageTrait"},
		{model.RefKindCorrelationID, "CorrelationId"},
		{model.RefKindUnknown, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, KindLabel(tt.kind))
		})
	}
}

func TestWriteDiagnostics(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		WriteDiagnostics(&buf, diag.New())
		assert.Empty(t, buf.String())
	})

	t.Run("counts", func(t *testing.T) {
		list := diag.New()
		list.Errorf("#/info", "missing title")
		list.Warnf("#/channels/a", "unused")
		list.Warnf("#/channels/b", "unused")

		var buf bytes.Buffer
		WriteDiagnostics(&buf, list)
		assert.Contains(t, buf.String(), "#/info: missing title\n")
		assert.Contains(t, buf.String(), "1 error(s), 2 warning(s), 0 info\n")
	})
}
