package mcpserver

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/parser"
	"github.com/erraggy/apigraph/resolver"
)

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	tests := []struct {
		name   string
		items  []int
		offset int
		limit  int
		want   []int
	}{
		{
			name:   "default limit returns all when under 100",
			items:  items,
			offset: 0,
			limit:  0,
			want:   []int{0, 1, 2, 3, 4},
		},
		{
			name:   "explicit limit",
			items:  items,
			offset: 0,
			limit:  2,
			want:   []int{0, 1},
		},
		{
			name:   "offset only",
			items:  items,
			offset: 2,
			limit:  0,
			want:   []int{2, 3, 4},
		},
		{
			name:   "offset and limit",
			items:  items,
			offset: 1,
			limit:  2,
			want:   []int{1, 2},
		},
		{
			name:   "offset at end",
			items:  items,
			offset: 4,
			limit:  2,
			want:   []int{4},
		},
		{
			name:   "offset beyond end",
			items:  items,
			offset: 5,
			limit:  2,
			want:   nil,
		},
		{
			name:   "negative offset",
			items:  items,
			offset: -1,
			limit:  2,
			want:   nil,
		},
		{
			name:   "limit exceeds remaining",
			items:  items,
			offset: 3,
			limit:  10,
			want:   []int{3, 4},
		},
		{
			name:   "nil slice",
			items:  nil,
			offset: 0,
			limit:  2,
			want:   nil,
		},
		{
			name:   "empty slice",
			items:  []int{},
			offset: 0,
			limit:  2,
			want:   nil,
		},
		{
			name:   "negative limit treated as default",
			items:  items,
			offset: 0,
			limit:  -1,
			want:   []int{0, 1, 2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paginate(tt.items, tt.offset, tt.limit)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetailLimit(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"zero returns default", 0, 25},
		{"negative returns default", -1, 25},
		{"explicit 50", 50, 50},
		{"explicit 10", 10, 10},
		{"explicit 200", 200, 200},
		{"boundary 1", 1, 1},
		{"max int returns itself", math.MaxInt, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detailLimit(tt.input))
		})
	}
}

func TestPaginate_OverflowLimit(t *testing.T) {
	items := []int{0, 1, 2}
	got := paginate(items, 1, math.MaxInt)
	assert.Equal(t, []int{1, 2}, got)
}

func TestPaginate_DefaultLimit(t *testing.T) {
	items := make([]int, 150)
	for i := range items {
		items[i] = i
	}
	got := paginate(items, 0, 0)
	assert.Len(t, got, 100, "default limit should cap at 100 items")
}

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error returns empty string",
			err:  nil,
			want: "",
		},
		{
			name: "strips absolute path",
			err:  fmt.Errorf("failed to open /home/user/secret/asyncapi.yaml: no such file"),
			want: "failed to open <path>: no such file",
		},
		{
			name: "preserves non-path content",
			err:  fmt.Errorf("unsupported version: asyncapi \"1.2.0\""),
			want: "unsupported version: asyncapi \"1.2.0\"",
		},
		{
			name: "strips multiple paths",
			err:  fmt.Errorf("loading /tmp/a.yaml: resolving /tmp/b.yaml failed"),
			want: "loading <path>: resolving <path> failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeError(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaginate_MaxLimitCap(t *testing.T) {
	// Generate items exceeding MaxLimit.
	items := make([]int, 1500)
	for i := range items {
		items[i] = i
	}
	// Request a limit higher than MaxLimit (default 1000).
	got := paginate(items, 0, 1500)
	assert.Len(t, got, cfg.MaxLimit, "limit should be capped at MaxLimit")
}

func TestGroupAndSort(t *testing.T) {
	items := []string{"application/json", "application/avro", "application/json", "text/plain", "application/avro", "application/json"}
	groups := groupAndSort(items, func(s string) []string { return []string{s} })
	assert.Equal(t, []groupCount{
		{Key: "application/json", Count: 3},
		{Key: "application/avro", Count: 2},
		{Key: "text/plain", Count: 1},
	}, groups)
}

func TestValidateGroupBy(t *testing.T) {
	allowed := []string{"kind", "resource"}

	assert.NoError(t, validateGroupBy("", true, allowed))
	assert.NoError(t, validateGroupBy("KIND", false, allowed))

	err := validateGroupBy("kind", true, allowed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot use both group_by and detail")

	err = validateGroupBy("channel", false, allowed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid group_by value "channel"; valid values: kind, resource`)
}

func TestValidateGlobPattern(t *testing.T) {
	assert.NoError(t, validateGlobPattern(""))
	assert.NoError(t, validateGlobPattern("Order"))
	assert.NoError(t, validateGlobPattern("Order*"))
	assert.Error(t, validateGlobPattern("Order["))
}

func TestMatchGlobName(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"OrderCreated", "ordercreated", true},
		{"OrderCreated", "Order*", true},
		{"OrderCreated", "*Cancelled", false},
		{"lightMeasured", "light?easured", true},
		{"turnOn", "turnOff", false},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, matchGlobName(tt.name, tt.pattern))
		})
	}
}

func TestLoadMode(t *testing.T) {
	orig := cfg.ResolveMode
	t.Cleanup(func() { cfg.ResolveMode = orig })
	cfg.ResolveMode = resolver.ModeLocal

	mode, err := loadMode("")
	require.NoError(t, err)
	assert.Equal(t, resolver.ModeLocal, mode)

	mode, err = loadMode("full")
	require.NoError(t, err)
	assert.Equal(t, resolver.ModeFull, mode)

	_, err = loadMode("deep")
	assert.Error(t, err)
}

func TestDiagnosticItems(t *testing.T) {
	assert.Nil(t, diagnosticItems(nil))

	list := diag.New()
	list.Add(diag.Diagnostic{
		Pointer:  "#/channels/ping/publish/message",
		Message:  "Failed to load /home/me/api/missing.yaml: not found",
		Severity: diag.SeverityError,
		Source:   "main.yaml",
		Line:     7,
	})
	items := diagnosticItems(list.Items())
	require.Len(t, items, 1)
	assert.Equal(t, diagnosticItem{
		Severity: "error",
		Pointer:  "#/channels/ping/publish/message",
		Message:  "Failed to load <path>: not found",
		Source:   "main.yaml",
		Line:     7,
	}, items[0])
}

func TestServerLogger(t *testing.T) {
	assert.IsType(t, parser.NopLogger{}, serverLogger())
}
