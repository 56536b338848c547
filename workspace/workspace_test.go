package workspace

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/parser"
	"github.com/erraggy/apigraph/resolver"
)

func parseFile(t *testing.T, path string) *model.Document {
	t.Helper()
	res, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.False(t, res.HasErrors(), res.Diagnostics.String())
	return res.Document
}

func parseString(t *testing.T, src string) *model.Document {
	t.Helper()
	res, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	require.False(t, res.HasErrors(), res.Diagnostics.String())
	return res.Document
}

func mapLoader(files map[string]string) *FileLoader {
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return &FileLoader{FS: fsys}
}

const pingSeed = `asyncapi: 2.6.0
info:
  title: Ping
  version: 1.0.0
channels:
  ping:
    publish:
      message:
        $ref: '%s'
`

func seedFor(t *testing.T, ref string) *model.Document {
	t.Helper()
	return parseString(t, strings.Replace(pingSeed, "%s", ref, 1))
}

func TestLoad_Files(t *testing.T) {
	ctx := context.Background()
	seed := parseFile(t, "../testdata/external/main.yaml")

	ws := New(WithBaseDir("../testdata/external"))
	diags, err := ws.Load(ctx, "main.yaml", seed)
	require.NoError(t, err)
	assert.Zero(t, diags.Len(), diags.String())

	assert.Equal(t, "main.yaml", seed.Location)
	assert.Same(t, ws, seed.Workspace)
	assert.Equal(t, []string{"common/messages.yaml", "main.yaml", "schemas.yaml"}, ws.Locators())
	assert.Equal(t, 3, ws.Len())
	assert.True(t, ws.Has("schemas.yaml"))
	assert.False(t, ws.Has("other.yaml"))

	// fragment files are registered but are not documents
	_, ok := ws.Get("schemas.yaml")
	assert.False(t, ok)
	require.Len(t, ws.Documents(), 2)

	more, err := resolver.ResolveWorkspace(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, more.Len(), more.String())
	assert.Zero(t, ws.Diagnostics().Len(), ws.Diagnostics().String())

	shared, ok := ws.Get("common/messages.yaml")
	require.True(t, ok)
	created, _ := shared.Components.Messages.Get("OrderCreated")
	cancelled, _ := shared.Components.Messages.Get("OrderCancelled")

	ch, _ := seed.Channels.Get("orders/created")
	assert.Same(t, created, ch.Subscribe.Message)
	ch, _ = seed.Channels.Get("orders/cancelled")
	assert.Same(t, cancelled, ch.Subscribe.Message)

	order, _ := shared.Components.Schemas.Get("Order")
	assert.Same(t, order, created.Payload)

	// resolved from the fragment file, including its inner reference
	require.NotNil(t, cancelled.Payload)
	assert.False(t, cancelled.Payload.IsUnresolved())
	assert.Equal(t, "#/Order", cancelled.Payload.Location)
	total, ok := cancelled.Payload.Properties.Get("total")
	require.True(t, ok)
	assert.Equal(t, []string{"amount"}, total.Required)

	money, _ := seed.Components.Schemas.Get("Money")
	assert.Same(t, total, money)
}

func TestLoad_QualifiedSeed(t *testing.T) {
	res, err := parser.ParseFile("../testdata/external/main.yaml", parser.WithBaseLocator("api/main.yaml"))
	require.NoError(t, err)

	ws := New(WithStreamLoader(LoaderFunc(func(_ context.Context, locator string) (io.ReadCloser, error) {
		return nil, &apierrors.FetchError{Locator: locator}
	})))
	diags, err := ws.Load(context.Background(), "other.yaml", res.Document)
	require.NoError(t, err)

	// the locator given at parse time wins
	assert.Equal(t, "api/main.yaml", res.Document.Location)
	assert.Len(t, diags.Filter("Failed to load api/common/messages.yaml"), 1)
	assert.Len(t, diags.Filter("Failed to load api/schemas.yaml"), 1)
}

func TestLoad_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing resource", func(t *testing.T) {
		seed := seedFor(t, "missing.yaml#/components/messages/Ping")
		ws := New(WithStreamLoader(mapLoader(nil)))

		diags, err := ws.Load(ctx, "main.yaml", seed)
		require.NoError(t, err)
		require.Equal(t, 1, diags.Len(), diags.String())
		d := diags.Items()[0]
		assert.Equal(t, diag.SeverityError, d.Severity)
		assert.Equal(t, "#/channels/ping/publish/message", d.Pointer)
		assert.Equal(t, "main.yaml", d.Source)
		assert.True(t, strings.HasPrefix(d.Message, "Failed to load missing.yaml: "), d.Message)
		assert.False(t, ws.Has("missing.yaml"))

		more, err := resolver.ResolveWorkspace(ctx, seed)
		require.NoError(t, err)
		assert.Len(t, more.Filter("External resource missing.yaml is not loaded"), 1)
	})

	t.Run("path traversal", func(t *testing.T) {
		seed := seedFor(t, "../outside.yaml#/components/messages/Ping")
		ws := New(WithStreamLoader(mapLoader(nil)))

		diags, err := ws.Load(ctx, "main.yaml", seed)
		require.NoError(t, err)
		assert.Len(t, diags.Filter("path traversal detected"), 1, diags.String())
	})

	t.Run("oversized resource", func(t *testing.T) {
		seed := seedFor(t, "big.yaml#/Ping")
		ws := New(
			WithStreamLoader(mapLoader(map[string]string{"big.yaml": "Ping:\n  name: Ping\n"})),
			WithMaxFileSize(10),
		)

		diags, err := ws.Load(ctx, "main.yaml", seed)
		require.NoError(t, err)
		assert.Len(t, diags.Filter("exceeds maximum size (10 bytes)"), 1, diags.String())
	})

	t.Run("unsupported version", func(t *testing.T) {
		seed := seedFor(t, "old.yaml#/components/messages/Ping")
		ws := New(WithStreamLoader(mapLoader(map[string]string{"old.yaml": "asyncapi: 1.2.0\n"})))

		diags, err := ws.Load(ctx, "main.yaml", seed)
		require.NoError(t, err)
		assert.Len(t, diags.Filter("Failed to load old.yaml: unsupported version"), 1, diags.String())
	})

	t.Run("invalid input", func(t *testing.T) {
		ws := New()
		_, err := ws.Load(ctx, "main.yaml", nil)
		require.ErrorIs(t, err, apierrors.ErrConfig)

		_, err = ws.Load(ctx, "", seedFor(t, "#/components/messages/Ping"))
		require.ErrorIs(t, err, apierrors.ErrConfig)
	})
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seed := parseFile(t, "../testdata/external/main.yaml")
	ws := New(WithBaseDir("../testdata/external"))
	_, err := ws.Load(ctx, "main.yaml", seed)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoad_FetchesOnce(t *testing.T) {
	var mu sync.Mutex
	opened := map[string]int{}
	files := mapLoader(map[string]string{
		"a.yaml": "Ping:\n  $ref: 'c.yaml#/Ping'\n",
		"b.yaml": "Ping:\n  $ref: 'c.yaml#/Ping'\n",
		"c.yaml": "Ping:\n  name: Ping\n  payload:\n    type: string\n",
	})
	counting := LoaderFunc(func(ctx context.Context, locator string) (io.ReadCloser, error) {
		mu.Lock()
		opened[locator]++
		mu.Unlock()
		return files.Open(ctx, locator)
	})

	seed := parseString(t, `asyncapi: 2.6.0
info:
  title: Ping
  version: 1.0.0
channels:
  a:
    publish:
      message:
        $ref: 'a.yaml#/Ping'
  b:
    publish:
      message:
        $ref: 'b.yaml#/Ping'
`)
	reg := prometheus.NewRegistry()
	ws := New(WithStreamLoader(counting), WithMaxConcurrency(2), WithMetrics(reg))
	diags, err := ws.Load(context.Background(), "main.yaml", seed)
	require.NoError(t, err)
	assert.Zero(t, diags.Len(), diags.String())
	assert.Equal(t, map[string]int{"a.yaml": 1, "b.yaml": 1, "c.yaml": 1}, opened)

	assert.InDelta(t, 3, testutil.ToFloat64(ws.metrics.fetches.WithLabelValues(resultOK)), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(ws.metrics.documents), 0)

	// a known resource is served from the registry
	r, fresh, err := ws.fetch(context.Background(), discovered{locator: "c.yaml"})
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, "c.yaml", r.locator)
	assert.Equal(t, 1, opened["c.yaml"])
	assert.InDelta(t, 1, testutil.ToFloat64(ws.metrics.fetches.WithLabelValues(resultCached)), 0)

	more, err := resolver.ResolveWorkspace(context.Background(), seed)
	require.NoError(t, err)
	assert.Zero(t, more.Len(), more.String())
	a, _ := seed.Channels.Get("a")
	b, _ := seed.Channels.Get("b")
	require.NotNil(t, a.Publish.Message)
	assert.Equal(t, "Ping", a.Publish.Message.Name)
	assert.Same(t, a.Publish.Message, b.Publish.Message)
}

func TestLoad_ConcurrentLoadsShareFetch(t *testing.T) {
	const ext = `asyncapi: 2.6.0
info:
  title: Ext
  version: 1.0.0
  color: blue
channels: {}
components:
  messages:
    Ping:
      payload:
        $ref: '#/components/schemas/Ping'
  schemas:
    Ping:
      type: string
`
	files := mapLoader(map[string]string{"ext.yaml": ext})
	release := make(chan struct{})
	var mu sync.Mutex
	opened := 0
	slow := LoaderFunc(func(ctx context.Context, locator string) (io.ReadCloser, error) {
		mu.Lock()
		opened++
		mu.Unlock()
		<-release
		return files.Open(ctx, locator)
	})
	ws := New(WithStreamLoader(slow))

	seeds := []*model.Document{
		seedFor(t, "ext.yaml#/components/messages/Ping"),
		seedFor(t, "ext.yaml#/components/messages/Ping"),
	}
	lists := make([]*diag.List, len(seeds))
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := ws.Load(context.Background(), []string{"one.yaml", "two.yaml"}[i], seed)
			assert.NoError(t, err)
			lists[i] = list
		}()
	}
	// give both Loads time to reach the shared fetch
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, opened)
	unrecognized := 0
	for _, list := range lists {
		unrecognized += len(list.Filter("Unrecognized field 'color'"))
	}
	assert.Equal(t, 1, unrecognized, "the fetched resource's diagnostics are merged exactly once")

	doc, ok := ws.Get("ext.yaml")
	require.True(t, ok)
	msg, ok := doc.Components.Messages.Get("Ping")
	require.True(t, ok)
	require.NotNil(t, msg.Payload)
	assert.False(t, msg.Payload.IsUnresolved(), "both Loads return after ext.yaml is resolved")
}

func TestResolve_FragmentFiles(t *testing.T) {
	ctx := context.Background()
	files := mapLoader(map[string]string{
		"schemas.yaml": `Node:
  type: object
  properties:
    next:
      $ref: '#/Node'
A:
  $ref: '#/B'
B:
  $ref: '#/A'
Broken:
  $ref: '#/Nowhere'
`,
	})
	seed := parseString(t, `asyncapi: 2.6.0
info:
  title: Fragments
  version: 1.0.0
channels: {}
components:
  schemas:
    Node:
      $ref: 'schemas.yaml#/Node'
    Loop:
      $ref: 'schemas.yaml#/A'
`)
	ws := New(WithStreamLoader(files))
	diags, err := ws.Load(ctx, "main.yaml", seed)
	require.NoError(t, err)
	assert.Zero(t, diags.Len(), diags.String())

	more, err := resolver.ResolveWorkspace(ctx, seed)
	require.NoError(t, err)
	assert.Len(t, more.Filter("Circular reference schemas.yaml#/A"), 1, more.String())

	node, _ := seed.Components.Schemas.Get("Node")
	require.False(t, node.IsUnresolved())
	next, _ := node.Properties.Get("next")
	assert.Same(t, node, next)

	t.Run("cached per fragment", func(t *testing.T) {
		ref := model.ParseRefAs("schemas.yaml#/Node", model.RefKindSchema)
		el, ok := ws.Resolve(ref)
		require.True(t, ok)
		assert.Same(t, node, el)
	})

	t.Run("unknown kind reads a schema", func(t *testing.T) {
		el, ok := ws.Resolve(model.ParseRef("schemas.yaml#/Node"))
		require.True(t, ok)
		assert.Same(t, node, el)
	})

	t.Run("missing fragment", func(t *testing.T) {
		_, ok := ws.Resolve(model.ParseRefAs("schemas.yaml#/Missing", model.RefKindSchema))
		assert.False(t, ok)
	})

	t.Run("whole resource", func(t *testing.T) {
		_, ok := ws.Resolve(model.ParseRefAs("schemas.yaml", model.RefKindMessage))
		assert.False(t, ok)
		el, ok := ws.Resolve(model.ParseRefAs("schemas.yaml", model.RefKindSchema))
		require.True(t, ok)
		assert.IsType(t, &model.Schema{}, el)
	})

	t.Run("broken inner reference", func(t *testing.T) {
		el, ok := ws.Resolve(model.ParseRefAs("schemas.yaml#/Broken", model.RefKindSchema))
		require.True(t, ok)
		assert.True(t, model.IsPlaceholder(el))
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, ok := ws.Resolve(model.ParseRefAs("nope.yaml#/Node", model.RefKindSchema))
		assert.False(t, ok)
		_, ok = ws.Resolve(nil)
		assert.False(t, ok)
	})
}
