package workspace

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/apigraph"
	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/resolver"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestFileLoader(t *testing.T) {
	ctx := context.Background()
	l := mapLoader(map[string]string{"common/a.yaml": "a: 1\n"})

	t.Run("relative path", func(t *testing.T) {
		rc, err := l.Open(ctx, "./common/a.yaml")
		require.NoError(t, err)
		assert.Equal(t, "a: 1\n", readAll(t, rc))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := l.Open(ctx, "common/b.yaml")
		require.ErrorIs(t, err, apierrors.ErrFetch)
	})

	for _, locator := range []string{"../a.yaml", "/etc/passwd", "common/../../a.yaml"} {
		t.Run("rejects "+locator, func(t *testing.T) {
			_, err := l.Open(ctx, locator)
			require.ErrorIs(t, err, apierrors.ErrPathTraversal)
		})
	}

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := l.Open(cctx, "common/a.yaml")
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("directory", func(t *testing.T) {
		rc, err := NewFileLoader("../testdata/external").Open(ctx, "schemas.yaml")
		require.NoError(t, err)
		assert.Contains(t, readAll(t, rc), "Money:")
	})
}

func TestHTTPLoader(t *testing.T) {
	var mu sync.Mutex
	var agent string
	userAgent := func() string {
		mu.Lock()
		defer mu.Unlock()
		return agent
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agent = r.Header.Get("User-Agent")
		mu.Unlock()
		if r.URL.Path != "/common.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "a: 1\n")
	}))
	defer srv.Close()

	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		rc, err := (&HTTPLoader{Client: srv.Client()}).Open(ctx, srv.URL+"/common.yaml")
		require.NoError(t, err)
		assert.Equal(t, "a: 1\n", readAll(t, rc))
		assert.Equal(t, apigraph.UserAgent(), userAgent())
	})

	t.Run("custom user agent", func(t *testing.T) {
		rc, err := (&HTTPLoader{Client: srv.Client(), UserAgent: "test/1"}).Open(ctx, srv.URL+"/common.yaml")
		require.NoError(t, err)
		_ = readAll(t, rc)
		assert.Equal(t, "test/1", userAgent())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := (&HTTPLoader{}).Open(ctx, srv.URL+"/missing.yaml")
		var ferr *apierrors.FetchError
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, http.StatusNotFound, ferr.StatusCode)
	})
}

func TestMultiLoader(t *testing.T) {
	ctx := context.Background()
	var got []string
	record := func(name string) StreamLoader {
		return LoaderFunc(func(_ context.Context, locator string) (io.ReadCloser, error) {
			got = append(got, name+" "+locator)
			return io.NopCloser(strings.NewReader("")), nil
		})
	}

	l := &MultiLoader{File: record("file"), HTTP: record("http")}
	for _, locator := range []string{"a.yaml", "https://example.com/a.yaml", "http://example.com/b.yaml"} {
		_, err := l.Open(ctx, locator)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"file a.yaml",
		"http https://example.com/a.yaml",
		"http http://example.com/b.yaml",
	}, got)

	_, err := (&MultiLoader{File: record("file")}).Open(ctx, "https://example.com/a.yaml")
	require.ErrorIs(t, err, apierrors.ErrFetch)
}

func TestLoad_HTTP(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path != "/api/shared/messages.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `asyncapi: 2.6.0
info:
  title: Shared
  version: 1.0.0
channels: {}
components:
  messages:
    Ping:
      name: Ping
      payload:
        type: string
`)
	}))
	defer srv.Close()

	ctx := context.Background()
	seed := parseString(t, `asyncapi: 2.6.0
info:
  title: Remote
  version: 1.0.0
channels:
  ping:
    publish:
      message:
        $ref: 'shared/messages.yaml#/components/messages/Ping'
  pong:
    publish:
      message:
        $ref: 'shared/missing.yaml#/components/messages/Pong'
`)
	ws := New(WithHTTPClient(srv.Client()))
	diags, err := ws.Load(ctx, srv.URL+"/api/asyncapi.yaml", seed)
	require.NoError(t, err)
	require.Equal(t, 1, diags.Len(), diags.String())
	assert.Contains(t, diags.Items()[0].Message, "status 404")
	assert.ElementsMatch(t, []string{"/api/shared/messages.yaml", "/api/shared/missing.yaml"}, paths)

	shared, ok := ws.Get(srv.URL + "/api/shared/messages.yaml")
	require.True(t, ok)
	ping, _ := shared.Components.Messages.Get("Ping")

	more, err := resolver.ResolveWorkspace(ctx, seed)
	require.NoError(t, err)
	assert.Len(t, more.Filter("is not loaded"), 1, more.String())
	ch, _ := seed.Channels.Get("ping")
	assert.Same(t, ping, ch.Publish.Message)
}
