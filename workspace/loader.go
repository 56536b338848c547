package workspace

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/erraggy/apigraph"
	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/internal/pathutil"
)

// StreamLoader opens the resource named by a locator.
type StreamLoader interface {
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
}

// LoaderFunc adapts a function to StreamLoader.
type LoaderFunc func(ctx context.Context, locator string) (io.ReadCloser, error)

// Open implements StreamLoader.
func (f LoaderFunc) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	return f(ctx, locator)
}

// FileLoader opens slash separated paths relative to the root of FS.
// Paths escaping the root are rejected.
type FileLoader struct {
	FS fs.FS
}

// NewFileLoader returns a FileLoader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	if dir == "" {
		dir = "."
	}
	return &FileLoader{FS: os.DirFS(dir)}
}

// Open implements StreamLoader.
func (l *FileLoader) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Clean(strings.TrimPrefix(locator, "./"))
	if !fs.ValidPath(name) {
		return nil, &apierrors.ReferenceError{
			Ref:             locator,
			RefType:         "file",
			IsPathTraversal: true,
		}
	}
	f, err := l.FS.Open(name)
	if err != nil {
		return nil, &apierrors.FetchError{Locator: locator, Cause: err}
	}
	return f, nil
}

// HTTPLoader fetches http and https locators with GET requests.
type HTTPLoader struct {
	// Client performs the requests; nil uses a client with a 30 second timeout.
	Client *http.Client
	// UserAgent is sent with every request; empty uses apigraph.UserAgent().
	UserAgent string
}

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Open implements StreamLoader. Responses other than 200 OK are errors.
func (l *HTTPLoader) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, &apierrors.FetchError{Locator: locator, Cause: err}
	}
	ua := l.UserAgent
	if ua == "" {
		ua = apigraph.UserAgent()
	}
	req.Header.Set("User-Agent", ua)

	client := l.Client
	if client == nil {
		client = defaultHTTPClient
	}
	resp, err := client.Do(req) //nolint:gosec // G107 - locators come from the documents being loaded
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apierrors.FetchError{Locator: locator, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &apierrors.FetchError{
			Locator:    locator,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return resp.Body, nil
}

// MultiLoader dispatches http and https locators to HTTP and everything else
// to File.
type MultiLoader struct {
	File StreamLoader
	HTTP StreamLoader
}

// Open implements StreamLoader.
func (l *MultiLoader) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	next := l.File
	if pathutil.IsURL(locator) {
		next = l.HTTP
	}
	if next == nil {
		return nil, &apierrors.FetchError{Locator: locator, Cause: fmt.Errorf("no loader for locator")}
	}
	return next.Open(ctx, locator)
}
