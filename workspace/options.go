package workspace

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erraggy/apigraph/parser"
)

const (
	// DefaultMaxConcurrency bounds the number of resources fetched at once.
	DefaultMaxConcurrency = 8

	// DefaultMaxFileSize is the largest resource accepted, in bytes.
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB
)

// Option configures a Workspace.
type Option func(*Workspace)

// WithStreamLoader replaces the default file and HTTP loaders.
func WithStreamLoader(l StreamLoader) Option {
	return func(w *Workspace) {
		if l != nil {
			w.loader = l
		}
	}
}

// WithHTTPClient sets the client of the default HTTP loader.
// It has no effect together with WithStreamLoader.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Workspace) { w.httpClient = c }
}

// WithBaseDir sets the directory file locators are relative to, and outside
// of which files cannot be read. Default: the working directory.
// It has no effect together with WithStreamLoader.
func WithBaseDir(dir string) Option {
	return func(w *Workspace) { w.baseDir = dir }
}

// WithMaxConcurrency bounds the number of concurrent fetches.
// Values <= 0 keep the default.
func WithMaxConcurrency(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.maxConcurrency = n
		}
	}
}

// WithMaxFileSize sets the largest resource accepted, in bytes.
// Values <= 0 keep the default.
func WithMaxFileSize(n int64) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.maxFileSize = n
		}
	}
}

// WithLogger sets the logger used to report fetches.
func WithLogger(l parser.Logger) Option {
	return func(w *Workspace) { w.logger = parser.OrNop(l) }
}

// WithMetrics registers the workspace metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(w *Workspace) { w.metrics = newMetrics(reg) }
}

// WithParseOptions adds parser options used for every fetched resource.
func WithParseOptions(opts ...parser.Option) Option {
	return func(w *Workspace) { w.parseOpts = append(w.parseOpts, opts...) }
}
