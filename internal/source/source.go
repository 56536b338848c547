// Package source runs the parse, load and resolve pipeline shared by the
// apigraph command and the MCP server.
package source

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/parser"
	"github.com/erraggy/apigraph/resolver"
	"github.com/erraggy/apigraph/workspace"
)

// Options configures a load.
type Options struct {
	// Mode selects how far references are resolved. ModeNone only parses.
	Mode resolver.Mode
	// MaxConcurrency bounds concurrent fetches of external resources.
	MaxConcurrency int
	// HTTPClient fetches http(s) resources; nil uses the workspace default.
	HTTPClient *http.Client
	// Logger receives parser and workspace logs.
	Logger parser.Logger
	// Metrics registers workspace metrics when set.
	Metrics prometheus.Registerer
}

// Loaded is a parsed document with every diagnostic recorded while
// parsing, loading and resolving it.
type Loaded struct {
	Result      *parser.Result
	Diagnostics *diag.List
	// Workspace is set when Mode is ModeFull
	Workspace *workspace.Workspace
	// Locator is the name the document was registered under
	Locator string
}

// File loads the document at path. External file references are read
// relative to its directory and never from outside of it.
func File(ctx context.Context, path string, opts Options) (*Loaded, error) {
	res, err := parser.ParseFile(path, parser.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}
	dir, name := filepath.Split(filepath.Clean(path))
	return finish(ctx, res, filepath.ToSlash(name), opts, workspace.WithBaseDir(dir))
}

// URL fetches and loads the document at locator. Only http(s) references
// are followed; relative ones resolve against locator.
func URL(ctx context.Context, locator string, opts Options) (*Loaded, error) {
	rc, err := (&workspace.HTTPLoader{Client: opts.HTTPClient}).Open(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	res, err := parser.ParseReader(rc, parser.WithSourceName(locator), parser.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}
	return finish(ctx, res, locator, opts, httpOnly(opts))
}

// Bytes loads a document given inline under name. Only absolute http(s)
// references are followed.
func Bytes(ctx context.Context, name string, data []byte, opts Options) (*Loaded, error) {
	res, err := parser.Parse(data, parser.WithSourceName(name), parser.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}
	return finish(ctx, res, name, opts, httpOnly(opts))
}

func httpOnly(opts Options) workspace.Option {
	return workspace.WithStreamLoader(&workspace.MultiLoader{
		HTTP: &workspace.HTTPLoader{Client: opts.HTTPClient},
	})
}

func finish(ctx context.Context, res *parser.Result, locator string, opts Options, loader workspace.Option) (*Loaded, error) {
	out := &Loaded{Result: res, Diagnostics: diag.New(), Locator: locator}
	out.Diagnostics.Merge(res.Diagnostics)

	switch opts.Mode {
	case resolver.ModeNone:
		return out, nil
	case resolver.ModeLocal:
		_, err := resolver.Resolve(ctx, res.Document, resolver.Options{
			Mode:        resolver.ModeLocal,
			Logger:      opts.Logger,
			Diagnostics: out.Diagnostics,
		})
		return out, err
	case resolver.ModeFull:
	default:
		return nil, fmt.Errorf("source: unknown resolution mode %v", opts.Mode)
	}

	wsOpts := []workspace.Option{
		loader,
		workspace.WithMaxConcurrency(opts.MaxConcurrency),
		workspace.WithLogger(opts.Logger),
		workspace.WithHTTPClient(opts.HTTPClient),
	}
	if opts.Metrics != nil {
		wsOpts = append(wsOpts, workspace.WithMetrics(opts.Metrics))
	}
	ws := workspace.New(wsOpts...)
	out.Workspace = ws

	loaded, err := ws.Load(ctx, locator, res.Document)
	if err != nil {
		return nil, err
	}
	out.Diagnostics.Merge(loaded)

	_, err = resolver.Resolve(ctx, res.Document, resolver.Options{
		Mode:        resolver.ModeFull,
		Workspace:   ws,
		Logger:      opts.Logger,
		Diagnostics: out.Diagnostics,
	})
	if err != nil {
		return nil, err
	}
	out.Diagnostics.Merge(ws.Diagnostics())
	return out, nil
}
