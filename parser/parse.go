package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/internal/pathutil"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
)

// SourceFormat represents the format of the source document
type SourceFormat string

const (
	// SourceFormatYAML indicates the source was in YAML format
	SourceFormatYAML SourceFormat = "yaml"
	// SourceFormatJSON indicates the source was in JSON format
	SourceFormatJSON SourceFormat = "json"
	// SourceFormatUnknown indicates the source format could not be determined
	SourceFormatUnknown SourceFormat = "unknown"
)

// Result contains a parsed document and the diagnostics recorded while
// building it.
type Result struct {
	// Document is the typed object graph; nil when parsing failed fatally
	Document *model.Document
	// Diagnostics holds every recoverable problem found while parsing
	Diagnostics *diag.List
	// Version is the loader the document was parsed with
	Version Version
	// RawVersion is the version string found in the indicator field
	RawVersion string
	// Format is the source format (JSON or YAML)
	Format SourceFormat
	// SourcePath is the file path or the name given with WithSourceName
	SourcePath string
	// SourceSize is the size of the source in bytes
	SourceSize int64
	// LoadTime is the time spent reading the source
	LoadTime time.Duration
	// Root is the node tree the document was built from. It is set whenever
	// the text parsed, even if version detection then failed.
	Root *node.Node
}

// HasErrors reports whether error severity diagnostics were recorded.
func (r *Result) HasErrors() bool {
	return r != nil && r.Diagnostics.HasErrors()
}

// Parse parses an AsyncAPI document from data.
//
// Syntax errors, a non-map root and a missing or unsupported version are
// fatal: the error is non-nil and the returned Result has a nil Document.
// Every other problem is a diagnostic in Result.Diagnostics.
func Parse(data []byte, opts ...Option) (*Result, error) {
	return ParseWithOptions(append([]Option{WithBytes(data)}, opts...)...)
}

// ParseReader parses an AsyncAPI document read from r.
func ParseReader(r io.Reader, opts ...Option) (*Result, error) {
	return ParseWithOptions(append([]Option{WithReader(r)}, opts...)...)
}

// ParseFile parses the AsyncAPI document stored at path.
func ParseFile(path string, opts ...Option) (*Result, error) {
	return ParseWithOptions(append([]Option{WithFilePath(path)}, opts...)...)
}

// DetectFormat guesses the format from content: JSON objects and arrays
// start with '{' or '['; anything else is treated as YAML.
func DetectFormat(data []byte) SourceFormat {
	trimmed := bytes.TrimLeft(data, " \t\n\r")
	if len(trimmed) == 0 {
		return SourceFormatUnknown
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return SourceFormatJSON
	}
	return SourceFormatYAML
}

// detectFormatFromPath detects the source format from a file path
func detectFormatFromPath(path string) SourceFormat {
	switch filepath.Ext(path) {
	case ".json":
		return SourceFormatJSON
	case ".yaml", ".yml":
		return SourceFormatYAML
	default:
		return SourceFormatUnknown
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: failed to read file: %w", err)
	}
	return data, nil
}

func newParseContext(diags *diag.List, cfg *parseConfig) *Context {
	ctx := NewContext(diags, cfg.logger)
	ctx.ext = cfg.extension
	ctx.base = cfg.baseLocator
	return ctx
}

func parseData(data []byte, sourcePath string, format SourceFormat, loadTime time.Duration, cfg *parseConfig) (*Result, error) {
	start := time.Now()
	res := &Result{
		Diagnostics: diag.New(),
		Format:      format,
		SourcePath:  sourcePath,
		SourceSize:  int64(len(data)),
		LoadTime:    loadTime,
	}

	root, err := node.Parse(data)
	if err != nil {
		var perr *apierrors.ParseError
		if errors.As(err, &perr) && perr.Path == "" {
			perr.Path = sourcePath
		}
		return res, err
	}
	res.Root = root

	m, err := root.AsMap()
	if err != nil {
		var serr *apierrors.ShapeError
		if errors.As(err, &serr) {
			serr.Fatal = true
		}
		return res, fmt.Errorf("parser: document root: %w", err)
	}

	version, raw, err := DetectVersion(m)
	res.Version, res.RawVersion = version, raw
	if err != nil {
		return res, err
	}
	loader, err := LoaderFor(version)
	if err != nil {
		return res, err
	}

	ctx := newParseContext(res.Diagnostics, cfg)
	res.Document = loader.LoadDocument(root, ctx)
	cfg.logger.Debug("parsed document",
		"source", sourcePath,
		"version", raw,
		"diagnostics", res.Diagnostics.Len(),
		"elapsed", time.Since(start))
	return res, nil
}

// ParseElement parses data as a single element of the given kind using the
// registries of version. It returns the element (a typed pointer such as
// *model.Message, or a placeholder when data is a reference object) and the
// diagnostics recorded while building it. Input options other than the
// source are honored; WithFilePath, WithReader and WithBytes are ignored.
func ParseElement(kind ElementKind, data []byte, version Version, opts ...Option) (any, *diag.List, error) {
	root, err := node.Parse(data)
	if err != nil {
		return nil, diag.New(), err
	}
	return ParseElementNode(kind, root, version, opts...)
}

// ParseElementNode is ParseElement over an already parsed node tree.
func ParseElementNode(kind ElementKind, n *node.Node, version Version, opts ...Option) (any, *diag.List, error) {
	diags := diag.New()
	cfg := &parseConfig{logger: NopLogger{}, extension: DefaultExtensionParser}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, diags, err
		}
	}
	loader, err := LoaderFor(version)
	if err != nil {
		return nil, diags, err
	}
	ctx := newParseContext(diags, cfg)
	for _, seg := range pathutil.Split(cfg.elementPointer) {
		ctx.Enter(seg)
	}
	v, err := loader.LoadElement(kind, n, ctx)
	return v, diags, err
}
