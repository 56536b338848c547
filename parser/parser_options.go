package parser

import (
	"io"
	"time"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/internal/options"
)

// Option is a function that configures a parse operation
type Option func(*parseConfig) error

// parseConfig holds configuration for a parse operation
type parseConfig struct {
	// Input source (exactly one must be set)
	filePath *string
	reader   io.Reader
	bytes    []byte

	logger    Logger
	extension ExtensionParser

	// Source identification
	sourceName  *string // Override SourcePath in the result
	baseLocator string

	// elementPointer is where ParseElement places the element
	elementPointer string
}

// ParseWithOptions parses an AsyncAPI document using functional options.
// This combines input source selection and configuration in a single call.
//
// Example:
//
//	result, err := parser.ParseWithOptions(
//	    parser.WithFilePath("asyncapi.yaml"),
//	    parser.WithLogger(parser.NewSlogAdapter(slog.Default())),
//	)
func ParseWithOptions(opts ...Option) (*Result, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, err
	}

	var data []byte
	var format SourceFormat
	sourcePath := ""
	loadStart := time.Now()
	switch {
	case cfg.filePath != nil:
		data, err = readFile(*cfg.filePath)
		if err != nil {
			return nil, err
		}
		sourcePath = *cfg.filePath
		format = detectFormatFromPath(sourcePath)
	case cfg.reader != nil:
		data, err = io.ReadAll(cfg.reader)
		if err != nil {
			return nil, &apierrors.ParseError{Message: "failed to read data", Cause: err}
		}
	default:
		data = cfg.bytes
	}

	loadTime := time.Since(loadStart)

	if format == "" || format == SourceFormatUnknown {
		format = DetectFormat(data)
	}
	if sourcePath == "" {
		sourcePath = defaultSourcePath(cfg, format)
	}
	if cfg.sourceName != nil {
		sourcePath = *cfg.sourceName
	}
	return parseData(data, sourcePath, format, loadTime, cfg)
}

// applyOptions applies option functions and validates configuration
func applyOptions(opts ...Option) (*parseConfig, error) {
	cfg := &parseConfig{
		logger:    NopLogger{},
		extension: DefaultExtensionParser,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := options.ValidateSingleInputSource(
		"parser: must specify an input source (use WithFilePath, WithReader, or WithBytes)",
		"parser: must specify exactly one input source",
		cfg.filePath != nil, cfg.reader != nil, cfg.bytes != nil,
	); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultSourcePath(cfg *parseConfig, format SourceFormat) string {
	name := "ParseBytes"
	if cfg.reader != nil {
		name = "ParseReader"
	}
	if format == SourceFormatJSON {
		return name + ".json"
	}
	return name + ".yaml"
}

// WithFilePath specifies a file path as the input source
func WithFilePath(path string) Option {
	return func(cfg *parseConfig) error {
		if path == "" {
			return &apierrors.ConfigError{Option: "WithFilePath", Message: "path cannot be empty"}
		}
		cfg.filePath = &path
		return nil
	}
}

// WithReader specifies an io.Reader as the input source
func WithReader(r io.Reader) Option {
	return func(cfg *parseConfig) error {
		if r == nil {
			return &apierrors.ConfigError{Option: "WithReader", Message: "reader cannot be nil"}
		}
		cfg.reader = r
		return nil
	}
}

// WithBytes specifies a byte slice as the input source
func WithBytes(data []byte) Option {
	return func(cfg *parseConfig) error {
		if data == nil {
			return &apierrors.ConfigError{Option: "WithBytes", Message: "bytes cannot be nil"}
		}
		cfg.bytes = data
		return nil
	}
}

// WithLogger sets a structured logger for debug output during parsing.
// By default, no logging is performed.
//
// Use NewSlogAdapter to wrap a *slog.Logger.
func WithLogger(l Logger) Option {
	return func(cfg *parseConfig) error {
		cfg.logger = OrNop(l)
		return nil
	}
}

// WithExtensionParser replaces the parser applied to "x-" fields.
// A nil parser restores DefaultExtensionParser.
func WithExtensionParser(p ExtensionParser) Option {
	return func(cfg *parseConfig) error {
		if p == nil {
			p = DefaultExtensionParser
		}
		cfg.extension = p
		return nil
	}
}

// WithSourceName overrides the SourcePath reported in the result.
func WithSourceName(name string) Option {
	return func(cfg *parseConfig) error {
		cfg.sourceName = &name
		return nil
	}
}

// WithBaseLocator qualifies every reference found in the document with
// locator, and sets it as the source of every diagnostic. Workspaces parse
// fetched resources with it so that references inside them resolve relative
// to the resource rather than to the seed document.
func WithBaseLocator(locator string) Option {
	return func(cfg *parseConfig) error {
		cfg.baseLocator = locator
		return nil
	}
}

// WithElementPointer places an element parsed by ParseElement at pointer
// within its resource, e.g. "#/Order" for an element read from a fragment
// file. Locations and diagnostic pointers are reported below it.
func WithElementPointer(pointer string) Option {
	return func(cfg *parseConfig) error {
		cfg.elementPointer = pointer
		return nil
	}
}
