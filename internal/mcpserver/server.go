// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes apigraph capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/apigraph"
	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/parser"
	"github.com/erraggy/apigraph/resolver"
)

const serverInstructions = `apigraph MCP server: parses AsyncAPI 2.x/3.x documents, resolves their $ref references across files and URLs, and walks the resulting graph.

Configuration: All defaults are configurable via APIGRAPH_* environment variables set in your MCP client config.

Key settings:
- APIGRAPH_RESOLVE_MODE (default: full) - default resolution for resolve and walk_messages: none, local or full
- APIGRAPH_CACHE_FILE_TTL (default: 15m) - cache TTL for local file documents
- APIGRAPH_CACHE_URL_TTL (default: 5m) - cache TTL for URL-fetched documents
- APIGRAPH_CACHE_ENABLED (default: true) - disable document caching entirely
- APIGRAPH_WALK_LIMIT (default: 100) - default result limit for walk tools
- APIGRAPH_WALK_DETAIL_LIMIT (default: 25) - default limit in detail mode
- APIGRAPH_MAX_CONCURRENCY (default: 8) - concurrent fetches of external resources
- APIGRAPH_ALLOW_PRIVATE_IPS (default: false) - allow fetching from private and loopback addresses

Inline content never reads local files: only absolute http(s) references are followed. File inputs follow references within their own directory.

Caching: Loaded documents are cached per session and per resolution mode. File entries use path+mtime as key (auto-invalidated on change). URL entries are cached with a shorter TTL. A background sweeper removes expired entries every 60s.`

var logger atomic.Pointer[parser.Logger]

// serverLogger returns the logger given to Run, or a no-op logger.
func serverLogger() parser.Logger {
	if l := logger.Load(); l != nil {
		return *l
	}
	return parser.NopLogger{}
}

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context, l parser.Logger) error {
	l = parser.OrNop(l)
	logger.Store(&l)

	if cfg.CacheEnabled {
		specCache.startSweeper(ctx, cfg.CacheSweepInterval)
	}

	server := newServer()
	l.Debug("mcp server starting", "version", apigraph.Version())
	return server.Run(ctx, &mcp.StdioTransport{})
}

func newServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "apigraph", Version: apigraph.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse",
		Description: "Parse an AsyncAPI 2.x or 3.0 document. Returns a structural summary: title, version, AsyncAPI version, counts of servers, channels, operations, messages and schemas, the servers and tags, and parse diagnostics. Set resolve=true to resolve local references before counting.",
	}, handleParse)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve",
		Description: "Resolve the $ref references of an AsyncAPI document. Mode full (the default, configurable via APIGRAPH_RESOLVE_MODE) loads every referenced file or URL into a workspace and resolves across it; mode local only resolves references into the document itself. Returns the loaded resources, the number of references left unresolved, and diagnostics for broken, circular or mistyped references. Use offset/limit to paginate diagnostics.",
	}, handleResolve)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "walk_refs",
		Description: "Walk and count $ref references in an AsyncAPI document. By default, returns unique ref targets ranked by reference count (most-referenced first). Use target to filter to a specific ref (supports * glob, e.g. *messages/Order*). Use detail=true to see individual JSON pointer locations instead of counts. Filter by kind (schema, message, parameter, messageTrait, ...) or externals=true for references into other resources. Use group_by=kind to get distribution counts by element kind. With mode local or full only references left unresolved are reported.",
	}, handleWalkRefs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "walk_messages",
		Description: "Walk and query messages in an AsyncAPI document after resolution. Filter by name (glob), content type, or component=true for messages defined under components. Returns summaries (name, JSON pointer, content type, payload type) by default or payload schemas and headers with detail=true. Messages reached through a resolved reference are reported once, where they are defined. Use group_by=content_type to get distribution counts.",
	}, handleWalkMessages)
}

// loadMode returns the resolution mode named by name, or the configured
// default when name is empty.
func loadMode(name string) (resolver.Mode, error) {
	if name == "" {
		return cfg.ResolveMode, nil
	}
	return resolver.ParseMode(name)
}

// diagnosticItem is the structured form of a diagnostic.
type diagnosticItem struct {
	Severity string `json:"severity"`
	Pointer  string `json:"pointer"`
	Message  string `json:"message"`
	Source   string `json:"source,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

func diagnosticItems(items []diag.Diagnostic) []diagnosticItem {
	out := makeSlice[diagnosticItem](len(items))
	for _, d := range items {
		out = append(out, diagnosticItem{
			Severity: d.Severity.String(),
			Pointer:  d.Pointer,
			Message:  pathPattern.ReplaceAllString(d.Message, "<path>"),
			Source:   d.Source,
			Line:     d.Line,
			Column:   d.Column,
		})
	}
	return out
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.WalkLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.WalkLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// detailLimit returns a lower default limit for detail mode output.
// When the user hasn't specified an explicit limit (limit <= 0),
// detail mode defaults to cfg.WalkDetailLimit to keep output manageable.
func detailLimit(limit int) int {
	if limit <= 0 {
		return cfg.WalkDetailLimit
	}
	return limit
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

// groupCount represents a single group in group_by results.
type groupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// groupAndSort groups items by key, sorts by count descending (ties
// broken alphabetically by key), and returns the sorted groups.
func groupAndSort[T any](items []T, keyFn func(T) []string) []groupCount {
	counts := make(map[string]int)
	for _, item := range items {
		for _, key := range keyFn(item) {
			counts[key]++
		}
	}
	groups := make([]groupCount, 0, len(counts))
	for key, count := range counts {
		groups = append(groups, groupCount{Key: key, Count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// validateGroupBy checks that group_by is a valid value and is not combined with detail.
func validateGroupBy(groupBy string, detail bool, allowed []string) error {
	if groupBy == "" {
		return nil
	}
	if detail {
		return fmt.Errorf("cannot use both group_by and detail")
	}
	for _, a := range allowed {
		if strings.EqualFold(groupBy, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid group_by value %q; valid values: %s", groupBy, strings.Join(allowed, ", "))
}

// validateGlobPattern checks whether a glob pattern is syntactically valid.
// Call this once before a filter loop so matchGlobName/matchRefGlob never
// encounter an invalid pattern at match time.
func validateGlobPattern(pattern string) error {
	if pattern == "" || !strings.ContainsAny(pattern, "*?[") {
		return nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return nil
}

// matchGlobName matches a name against a pattern. If the pattern contains
// glob characters (* or ?), it uses case-insensitive filepath.Match.
// Otherwise, it falls back to case-insensitive exact match.
func matchGlobName(name, pattern string) bool {
	if strings.ContainsAny(pattern, "*?") {
		matched, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(name))
		return err == nil && matched
	}
	return strings.EqualFold(name, pattern)
}
