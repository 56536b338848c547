package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/erraggy/apigraph/resolver"
	"github.com/erraggy/apigraph/workspace"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Cache settings.
	CacheEnabled       bool
	CacheMaxSize       int
	CacheFileTTL       time.Duration
	CacheURLTTL        time.Duration
	CacheContentTTL    time.Duration
	CacheSweepInterval time.Duration

	// Walk tool defaults.
	WalkLimit       int
	WalkDetailLimit int
	MaxLimit        int

	// Loading.
	ResolveMode     resolver.Mode
	MaxConcurrency  int
	MaxInlineSize   int64
	AllowPrivateIPs bool
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from APIGRAPH_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		CacheEnabled:       envBool("APIGRAPH_CACHE_ENABLED", true),
		CacheMaxSize:       envInt("APIGRAPH_CACHE_MAX_SIZE", 10),
		CacheFileTTL:       envDuration("APIGRAPH_CACHE_FILE_TTL", 15*time.Minute),
		CacheURLTTL:        envDuration("APIGRAPH_CACHE_URL_TTL", 5*time.Minute),
		CacheContentTTL:    envDuration("APIGRAPH_CACHE_CONTENT_TTL", 15*time.Minute),
		CacheSweepInterval: envDuration("APIGRAPH_CACHE_SWEEP_INTERVAL", 60*time.Second),
		WalkLimit:          envInt("APIGRAPH_WALK_LIMIT", 100),
		WalkDetailLimit:    envInt("APIGRAPH_WALK_DETAIL_LIMIT", 25),
		MaxLimit:           envInt("APIGRAPH_MAX_LIMIT", 1000),
		ResolveMode:        envMode("APIGRAPH_RESOLVE_MODE", resolver.ModeFull),
		MaxConcurrency:     envInt("APIGRAPH_MAX_CONCURRENCY", workspace.DefaultMaxConcurrency),
		MaxInlineSize:      int64(envInt("APIGRAPH_MAX_INLINE_SIZE", 10*1024*1024)),
		AllowPrivateIPs:    envBool("APIGRAPH_ALLOW_PRIVATE_IPS", false),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return d
}

func envMode(key string, fallback resolver.Mode) resolver.Mode {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	m, err := resolver.ParseMode(v)
	if err != nil {
		slog.Warn("invalid resolve mode env var, using default", "key", key, "value", v, "default", fallback.String()) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return m
}
