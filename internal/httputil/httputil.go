// Package httputil provides media type helpers for message content types.
package httputil

import (
	"mime"
	"strings"
)

// IsValidMediaType validates a media type string according to RFC 2045/2046.
// Handles wildcards (*/* and type/*) and prevents invalid combinations (*/subtype).
func IsValidMediaType(mediaType string) bool {
	if mediaType == "*/*" {
		return true
	}

	if strings.HasSuffix(mediaType, "/*") {
		parts := strings.Split(mediaType, "/")
		return len(parts) == 2 && parts[0] != "" && parts[0] != "*"
	}

	_, _, err := mime.ParseMediaType(mediaType)
	return err == nil
}

// BaseMediaType returns the lowercased type/subtype of mediaType without
// parameters. Unparseable values are returned trimmed and lowercased.
func BaseMediaType(mediaType string) string {
	base, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return base
}

// MatchMediaType reports whether mediaType matches pattern, ignoring
// parameters and case. pattern may be a wildcard such as */* or text/*.
func MatchMediaType(mediaType, pattern string) bool {
	p := BaseMediaType(pattern)
	m := BaseMediaType(mediaType)
	switch {
	case p == "*/*":
		return m != ""
	case strings.HasSuffix(p, "/*"):
		return strings.HasPrefix(m, strings.TrimSuffix(p, "*"))
	default:
		return m == p
	}
}
