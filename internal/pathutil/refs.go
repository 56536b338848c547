// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

package pathutil

import (
	"net/url"
	"path"
	"strings"
)

// ComponentsPrefix is the fragment prefix shared by every component reference.
const ComponentsPrefix = "#/components/"

// Component table names as they appear under "components".
const (
	TableSchemas           = "schemas"
	TableMessages          = "messages"
	TableParameters        = "parameters"
	TableSecuritySchemes   = "securitySchemes"
	TableCorrelationIDs    = "correlationIds"
	TableOperationTraits   = "operationTraits"
	TableMessageTraits     = "messageTraits"
	TableServerBindings    = "serverBindings"
	TableChannelBindings   = "channelBindings"
	TableOperationBindings = "operationBindings"
	TableMessageBindings   = "messageBindings"
	TableServers           = "servers"
	TableChannels          = "channels"
	TableOperations        = "operations"
)

// ComponentRef builds "#/components/{table}/{name}", escaping name per RFC 6901.
func ComponentRef(table, name string) string {
	return Join("components", table, name)
}

// SplitComponentRef splits "#/components/{table}/{name}" into table and name.
// ok is false when fragment does not address a single component.
func SplitComponentRef(fragment string) (table, name string, ok bool) {
	if !strings.HasPrefix(fragment, ComponentsPrefix) && !strings.HasPrefix(fragment, "/components/") {
		return "", "", false
	}
	parts := Split(fragment)
	if len(parts) != 3 || parts[0] != "components" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// AsyncAPI 3 component tables.
const (
	TableServerVariables = "serverVariables"
	TableReplies         = "replies"
	TableReplyAddresses  = "replyAddresses"
	TableTags            = "tags"
	TableExternalDocs    = "externalDocs"
)

// ResolveLocator resolves rel against the locator base refers from. URLs are
// resolved per RFC 3986; file locators are joined as slash separated paths
// relative to the directory of base. An empty rel yields base.
func ResolveLocator(base, rel string) string {
	if rel == "" {
		return base
	}
	if IsURL(rel) {
		return rel
	}
	if IsURL(base) {
		b, err := url.Parse(base)
		if err != nil {
			return rel
		}
		r, err := url.Parse(rel)
		if err != nil {
			return rel
		}
		return b.ResolveReference(r).String()
	}
	if strings.HasPrefix(rel, "/") {
		return path.Clean(rel)
	}
	return path.Clean(path.Join(path.Dir(base), rel))
}

// IsURL reports whether locator is an http or https URL.
func IsURL(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}
