// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

// Package pathutil provides JSON pointer building utilities for document
// traversal and diagnostics.
//
// The primary type is [PointerBuilder], which uses push/pop semantics to build
// RFC 6901 pointers incrementally without allocating intermediate strings.
// Segments are escaped only when the pointer is materialized, which happens
// when a diagnostic is recorded.
//
// # PointerBuilder Usage
//
// Use [Get] to obtain a pooled PointerBuilder, and [Put] to return it:
//
//	ptr := pathutil.Get()
//	defer pathutil.Put(ptr)
//
//	ptr.Push("channels")
//	ptr.Push("user/signedup")
//	// ptr.String() == "#/channels/user~1signedup"
//
// # Reference Builders
//
// The package also provides builders for component references:
//
//	ref := pathutil.ComponentRef(pathutil.TableSchemas, "User") // "#/components/schemas/User"
//
// and [SplitComponentRef] for the inverse operation.
package pathutil
