// Package model defines the typed AsyncAPI object graph produced by the
// parser and mutated in place by the resolver.
//
// Every element that may be written as a "$ref" embeds [Ref]. A parsed
// reference becomes a placeholder (see [Placeholder]) whose Unresolved flag
// is set and whose Reference describes the target. Resolution replaces the
// placeholder pointer in its owning slot with the canonical element from a
// components table, so every user of a component shares one instance and
// cyclic schemas are plain pointer cycles.
//
// Ordered maps use sequencedmap so that document order is preserved.
// Struct fields carry `key` tags naming their AsyncAPI field, which lets
// arbitrary local JSON pointers be evaluated against the graph.
package model
