// Package rdf provides the graph model every other internal package builds on.
//
// This package contains the node, statement and graph types, the
// configuration vocabulary, the canonical N-Triples term encoding and the
// content-derived naming used by the system database. It imports nothing
// internal; all other packages import rdf.
//
// Key design constraints:
//   - Node is a comparable value type; a node's identity inside one graph is
//     its value.
//   - Graph is immutable once built. Iteration follows insertion order so
//     repeated reads of an unmodified graph are deterministic.
//   - Resource binds a node to the graph it was read from. Two Resources are
//     the same descriptor only if both graph and node match, which keeps
//     value-equal descriptors from different files apart.
//   - Simple literals and xsd:string literals are the same term; both are
//     stored with an empty Datatype.
package rdf
