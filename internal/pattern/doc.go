// Package pattern provides a small basic-graph-pattern query representation
// used to read configuration and system database content.
//
// A Query is a conjunction of triple patterns, optionally scoped to a graph.
// The same Query is evaluated two ways:
//
//	[Query] → Match            (in-memory rdf.Graph)
//	        → patternsql       (quad table in a storage handle)
//
// Both evaluators produce the same bindings in the same order for the same
// data, which keeps assembly results independent of where the triples live.
//
// SEALED INTERFACES:
//
// Term is a sealed interface using the marker method pattern. Only Var and
// Const implement it, so evaluators can switch exhaustively:
//
//	switch t := term.(type) {
//	case Var:
//	    // bind or join
//	case Const:
//	    // filter
//	}
//
// SCOPE:
//
// Supported: conjunctions of triple patterns, a default-graph, fixed-graph or
// variable-graph scope, and explicit projection.
//
// Not supported: OPTIONAL, UNION, FILTER expressions, aggregation. Callers
// needing those filter the bindings in Go.
package pattern
