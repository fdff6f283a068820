// Package query defines the native query tree produced by the compiler and
// executed by the search engine.
//
// Query is a sealed interface: only the node types in this package
// implement it, so engines can use exhaustive type switches.
//
//	switch q := q.(type) {
//	case Term:
//	case Wildcard:
//	case TermRange:
//	case NumericRange:
//	case Boolean:
//	case MatchAll:
//	}
//
// IMMUTABILITY:
//
// All nodes are plain values. Nothing in this package mutates a node after
// construction; Boolean.With and WithBoost return new values. A compiled
// tree can therefore be shared between goroutines without copying.
//
// STRING FORM:
//
// String renders the tree in the classic Lucene query syntax
// (`+name:jo* +age:[18 TO *]`). The rendering is stable and is used for
// golden tests and CLI output.
package query
