// Package predicate defines the predicate AST: the typed tree a caller's
// search criteria are translated into before compilation.
//
// ARCHITECTURE:
//
//	[caller criteria] → [Predicate AST] → [compiler] → [native query]
//
// The compiler never depends on how a tree was built. Trees may come from
// the helper constructors in this package, from a YAML predicate document
// (DecodeYAML) or from any other translation layer.
//
// SEALED INTERFACE:
//
// Node is sealed with a marker method; only the types in this package
// implement it:
//   - And, Or: logical combinators over two sub-predicates
//   - Compare: a field compared with a lazily evaluated value
//   - Between: a lower and an upper bound on one field
//   - AnyField: a pattern searched across every mapped field
//   - Raw: an already built native query injected verbatim
//
// LAZY VALUES:
//
// Compare values are thunks. The compiler evaluates each one exactly once,
// when the walk reaches the node, so a thunk may capture variables whose
// value is only known at compile time.
package predicate
