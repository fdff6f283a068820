// Package compiler turns predicate trees into native queries.
//
// ARCHITECTURE:
//
//	[predicate.Node] → [post-order walk] → [query.Query]
//	                       ↑        ↑
//	              mapping.Mapping  textparse (per leaf)
//
// The walk is iterative: an explicit frame stack replays the recursion and
// a result stack holds compiled children, one query.Boolean per subtree.
// Every leaf compiles to a single-clause Boolean; And and Or pop their two
// children (right, then left) and merge them into a fresh Boolean under the
// single-clause absorption rule, which keeps chains of AND/OR flat.
//
// CONCURRENCY:
//
// A Compiler is immutable after New and safe for concurrent use. Each
// Compile call owns its stacks, evaluates every value thunk at most once
// and either returns a complete Result or an error, never a partial query.
//
// ERRORS:
//   - *mapping.MappingError: unknown field reference or failed conversion
//   - *QueryBuildError: numeric type mismatch, unsupported kind, malformed
//     node, rejected pattern
//   - errors returned by value thunks, unchanged
package compiler
