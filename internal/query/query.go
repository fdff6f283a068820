package query

import (
	"fmt"
	"strings"
)

// Occur is the participation of a clause in a Boolean query's match
// decision.
type Occur int

const (
	// Must clauses are required. Must is the zero value.
	Must Occur = iota
	// Should clauses are optional when a Must clause exists, otherwise at
	// least one of them is required.
	Should
	// MustNot clauses exclude matching documents.
	MustNot
)

// String returns the upper-case name of the occur.
func (o Occur) String() string {
	switch o {
	case Must:
		return "MUST"
	case Should:
		return "SHOULD"
	case MustNot:
		return "MUST_NOT"
	default:
		return fmt.Sprintf("Occur(%d)", int(o))
	}
}

// Invert swaps Must and MustNot. Should is returned unchanged.
func (o Occur) Invert() Occur {
	switch o {
	case Must:
		return MustNot
	case MustNot:
		return Must
	default:
		return o
	}
}

// ParseOccur parses an occur name. Matching is case-insensitive and
// accepts "must_not", "mustnot" and "not" for MustNot. The empty string is
// Must.
func ParseOccur(s string) (Occur, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "must":
		return Must, nil
	case "should":
		return Should, nil
	case "must_not", "mustnot", "not":
		return MustNot, nil
	default:
		return 0, fmt.Errorf("unknown occur %q", s)
	}
}

// NumericType is the declared subtype of a numeric field.
type NumericType int

const (
	// Int fields hold int32 values.
	Int NumericType = iota
	// Long fields hold int64 values.
	Long
	// Float fields hold float32 values.
	Float
	// Double fields hold float64 values.
	Double
)

func (t NumericType) String() string {
	switch t {
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("NumericType(%d)", int(t))
	}
}

// Accepts reports whether v has the Go type that backs the subtype.
func (t NumericType) Accepts(v any) bool {
	switch v.(type) {
	case int32:
		return t == Int
	case int64:
		return t == Long
	case float32:
		return t == Float
	case float64:
		return t == Double
	default:
		return false
	}
}

// Query is a node of the native query tree.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	fmt.Stringer
	queryNode()
}

// Term matches documents whose field contains exactly Text.
//
// A Boost of zero means unboosted.
type Term struct {
	Field string
	Text  string
	Boost float32
}

func (Term) queryNode() {}

// Wildcard matches terms of Field against Pattern, where `*` matches any
// run of characters and `?` a single character. A backslash escapes the
// following character.
type Wildcard struct {
	Field   string
	Pattern string
	Boost   float32
}

func (Wildcard) queryNode() {}

// TermRange matches terms of Field ordered between Lower and Upper.
// A nil bound is open.
type TermRange struct {
	Field        string
	Lower        *string
	Upper        *string
	IncludeLower bool
	IncludeUpper bool
	Boost        float32
}

func (TermRange) queryNode() {}

// NumericRange matches numeric values of Field between Min and Max.
//
// Min and Max hold the Go type backing Type (int32, int64, float32,
// float64) or nil for an open bound.
type NumericRange struct {
	Field      string
	Type       NumericType
	Min        any
	Max        any
	IncludeMin bool
	IncludeMax bool
	Boost      float32
}

func (NumericRange) queryNode() {}

// MatchAll matches every document.
type MatchAll struct {
	Boost float32
}

func (MatchAll) queryNode() {}

// Clause pairs a sub-query with its occur.
type Clause struct {
	Query Query
	Occur Occur
}

// Boolean combines clauses. Clause order is insertion order; it is kept for
// rendering only and never affects matching.
type Boolean struct {
	Clauses []Clause
	Boost   float32
}

func (Boolean) queryNode() {}

// NewBoolean creates a Boolean holding a copy of clauses.
func NewBoolean(clauses ...Clause) Boolean {
	return Boolean{Clauses: append([]Clause(nil), clauses...)}
}

// With returns a new Boolean with the receiver's clauses plus c.
// The receiver is left untouched.
func (b Boolean) With(c Clause) Boolean {
	clauses := make([]Clause, 0, len(b.Clauses)+1)
	clauses = append(clauses, b.Clauses...)
	clauses = append(clauses, c)
	return Boolean{Clauses: clauses, Boost: b.Boost}
}

// AllMustNot reports whether b has at least one clause and every clause is
// MustNot. Such a query matches nothing on its own.
func (b Boolean) AllMustNot() bool {
	if len(b.Clauses) == 0 {
		return false
	}
	for _, c := range b.Clauses {
		if c.Occur != MustNot {
			return false
		}
	}
	return true
}

// WithBoost returns a copy of q carrying boost.
func WithBoost(q Query, boost float32) Query {
	switch n := q.(type) {
	case Term:
		n.Boost = boost
		return n
	case Wildcard:
		n.Boost = boost
		return n
	case TermRange:
		n.Boost = boost
		return n
	case NumericRange:
		n.Boost = boost
		return n
	case MatchAll:
		n.Boost = boost
		return n
	case Boolean:
		n.Boost = boost
		return n
	default:
		return q
	}
}

// BoostOf returns the boost carried by q, or zero.
func BoostOf(q Query) float32 {
	switch n := q.(type) {
	case Term:
		return n.Boost
	case Wildcard:
		return n.Boost
	case TermRange:
		return n.Boost
	case NumericRange:
		return n.Boost
	case MatchAll:
		return n.Boost
	case Boolean:
		return n.Boost
	default:
		return 0
	}
}
