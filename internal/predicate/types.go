package predicate

import (
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/query"
)

// Node is a predicate AST node.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	predicateNode() // Marker method - seals interface to this package
}

// Kind selects how a Compare value is matched against a field.
type Kind int

const (
	Equals Kind = iota
	Prefix
	Suffix
	Wildcard
	GreaterThan
	GreaterOrEqual
	LessThan
	LessOrEqual
)

var kindNames = map[Kind]string{
	Equals:         "eq",
	Prefix:         "prefix",
	Suffix:         "suffix",
	Wildcard:       "contains",
	GreaterThan:    "gt",
	GreaterOrEqual: "gte",
	LessThan:       "lt",
	LessOrEqual:    "lte",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses the short kind names used in predicate files.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "wildcard" {
		return Wildcard, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown comparison kind %q", s)
}

// IsRange reports whether k compares against an ordered bound.
func (k Kind) IsRange() bool {
	switch k {
	case GreaterThan, GreaterOrEqual, LessThan, LessOrEqual:
		return true
	default:
		return false
	}
}

// IsLower reports whether k bounds values from below.
func (k Kind) IsLower() bool {
	return k == GreaterThan || k == GreaterOrEqual
}

// Value produces the compared value. It is evaluated at most once per
// compile.
type Value func() (any, error)

// Const returns a Value that always yields v.
func Const(v any) Value {
	return func() (any, error) { return v, nil }
}

// And requires both sub-predicates.
type And struct {
	Left  Node
	Right Node
}

func (And) predicateNode() {}

// Or requires at least one sub-predicate.
type Or struct {
	Left  Node
	Right Node
}

func (Or) predicateNode() {}

// Compare matches a field against a value.
//
// Field may name a property or an index field. Boost of zero means
// unboosted. AllowSpecialChars passes the converted text to the pattern
// parser without escaping, so callers can embed query syntax.
type Compare struct {
	Field             string
	Kind              Kind
	Value             Value
	Occur             query.Occur
	Boost             float32
	AllowSpecialChars bool
}

func (Compare) predicateNode() {}

// Between bounds one field from below and above.
//
// Lower must be GreaterThan or GreaterOrEqual and Upper LessThan or
// LessOrEqual; either may be nil, not both. Occur and Boost apply to the
// combined range; those of the bounds are ignored.
type Between struct {
	Lower *Compare
	Upper *Compare
	Occur query.Occur
	Boost float32
}

func (Between) predicateNode() {}

// AnyField searches Pattern across every mapped field.
type AnyField struct {
	Pattern string
	Occur   query.Occur
}

func (AnyField) predicateNode() {}

// Raw injects an already built native query.
type Raw struct {
	Query query.Query
	Boost float32
	Occur query.Occur
}

func (Raw) predicateNode() {}
