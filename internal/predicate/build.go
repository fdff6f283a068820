package predicate

import (
	"errors"
	"fmt"

	"github.com/roach88/sift/internal/query"
)

// Eq matches field equal to v.
func Eq(field string, v any) Compare {
	return Compare{Field: field, Kind: Equals, Value: Const(v)}
}

// StartsWith matches field values beginning with prefix.
func StartsWith(field, prefix string) Compare {
	return Compare{Field: field, Kind: Prefix, Value: Const(prefix)}
}

// EndsWith matches field values ending with suffix.
func EndsWith(field, suffix string) Compare {
	return Compare{Field: field, Kind: Suffix, Value: Const(suffix)}
}

// Contains matches field values containing s.
func Contains(field, s string) Compare {
	return Compare{Field: field, Kind: Wildcard, Value: Const(s)}
}

func Gt(field string, v any) Compare {
	return Compare{Field: field, Kind: GreaterThan, Value: Const(v)}
}

func Gte(field string, v any) Compare {
	return Compare{Field: field, Kind: GreaterOrEqual, Value: Const(v)}
}

func Lt(field string, v any) Compare {
	return Compare{Field: field, Kind: LessThan, Value: Const(v)}
}

func Lte(field string, v any) Compare {
	return Compare{Field: field, Kind: LessOrEqual, Value: Const(v)}
}

// Lazy builds a comparison whose value is produced by fn at compile time.
func Lazy(field string, kind Kind, fn Value) Compare {
	return Compare{Field: field, Kind: kind, Value: fn}
}

// InRange bounds a field with lower and upper. Either may be nil.
func InRange(lower, upper *Compare) Between {
	return Between{Lower: lower, Upper: upper}
}

// WithOccur returns a copy of c with occur set.
func (c Compare) WithOccur(o query.Occur) Compare {
	c.Occur = o
	return c
}

// WithBoost returns a copy of c with boost set.
func (c Compare) WithBoost(b float32) Compare {
	c.Boost = b
	return c
}

// Field returns the field bounded by b.
func (b Between) Field() string {
	if b.Lower != nil {
		return b.Lower.Field
	}
	if b.Upper != nil {
		return b.Upper.Field
	}
	return ""
}

// Validate checks bound kinds and that both bounds name the same field.
func (b Between) Validate() error {
	if b.Lower == nil && b.Upper == nil {
		return errors.New("between requires at least one bound")
	}
	if b.Lower != nil && !b.Lower.Kind.IsLower() {
		return fmt.Errorf("lower bound must be gt or gte, got %s", b.Lower.Kind)
	}
	if b.Upper != nil && (!b.Upper.Kind.IsRange() || b.Upper.Kind.IsLower()) {
		return fmt.Errorf("upper bound must be lt or lte, got %s", b.Upper.Kind)
	}
	if b.Lower != nil && b.Upper != nil && b.Lower.Field != b.Upper.Field {
		return fmt.Errorf("bounds name different fields %q and %q", b.Lower.Field, b.Upper.Field)
	}
	return nil
}

// AllOf folds nodes into a left-deep And chain. Nil nodes are skipped; it
// returns nil when nothing remains, which compiles to match-all.
func AllOf(nodes ...Node) Node {
	return fold(nodes, func(l, r Node) Node { return And{Left: l, Right: r} })
}

// AnyOf folds nodes into a left-deep Or chain. Nil nodes are skipped.
func AnyOf(nodes ...Node) Node {
	return fold(nodes, func(l, r Node) Node { return Or{Left: l, Right: r} })
}

func fold(nodes []Node, join func(l, r Node) Node) Node {
	var acc Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if acc == nil {
			acc = n
			continue
		}
		acc = join(acc, n)
	}
	return acc
}

// ErrNotNegatable is returned by Not for nodes whose complement cannot be
// expressed by inverting occurs.
var ErrNotNegatable = errors.New("predicate cannot be negated")

// Not returns the complement of n. Leaves invert their occur (Must and
// MustNot swap); And and Or are rewritten with De Morgan's laws. Leaves
// with occur Should have no complement.
func Not(n Node) (Node, error) {
	switch v := n.(type) {
	case Compare:
		o, err := invert(v.Occur)
		if err != nil {
			return nil, fmt.Errorf("not %s(%s): %w", v.Kind, v.Field, err)
		}
		v.Occur = o
		return v, nil
	case Between:
		o, err := invert(v.Occur)
		if err != nil {
			return nil, fmt.Errorf("not between(%s): %w", v.Field(), err)
		}
		v.Occur = o
		return v, nil
	case AnyField:
		o, err := invert(v.Occur)
		if err != nil {
			return nil, fmt.Errorf("not any(%q): %w", v.Pattern, err)
		}
		v.Occur = o
		return v, nil
	case Raw:
		o, err := invert(v.Occur)
		if err != nil {
			return nil, fmt.Errorf("not raw: %w", err)
		}
		v.Occur = o
		return v, nil
	case And:
		l, r, err := notBoth(v.Left, v.Right)
		if err != nil {
			return nil, err
		}
		return Or{Left: l, Right: r}, nil
	case Or:
		l, r, err := notBoth(v.Left, v.Right)
		if err != nil {
			return nil, err
		}
		return And{Left: l, Right: r}, nil
	case nil:
		return nil, fmt.Errorf("not of empty predicate: %w", ErrNotNegatable)
	default:
		return nil, fmt.Errorf("not %T: %w", n, ErrNotNegatable)
	}
}

func notBoth(left, right Node) (Node, Node, error) {
	l, err := Not(left)
	if err != nil {
		return nil, nil, err
	}
	r, err := Not(right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func invert(o query.Occur) (query.Occur, error) {
	if o == query.Should {
		return 0, fmt.Errorf("occur %s: %w", o, ErrNotNegatable)
	}
	return o.Invert(), nil
}
