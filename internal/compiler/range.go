package compiler

import (
	"fmt"

	"github.com/roach88/sift/internal/mapping"
	"github.com/roach88/sift/internal/predicate"
	"github.com/roach88/sift/internal/query"
)

// bound is an evaluated range bound.
type bound struct {
	kind  predicate.Kind
	value any
}

// buildRange builds a range query over d from at most one lower and one
// upper bound. Each bound's inclusivity follows its own kind; a missing
// bound is open and reported as inclusive.
func (c *Compiler) buildRange(d mapping.FieldDescriptor, lower, upper *bound) (query.Query, error) {
	if lower == nil && upper == nil {
		return nil, &QueryBuildError{Code: ErrCodeInvalidNode, Field: d.Property, Message: "range requires at least one bound"}
	}
	includeLower := lower == nil || lower.kind == predicate.GreaterOrEqual
	includeUpper := upper == nil || upper.kind == predicate.LessOrEqual

	if d.Numeric {
		q := query.NumericRange{
			Field:      d.FieldName,
			Type:       d.NumericType,
			IncludeMin: includeLower,
			IncludeMax: includeUpper,
		}
		var err error
		if lower != nil {
			if q.Min, err = numericValue(d, lower.value); err != nil {
				return nil, err
			}
		}
		if upper != nil {
			if q.Max, err = numericValue(d, upper.value); err != nil {
				return nil, err
			}
		}
		return q, nil
	}

	q := query.TermRange{
		Field:        d.FieldName,
		IncludeLower: includeLower,
		IncludeUpper: includeUpper,
	}
	var err error
	if lower != nil {
		if q.Lower, err = c.textBound(d, lower.value); err != nil {
			return nil, err
		}
	}
	if upper != nil {
		if q.Upper, err = c.textBound(d, upper.value); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// textBound converts v through the field's converter and normalizes it
// with the field's analyzer. Bounds are terms, not patterns.
func (c *Compiler) textBound(d mapping.FieldDescriptor, v any) (*string, error) {
	if v == nil {
		return nil, &QueryBuildError{Code: ErrCodeInvalidNode, Field: d.Property, Message: "range bound is nil"}
	}
	text, err := d.Format(v)
	if err != nil {
		return nil, err
	}
	term := c.analyzer.Analyze(d.FieldName, text)
	return &term, nil
}

// numericValue checks that v has the Go type backing the field's numeric
// subtype. A Go int is accepted for long fields.
func numericValue(d mapping.FieldDescriptor, v any) (any, error) {
	if v == nil {
		return nil, &QueryBuildError{Code: ErrCodeInvalidNode, Field: d.Property, Message: "numeric bound is nil"}
	}
	if n, ok := v.(int); ok && d.NumericType == query.Long {
		v = int64(n)
	}
	if !d.NumericType.Accepts(v) {
		return nil, &QueryBuildError{
			Code:    ErrCodeTypeMismatch,
			Field:   d.Property,
			Message: fmt.Sprintf("%v (%T) does not match %s field", v, v, d.NumericType),
		}
	}
	return v, nil
}
