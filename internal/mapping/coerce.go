package mapping

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Coerce converts a loosely typed value, as decoded from YAML, JSON or CUE,
// into the Go type of the named property. Values already of the right type
// are returned unchanged; nil stays nil.
func (m *Mapping) Coerce(name string, raw any) (any, error) {
	d, err := m.Lookup(name)
	if err != nil {
		return nil, err
	}
	v, err := d.Coerce(raw)
	if err != nil {
		return nil, withEntity(err, m.entity)
	}
	return v, nil
}

// Coerce converts raw into the descriptor's Go value type.
func (d FieldDescriptor) Coerce(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := coerce(d, raw)
	if err != nil {
		return nil, &MappingError{Property: d.Property, Message: fmt.Sprintf("cannot use %v (%T) as %s", raw, raw, d.Type), Err: err}
	}
	return v, nil
}

func coerce(d FieldDescriptor, raw any) (any, error) {
	if s, ok := raw.(string); ok && d.Type != String {
		return d.Parse(s)
	}

	switch d.Type {
	case String:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return fmt.Sprint(raw), nil
	case Bool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case Int:
		n, err := toInt64(raw, math.MinInt, math.MaxInt)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case Int32:
		n, err := toInt64(raw, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case Int64:
		return toInt64(raw, math.MinInt64, math.MaxInt64)
	case Float32:
		f, err := toFloat64(raw)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case Float64:
		return toFloat64(raw)
	case Time:
		if t, ok := raw.(time.Time); ok {
			return t, nil
		}
	case Duration:
		switch v := raw.(type) {
		case time.Duration:
			return v, nil
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		}
	case Custom:
		return raw, nil
	}
	return nil, fmt.Errorf("unsupported source type")
}

func toInt64(raw any, lo, hi int64) (int64, error) {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}
		n = int64(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not integral", v)
		}
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("%v overflows int64", v)
		}
		n = int64(v)
	default:
		return 0, fmt.Errorf("unsupported source type")
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s out of range", strconv.FormatInt(n, 10))
	}
	return n, nil
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("unsupported source type")
	}
}
