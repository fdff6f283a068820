package mapping

import (
	"fmt"
	"sort"
	"time"

	"github.com/roach88/sift/internal/analysis"
)

// Describe derives the FieldDescriptor of a single property.
//
// Score properties have no descriptor; Build handles them separately and
// Describe rejects them.
func Describe(p Property, reg *Registry) (FieldDescriptor, error) {
	if p.Name == "" {
		return FieldDescriptor{}, &MappingError{Message: "property name is required"}
	}
	if p.Score {
		return FieldDescriptor{}, &MappingError{Property: p.Name, Message: "score property has no field"}
	}
	if reg == nil {
		reg = NewRegistry()
	}

	if p.Numeric != nil {
		return describeNumeric(p)
	}
	return describePrimitive(p, reg)
}

func describeNumeric(p Property) (FieldDescriptor, error) {
	if p.Field != nil {
		return FieldDescriptor{}, &MappingError{Property: p.Name, Message: "field and numeric annotations are exclusive"}
	}
	nt, ok := numericTypeOf(p.Type)
	if !ok {
		return FieldDescriptor{}, &MappingError{
			Property: p.Name,
			Message:  fmt.Sprintf("numeric annotation requires a numeric type, got %s", p.Type),
		}
	}
	name := p.Numeric.Name
	if name == "" {
		name = p.Name
	}
	return FieldDescriptor{
		Property:    p.Name,
		FieldName:   name,
		Type:        p.Type,
		Numeric:     true,
		NumericType: nt,
		Index:       NotAnalyzed,
		Store:       p.Numeric.Store,
		Collection:  p.Collection,
	}, nil
}

func describePrimitive(p Property, reg *Registry) (FieldDescriptor, error) {
	ann := FieldAnnotation{}
	if p.Field != nil {
		ann = *p.Field
	}

	d := FieldDescriptor{
		Property:   p.Name,
		FieldName:  ann.Name,
		Type:       p.Type,
		Index:      ann.Index,
		Store:      ann.Store,
		Collection: p.Collection,
		Key:        ann.Key,
	}
	if d.FieldName == "" {
		d.FieldName = p.Name
	}
	d.CaseSensitive = ann.CaseSensitive || ann.Index == NotAnalyzed || ann.Index == NotAnalyzedNoNorms

	conv, err := resolveConverter(p, ann, reg)
	if err != nil {
		return FieldDescriptor{}, err
	}
	d.Converter = conv

	if conv != nil {
		if err := checkRoundTrip(p.Type, conv); err != nil {
			return FieldDescriptor{}, &MappingError{Property: p.Name, Message: "converter does not round-trip", Err: err}
		}
	}
	return d, nil
}

// resolveConverter applies the converter precedence: explicit converter,
// time converter, none for strings, default for the value type.
func resolveConverter(p Property, ann FieldAnnotation, reg *Registry) (Converter, error) {
	if ann.Converter != "" {
		c, err := reg.New(ann.Converter)
		if err != nil {
			return nil, &MappingError{Property: p.Name, Message: "instantiate converter", Err: err}
		}
		return c, nil
	}

	if p.Type == Time || ann.Format != "" {
		if p.Type != Time {
			return nil, &MappingError{
				Property: p.Name,
				Message:  fmt.Sprintf("format %q requires a time property, got %s", ann.Format, p.Type),
			}
		}
		format := ann.Format
		if format == "" {
			format = DefaultTimeFormat
		}
		c, err := NewTimeConverter(format)
		if err != nil {
			return nil, &MappingError{Property: p.Name, Message: "invalid time format", Err: err}
		}
		return c, nil
	}

	if p.Type == String {
		return nil, nil
	}

	c, ok := defaultConverter(p.Type)
	if !ok {
		return nil, &MappingError{
			Property: p.Name,
			Message:  fmt.Sprintf("no text conversion for %s; declare a converter", p.Type),
		}
	}
	return c, nil
}

// zeroValue returns the zero value of t, or false when t has no known Go
// type.
func zeroValue(t ValueType) (any, bool) {
	switch t {
	case String:
		return "", true
	case Bool:
		return false, true
	case Int:
		return 0, true
	case Int32:
		return int32(0), true
	case Int64:
		return int64(0), true
	case Float32:
		return float32(0), true
	case Float64:
		return float64(0), true
	case Time:
		return time.Time{}, true
	case Duration:
		return time.Duration(0), true
	default:
		return nil, false
	}
}

func checkRoundTrip(t ValueType, c Converter) error {
	zero, ok := zeroValue(t)
	if !ok {
		return nil
	}
	s, err := c.ToString(zero)
	if err != nil {
		return err
	}
	back, err := c.FromString(s)
	if err != nil {
		return err
	}
	if !sameValue(zero, back) {
		return fmt.Errorf("%v became %v (%T) after %q", zero, back, back, s)
	}
	return nil
}

func sameValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

// Mapping is the frozen field metadata of one entity type.
type Mapping struct {
	entity     string
	fields     []FieldDescriptor
	byProperty map[string]int
	byField    map[string]int
	names      []string
	score      string
	scoreType  ValueType
	key        string
}

// Build derives descriptors for every property and freezes them into a
// Mapping. A nil registry uses NewRegistry().
func Build(entity string, props []Property, reg *Registry) (*Mapping, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	m := &Mapping{
		entity:     entity,
		byProperty: make(map[string]int, len(props)),
		byField:    make(map[string]int, len(props)),
	}

	seen := make(map[string]bool, len(props))
	for _, p := range props {
		if seen[p.Name] {
			return nil, &MappingError{Entity: entity, Property: p.Name, Message: "duplicate property"}
		}
		seen[p.Name] = true

		if p.Score {
			if m.score != "" {
				return nil, &MappingError{Entity: entity, Property: p.Name, Message: fmt.Sprintf("score property already declared as %s", m.score)}
			}
			if p.Type != Float32 && p.Type != Float64 {
				return nil, &MappingError{Entity: entity, Property: p.Name, Message: fmt.Sprintf("score property must be float32 or float64, got %s", p.Type)}
			}
			m.score = p.Name
			m.scoreType = p.Type
			continue
		}

		d, err := Describe(p, reg)
		if err != nil {
			return nil, withEntity(err, entity)
		}

		if prev, exists := m.byField[d.FieldName]; exists {
			if p.Field == nil || !p.Field.Alias {
				return nil, &MappingError{
					Entity:   entity,
					Property: p.Name,
					Message:  fmt.Sprintf("field name %q already used by %s", d.FieldName, m.fields[prev].Property),
				}
			}
		}

		if d.Key {
			if m.key != "" {
				return nil, &MappingError{Entity: entity, Property: p.Name, Message: fmt.Sprintf("key already declared as %s", m.key)}
			}
			if d.Collection {
				return nil, &MappingError{Entity: entity, Property: p.Name, Message: "key property cannot be a collection"}
			}
			m.key = p.Name
		}

		idx := len(m.fields)
		m.fields = append(m.fields, d)
		m.byProperty[d.Property] = idx
		if _, exists := m.byField[d.FieldName]; !exists {
			m.byField[d.FieldName] = idx
			m.names = append(m.names, d.FieldName)
		}
	}

	sort.Strings(m.names)
	return m, nil
}

func withEntity(err error, entity string) error {
	if me, ok := err.(*MappingError); ok && me.Entity == "" {
		cp := *me
		cp.Entity = entity
		return &cp
	}
	return err
}

// Entity returns the entity type name.
func (m *Mapping) Entity() string { return m.entity }

// Lookup resolves a property name or field name to its descriptor.
// Property names take precedence.
func (m *Mapping) Lookup(name string) (FieldDescriptor, error) {
	if idx, ok := m.byProperty[name]; ok {
		return m.fields[idx], nil
	}
	if idx, ok := m.byField[name]; ok {
		return m.fields[idx], nil
	}
	return FieldDescriptor{}, &MappingError{Entity: m.entity, Property: name, Message: "unknown field"}
}

// AllFieldNames returns the distinct index field names, sorted.
func (m *Mapping) AllFieldNames() []string {
	return append([]string(nil), m.names...)
}

// Fields returns every descriptor in declaration order.
func (m *Mapping) Fields() []FieldDescriptor {
	return append([]FieldDescriptor(nil), m.fields...)
}

// ScoreProperty returns the property receiving the relevance score, or "".
func (m *Mapping) ScoreProperty() string { return m.score }

// ScoreType returns the value type of the score property.
func (m *Mapping) ScoreType() ValueType { return m.scoreType }

// KeyProperty returns the property identifying documents, or "".
func (m *Mapping) KeyProperty() string { return m.key }

// Analyzer returns the per-field analyzer matching how fields are indexed:
// verbatim fields use Keyword, case-sensitive analyzed fields keep case,
// every other field uses def (Standard when nil).
func (m *Mapping) Analyzer(def analysis.Analyzer) analysis.Analyzer {
	if def == nil {
		def = analysis.Standard{}
	}
	overrides := make(map[string]analysis.Analyzer)
	for _, d := range m.fields {
		switch {
		case d.Verbatim():
			overrides[d.FieldName] = analysis.Keyword{}
		case d.CaseSensitive:
			overrides[d.FieldName] = analysis.Standard{PreserveCase: true}
		}
	}
	return analysis.NewPerField(def, overrides)
}
