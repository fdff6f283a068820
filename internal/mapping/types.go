package mapping

import (
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/query"
)

// ValueType is the Go type backing a property value.
type ValueType int

const (
	String ValueType = iota
	Bool
	Int
	Int32
	Int64
	Float32
	Float64
	Time
	Duration
	// Custom values are opaque; they require an explicit converter.
	Custom
)

var valueTypeNames = map[ValueType]string{
	String:   "string",
	Bool:     "bool",
	Int:      "int",
	Int32:    "int32",
	Int64:    "int64",
	Float32:  "float32",
	Float64:  "float64",
	Time:     "time",
	Duration: "duration",
	Custom:   "custom",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// IsNumber reports whether t can back a numeric field.
func (t ValueType) IsNumber() bool {
	switch t {
	case Int, Int32, Int64, Float32, Float64:
		return true
	default:
		return false
	}
}

// ParseValueType parses a value type name as used in mapping files.
func ParseValueType(s string) (ValueType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return String, nil
	}
	for t, name := range valueTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown value type %q", s)
}

// IndexMode controls how a field is indexed.
type IndexMode int

const (
	// Analyzed fields are tokenized by the analyzer. Analyzed is the zero
	// value.
	Analyzed IndexMode = iota
	AnalyzedNoNorms
	// NotAnalyzed fields are indexed verbatim as a single term.
	NotAnalyzed
	NotAnalyzedNoNorms
	// NotIndexed fields are stored only.
	NotIndexed
)

var indexModeNames = map[IndexMode]string{
	Analyzed:           "analyzed",
	AnalyzedNoNorms:    "analyzed_no_norms",
	NotAnalyzed:        "not_analyzed",
	NotAnalyzedNoNorms: "not_analyzed_no_norms",
	NotIndexed:         "no",
}

func (m IndexMode) String() string {
	if name, ok := indexModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("IndexMode(%d)", int(m))
}

// ParseIndexMode parses an index mode name as used in mapping files.
func ParseIndexMode(s string) (IndexMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Analyzed, nil
	}
	for m, name := range indexModeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown index mode %q", s)
}

// StoreMode controls whether a field value is retrievable from the index.
type StoreMode int

const (
	Stored StoreMode = iota
	NotStored
)

func (m StoreMode) String() string {
	if m == NotStored {
		return "no"
	}
	return "yes"
}

// ParseStoreMode parses "yes"/"no" (empty means yes).
func ParseStoreMode(s string) (StoreMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yes", "true":
		return Stored, nil
	case "no", "false":
		return NotStored, nil
	default:
		return 0, fmt.Errorf("unknown store mode %q", s)
	}
}

// Property declares one mapped property of an entity type.
type Property struct {
	Name string
	Type ValueType

	// Collection marks a homogeneous collection of Type values.
	Collection bool

	// Score marks the property that receives the relevance score.
	Score bool

	Field   *FieldAnnotation
	Numeric *NumericAnnotation
}

// FieldAnnotation configures a text field.
type FieldAnnotation struct {
	Name          string
	Index         IndexMode
	Store         StoreMode
	CaseSensitive bool

	// Converter names a factory in the Registry.
	Converter string

	// Format is a date/time format string such as "yyyy-MM-dd'T'HH:mm:ss".
	Format string

	// Key marks the property identifying the document.
	Key bool

	// Alias allows the field name to repeat one declared earlier.
	Alias bool
}

// NumericAnnotation configures a numeric field.
type NumericAnnotation struct {
	Name  string
	Store StoreMode
}

// FieldDescriptor is the resolved metadata of one mapped property.
type FieldDescriptor struct {
	Property    string
	FieldName   string
	Type        ValueType
	Numeric     bool
	NumericType query.NumericType

	CaseSensitive bool
	Index         IndexMode
	Store         StoreMode

	// Converter is nil when values are used as text directly.
	Converter Converter

	Collection bool
	Key        bool
}

// Analyzed reports whether field text goes through the analyzer.
func (d FieldDescriptor) Analyzed() bool {
	return !d.Numeric && (d.Index == Analyzed || d.Index == AnalyzedNoNorms)
}

// Indexed reports whether the field is searchable at all.
func (d FieldDescriptor) Indexed() bool {
	return d.Index != NotIndexed
}

// Stored reports whether the field value is kept in the document.
func (d FieldDescriptor) Stored() bool {
	return d.Store == Stored
}

// Verbatim reports whether field text is indexed as a single untouched
// term. Non-string values are canonical text produced by a converter and
// are never tokenized.
func (d FieldDescriptor) Verbatim() bool {
	return !d.Analyzed() || d.Type != String
}

// Format converts a property value to field text.
// A nil value formats as the empty string.
func (d FieldDescriptor) Format(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if d.Converter != nil {
		s, err := d.Converter.ToString(v)
		if err != nil {
			return "", &MappingError{Property: d.Property, Message: "convert value to text", Err: err}
		}
		return s, nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// Parse converts field text back to a property value.
func (d FieldDescriptor) Parse(s string) (any, error) {
	if d.Converter != nil {
		v, err := d.Converter.FromString(s)
		if err != nil {
			return nil, &MappingError{Property: d.Property, Message: "convert text to value", Err: err}
		}
		return v, nil
	}
	if d.Type == String {
		return s, nil
	}
	conv, ok := defaultConverter(d.Type)
	if !ok {
		return nil, &MappingError{Property: d.Property, Message: fmt.Sprintf("no text conversion for %s", d.Type)}
	}
	v, err := conv.FromString(s)
	if err != nil {
		return nil, &MappingError{Property: d.Property, Message: "convert text to value", Err: err}
	}
	return v, nil
}

// numericTypeOf maps a numeric value type to the index subtype.
func numericTypeOf(t ValueType) (query.NumericType, bool) {
	switch t {
	case Int32:
		return query.Int, true
	case Int, Int64:
		return query.Long, true
	case Float32:
		return query.Float, true
	case Float64:
		return query.Double, true
	default:
		return 0, false
	}
}
