// Package docmap maps plain records to and from index documents using the
// field metadata of a mapping.
//
// A Record is keyed by property name. A Document is the flat, typed field
// list an index consumes: one Field per value, collections expanded to
// repeated fields with the same name.
package docmap

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/roach88/sift/internal/mapping"
	"github.com/roach88/sift/internal/query"
)

// Record is a plain object keyed by property name.
type Record map[string]any

// Field is one value of a document field.
type Field struct {
	Name string `json:"name"`

	// Text holds the value of text fields.
	Text string `json:"text,omitempty"`

	// Number holds the value of numeric fields, typed per NumericType.
	Number      any               `json:"number,omitempty"`
	Numeric     bool              `json:"numeric,omitempty"`
	NumericType query.NumericType `json:"numeric_type,omitempty"`

	Stored   bool `json:"stored"`
	Indexed  bool `json:"indexed"`
	Analyzed bool `json:"analyzed"`
}

// Document is the flat field list of one indexed object.
type Document struct {
	ID     string  `json:"id"`
	Fields []Field `json:"fields"`
}

// Values returns the fields named name, in order.
func (d Document) Values(name string) []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

// Mapper converts records of one entity type.
type Mapper struct {
	m *mapping.Mapping
}

// New creates a Mapper for m.
func New(m *mapping.Mapping) *Mapper {
	return &Mapper{m: m}
}

// Mapping returns the underlying mapping.
func (mp *Mapper) Mapping() *mapping.Mapping { return mp.m }

// ToDocument converts r into a Document. Values are coerced to their
// property type first, so records decoded from YAML or JSON map cleanly.
// Unknown properties and keys naming an index field rather than a property
// are rejected; the score property is ignored; nil values produce no field.
func (mp *Mapper) ToDocument(r Record) (Document, error) {
	for _, name := range sortedKeys(r) {
		if name == mp.m.ScoreProperty() {
			continue
		}
		d, err := mp.m.Lookup(name)
		if err != nil {
			return Document{}, err
		}
		if d.Property != name {
			return Document{}, &mapping.MappingError{
				Entity:   mp.m.Entity(),
				Property: name,
				Message:  fmt.Sprintf("record keys name properties; use %q for field %q", d.Property, name),
			}
		}
	}

	var doc Document
	for _, d := range mp.m.Fields() {
		raw, ok := r[d.Property]
		if !ok || raw == nil {
			continue
		}

		values := []any{raw}
		if d.Collection {
			var err error
			if values, err = elements(raw); err != nil {
				return Document{}, &mapping.MappingError{Entity: mp.m.Entity(), Property: d.Property, Message: "collection value", Err: err}
			}
		}

		for _, v := range values {
			f, err := mp.field(d, v)
			if err != nil {
				return Document{}, err
			}
			if f != nil {
				doc.Fields = append(doc.Fields, *f)
			}
		}

		if d.Key {
			if len(values) == 0 {
				continue
			}
			id, err := d.Format(values[0])
			if err != nil {
				return Document{}, err
			}
			doc.ID = id
		}
	}
	return doc, nil
}

func (mp *Mapper) field(d mapping.FieldDescriptor, raw any) (*Field, error) {
	v, err := d.Coerce(raw)
	if err != nil {
		return nil, withEntity(err, mp.m.Entity())
	}
	if v == nil {
		return nil, nil
	}

	f := &Field{
		Name:     d.FieldName,
		Stored:   d.Stored(),
		Indexed:  d.Indexed(),
		Analyzed: d.Analyzed(),
	}
	if d.Numeric {
		f.Numeric = true
		f.NumericType = d.NumericType
		if n, ok := v.(int); ok {
			v = int64(n)
		}
		f.Number = v
		return f, nil
	}

	text, err := d.Format(v)
	if err != nil {
		return nil, withEntity(err, mp.m.Entity())
	}
	f.Text = text
	return f, nil
}

// FromDocument rebuilds a record from the stored fields of doc. The score
// property, when mapped, receives score.
func (mp *Mapper) FromDocument(doc Document, score float64) (Record, error) {
	byName := make(map[string][]Field)
	for _, f := range doc.Fields {
		if f.Stored {
			byName[f.Name] = append(byName[f.Name], f)
		}
	}

	r := make(Record)
	for _, d := range mp.m.Fields() {
		fields := byName[d.FieldName]
		if len(fields) == 0 {
			continue
		}

		values := make([]any, 0, len(fields))
		for _, f := range fields {
			v, err := value(d, f)
			if err != nil {
				return nil, withEntity(err, mp.m.Entity())
			}
			values = append(values, v)
		}

		if d.Collection {
			r[d.Property] = values
		} else {
			r[d.Property] = values[0]
		}
	}

	if name := mp.m.ScoreProperty(); name != "" {
		if mp.m.ScoreType() == mapping.Float32 {
			r[name] = float32(score)
		} else {
			r[name] = score
		}
	}
	return r, nil
}

func value(d mapping.FieldDescriptor, f Field) (any, error) {
	if !d.Numeric {
		return d.Parse(f.Text)
	}
	if d.Type == mapping.Int {
		if n, ok := f.Number.(int64); ok {
			return int(n), nil
		}
	}
	return d.Coerce(f.Number)
}

// elements flattens a slice or array value.
func elements(raw any) ([]any, error) {
	if vs, ok := raw.([]any); ok {
		return vs, nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a slice, got %T", raw)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func withEntity(err error, entity string) error {
	if me, ok := err.(*mapping.MappingError); ok && me.Entity == "" {
		cp := *me
		cp.Entity = entity
		return &cp
	}
	return err
}

func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
