package predicate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sift/internal/query"
)

// Coercer converts a loosely typed decoded value into the Go type of a
// field. *mapping.Mapping implements it.
type Coercer interface {
	Coerce(field string, raw any) (any, error)
}

// Document is the YAML form of a predicate. Exactly one key must be set.
//
//	and:
//	  - compare: {field: age, op: gte, value: 18}
//	  - not:
//	      compare: {field: name, op: prefix, value: jo}
type Document struct {
	And     []Document   `yaml:"and,omitempty"`
	Or      []Document   `yaml:"or,omitempty"`
	Not     *Document    `yaml:"not,omitempty"`
	Compare *CompareDoc  `yaml:"compare,omitempty"`
	Between *BetweenDoc  `yaml:"between,omitempty"`
	Any     *AnyFieldDoc `yaml:"any,omitempty"`
}

// CompareDoc is the YAML form of Compare.
type CompareDoc struct {
	Field             string  `yaml:"field"`
	Op                string  `yaml:"op"`
	Value             any     `yaml:"value"`
	Occur             string  `yaml:"occur,omitempty"`
	Boost             float32 `yaml:"boost,omitempty"`
	AllowSpecialChars bool    `yaml:"allow_special_chars,omitempty"`
}

// BoundDoc is one side of a BetweenDoc.
type BoundDoc struct {
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
}

// BetweenDoc is the YAML form of Between.
type BetweenDoc struct {
	Field string    `yaml:"field"`
	Lower *BoundDoc `yaml:"lower,omitempty"`
	Upper *BoundDoc `yaml:"upper,omitempty"`
	Occur string    `yaml:"occur,omitempty"`
	Boost float32   `yaml:"boost,omitempty"`
}

// AnyFieldDoc is the YAML form of AnyField.
type AnyFieldDoc struct {
	Pattern string `yaml:"pattern"`
	Occur   string `yaml:"occur,omitempty"`
}

// LoadFile reads and decodes a YAML predicate file.
func LoadFile(path string, c Coercer) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read predicate file: %w", err)
	}
	n, err := DecodeYAML(data, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// DecodeYAML decodes a YAML predicate document. Unknown keys are rejected.
//
// Compared values are coerced through c when the walk evaluates them, so a
// value of the wrong type fails the compile rather than the decode. A nil
// Coercer passes values through unchanged. An empty document decodes to a
// nil Node.
func DecodeYAML(data []byte, c Coercer) (Node, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc.Node(c)
}

// Node converts the document into a predicate tree.
func (d Document) Node(c Coercer) (Node, error) {
	return d.node(c, "$")
}

func (d Document) node(c Coercer, path string) (Node, error) {
	set := 0
	for _, present := range []bool{d.And != nil, d.Or != nil, d.Not != nil, d.Compare != nil, d.Between != nil, d.Any != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%s: exactly one of and, or, not, compare, between, any is required", path)
	}

	switch {
	case d.And != nil:
		return d.list(d.And, c, path+".and", AllOf)
	case d.Or != nil:
		return d.list(d.Or, c, path+".or", AnyOf)
	case d.Not != nil:
		inner, err := d.Not.node(c, path+".not")
		if err != nil {
			return nil, err
		}
		n, err := Not(inner)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return n, nil
	case d.Compare != nil:
		return d.Compare.node(c, path+".compare")
	case d.Between != nil:
		return d.Between.node(c, path+".between")
	default:
		o, err := query.ParseOccur(d.Any.Occur)
		if err != nil {
			return nil, fmt.Errorf("%s.any: %w", path, err)
		}
		return AnyField{Pattern: d.Any.Pattern, Occur: o}, nil
	}
}

func (d Document) list(docs []Document, c Coercer, path string, join func(...Node) Node) (Node, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: at least one predicate is required", path)
	}
	nodes := make([]Node, 0, len(docs))
	for i, sub := range docs {
		n, err := sub.node(c, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return join(nodes...), nil
}

func (d *CompareDoc) node(c Coercer, path string) (Node, error) {
	if d.Field == "" {
		return nil, fmt.Errorf("%s: field is required", path)
	}
	kind, err := ParseKind(d.Op)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	o, err := query.ParseOccur(d.Occur)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Compare{
		Field:             d.Field,
		Kind:              kind,
		Value:             coerced(c, d.Field, d.Value),
		Occur:             o,
		Boost:             d.Boost,
		AllowSpecialChars: d.AllowSpecialChars,
	}, nil
}

func (d *BetweenDoc) node(c Coercer, path string) (Node, error) {
	if d.Field == "" {
		return nil, fmt.Errorf("%s: field is required", path)
	}
	o, err := query.ParseOccur(d.Occur)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b := Between{Occur: o, Boost: d.Boost}
	if b.Lower, err = d.bound(d.Lower, c); err != nil {
		return nil, fmt.Errorf("%s.lower: %w", path, err)
	}
	if b.Upper, err = d.bound(d.Upper, c); err != nil {
		return nil, fmt.Errorf("%s.upper: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

func (d *BetweenDoc) bound(bd *BoundDoc, c Coercer) (*Compare, error) {
	if bd == nil {
		return nil, nil
	}
	kind, err := ParseKind(bd.Op)
	if err != nil {
		return nil, err
	}
	return &Compare{Field: d.Field, Kind: kind, Value: coerced(c, d.Field, bd.Value)}, nil
}

func coerced(c Coercer, field string, raw any) Value {
	if c == nil {
		return Const(raw)
	}
	return func() (any, error) {
		return c.Coerce(field, raw)
	}
}
