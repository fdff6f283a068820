package schema

import (
	"fmt"
	"sort"

	"github.com/roach88/sift/internal/mapping"
)

// File is a decoded mapping file.
type File struct {
	Entities map[string]Entity `yaml:"entities" json:"entities"`
}

// Entity lists the mapped properties of one entity type.
type Entity struct {
	Properties []Property `yaml:"properties" json:"properties"`
}

// Property mirrors mapping.Property with string-valued modes.
type Property struct {
	Name       string   `yaml:"name" json:"name"`
	Type       string   `yaml:"type,omitempty" json:"type,omitempty"`
	Collection bool     `yaml:"collection,omitempty" json:"collection,omitempty"`
	Score      bool     `yaml:"score,omitempty" json:"score,omitempty"`
	Field      *Field   `yaml:"field,omitempty" json:"field,omitempty"`
	Numeric    *Numeric `yaml:"numeric,omitempty" json:"numeric,omitempty"`
}

// Field mirrors mapping.FieldAnnotation.
type Field struct {
	Name          string `yaml:"name,omitempty" json:"name,omitempty"`
	Index         string `yaml:"index,omitempty" json:"index,omitempty"`
	Store         string `yaml:"store,omitempty" json:"store,omitempty"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`
	Converter     string `yaml:"converter,omitempty" json:"converter,omitempty"`
	Format        string `yaml:"format,omitempty" json:"format,omitempty"`
	Key           bool   `yaml:"key,omitempty" json:"key,omitempty"`
	Alias         bool   `yaml:"alias,omitempty" json:"alias,omitempty"`
}

// Numeric mirrors mapping.NumericAnnotation.
type Numeric struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Store string `yaml:"store,omitempty" json:"store,omitempty"`
}

// EntityNames returns the declared entity names, sorted.
func (f *File) EntityNames() []string {
	names := make([]string, 0, len(f.Entities))
	for name := range f.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Properties converts the entity's declarations into mapping properties.
func (f *File) Properties(entity string) ([]mapping.Property, error) {
	e, ok := f.Entities[entity]
	if !ok {
		return nil, fmt.Errorf("entity %q not declared", entity)
	}
	props := make([]mapping.Property, 0, len(e.Properties))
	for i, p := range e.Properties {
		mp, err := p.property()
		if err != nil {
			return nil, fmt.Errorf("entity %s: properties[%d] (%s): %w", entity, i, p.Name, err)
		}
		props = append(props, mp)
	}
	return props, nil
}

// Mapping builds the frozen mapping of one entity. A nil registry means
// the built-in converters only.
func (f *File) Mapping(entity string, reg *mapping.Registry) (*mapping.Mapping, error) {
	props, err := f.Properties(entity)
	if err != nil {
		return nil, err
	}
	return mapping.Build(entity, props, reg)
}

// Mappings builds every declared entity. The first failure aborts.
func (f *File) Mappings(reg *mapping.Registry) (map[string]*mapping.Mapping, error) {
	out := make(map[string]*mapping.Mapping, len(f.Entities))
	for _, name := range f.EntityNames() {
		m, err := f.Mapping(name, reg)
		if err != nil {
			return nil, err
		}
		out[name] = m
	}
	return out, nil
}

func (p Property) property() (mapping.Property, error) {
	if p.Name == "" {
		return mapping.Property{}, fmt.Errorf("name is required")
	}
	t, err := mapping.ParseValueType(p.Type)
	if err != nil {
		return mapping.Property{}, err
	}
	out := mapping.Property{
		Name:       p.Name,
		Type:       t,
		Collection: p.Collection,
		Score:      p.Score,
	}

	if p.Field != nil {
		index, err := mapping.ParseIndexMode(p.Field.Index)
		if err != nil {
			return mapping.Property{}, fmt.Errorf("field: %w", err)
		}
		store, err := mapping.ParseStoreMode(p.Field.Store)
		if err != nil {
			return mapping.Property{}, fmt.Errorf("field: %w", err)
		}
		out.Field = &mapping.FieldAnnotation{
			Name:          p.Field.Name,
			Index:         index,
			Store:         store,
			CaseSensitive: p.Field.CaseSensitive,
			Converter:     p.Field.Converter,
			Format:        p.Field.Format,
			Key:           p.Field.Key,
			Alias:         p.Field.Alias,
		}
	}

	if p.Numeric != nil {
		store, err := mapping.ParseStoreMode(p.Numeric.Store)
		if err != nil {
			return mapping.Property{}, fmt.Errorf("numeric: %w", err)
		}
		out.Numeric = &mapping.NumericAnnotation{Name: p.Numeric.Name, Store: store}
	}

	return out, nil
}
