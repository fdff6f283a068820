// Package mapping provides the per-field metadata model shared by the query
// compiler and the document mapper.
//
// A Mapping is built once per entity type from a declarative table of
// Property declarations and is immutable afterwards:
//
//	m, err := mapping.Build("person", []mapping.Property{
//	    {Name: "Name", Type: mapping.String},
//	    {Name: "Age", Type: mapping.Int64, Numeric: &mapping.NumericAnnotation{}},
//	    {Name: "ID", Type: mapping.String, Field: &mapping.FieldAnnotation{Index: mapping.NotAnalyzed, Key: true}},
//	}, nil)
//
// BUILD RULES:
//
// Each property yields exactly one FieldDescriptor, following a fixed
// precedence:
//  1. Score properties are excluded and recorded as the score target.
//  2. Collection properties use their element type and are flagged.
//  3. A numeric annotation yields a numeric descriptor without converter.
//  4. Otherwise a primitive descriptor: explicit converter, then time
//     converter, then no converter for strings, then the default
//     converter for the value type.
//  5. Every converter must round-trip the value type's zero value.
//
// Failures are reported eagerly as *MappingError.
//
// CONCURRENCY:
//
// A built Mapping has no mutating methods. Lookups return descriptor copies
// and converters are stateless, so a Mapping may be shared freely between
// goroutines.
package mapping
