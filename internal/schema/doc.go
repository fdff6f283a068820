// Package schema loads declarative mapping files.
//
// A mapping file declares, per entity, the properties the field metadata
// builder turns into descriptors. Two encodings are accepted and decode to
// the same File:
//
//	.yaml / .yml   decoded with gopkg.in/yaml.v3, unknown keys rejected
//	.cue           unified with the embedded #File definition, then decoded
//
// YAML example:
//
//	entities:
//	  person:
//	    properties:
//	      - name: ID
//	        field: {name: id, index: not_analyzed, key: true}
//	      - name: Age
//	        type: int
//	        numeric: {name: age}
//
// File.Mapping resolves one entity into a frozen mapping.Mapping.
package schema
