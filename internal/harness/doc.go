// Package harness runs conformance scenarios for sift mappings.
//
// A scenario names a mapping file, a set of records and a list of predicate
// steps. The harness indexes the records, compiles every step against the
// mapping, runs the compiled query and checks the outcome against the
// step's expectations.
//
// # Scenario Format
//
//	name: adults_named_jo
//	description: "Adults whose name starts with jo"
//	mapping: ../mappings/person.yaml
//	entity: person
//	settings:
//	  allow_leading_wildcard: false
//	records:
//	  - {ID: p1, Name: John Smith, Age: 20}
//	  - {ID: p2, Name: Joan Doe, Age: 17}
//	steps:
//	  - name: adults
//	    predicate:
//	      and:
//	        - compare: {field: Age, op: gte, value: 18}
//	        - compare: {field: Name, op: prefix, value: jo}
//	    expect:
//	      query: "+age:[18 TO *] +name:jo*"
//	      hits: [p1]
//	  - name: free_text
//	    text: smith
//	    expect:
//	      hits: [p1]
//	assertions:
//	  - type: complement
//	    step: adults
//
// The mapping path is resolved relative to the scenario file. A step holds
// either a predicate document or a free-text pattern; a step with neither
// compiles the empty predicate. Records without a key property get
// sequential ids ("<entity>-1", "<entity>-2", ...).
//
// # Assertion Types
//
//   - hit_count: the step matched exactly count documents
//   - complement: the negated predicate matches every other document
//   - subset: every hit of step is also a hit of other
//   - same_hits: step and other match the same documents
//
// # Deterministic Testing
//
// Each run uses a fresh in-memory store and index, so traces are identical
// across runs and can be compared against golden files with RunWithGolden.
package harness
