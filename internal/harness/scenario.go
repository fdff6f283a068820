package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sift/internal/docmap"
	"github.com/roach88/sift/internal/predicate"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mapping is the path of the mapping file (YAML or CUE).
	Mapping string `yaml:"mapping"`

	// Entity selects the entity type. Optional when the mapping declares
	// exactly one.
	Entity string `yaml:"entity,omitempty"`

	// Settings are the compile settings for every step.
	Settings Settings `yaml:"settings,omitempty"`

	// Records are indexed before the first step.
	Records []docmap.Record `yaml:"records"`

	// Steps are compiled and searched in order.
	Steps []Step `yaml:"steps"`

	// Assertions relate the outcomes of several steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Settings mirror compiler.Settings.
type Settings struct {
	AllowLeadingWildcard bool `yaml:"allow_leading_wildcard"`
}

// Step is one predicate to compile and run.
type Step struct {
	Name string `yaml:"name"`

	// Predicate is a predicate document, as read by the compile command.
	Predicate *predicate.Document `yaml:"predicate,omitempty"`

	// Text is a free-text pattern matched against every field.
	Text string `yaml:"text,omitempty"`

	// Expect is checked against the step outcome. If nil, the step must
	// only succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected step outcome.
type Expect struct {
	// Query is the expected compiled query string.
	Query string `yaml:"query,omitempty"`

	// Hits are the expected document ids, in any order. A nil slice is
	// not checked; an empty list expects no hits.
	Hits []string `yaml:"hits,omitempty"`

	// Error is the expected error code, e.g. MAPPING or INVALID_PATTERN.
	Error string `yaml:"error,omitempty"`
}

// Assertion relates step outcomes.
type Assertion struct {
	// Type is one of hit_count, complement, subset, same_hits.
	Type string `yaml:"type"`

	// Step names the step under test.
	Step string `yaml:"step"`

	// Other names the second step (subset, same_hits).
	Other string `yaml:"other,omitempty"`

	// Count is the expected number of hits (hit_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertHitCount   = "hit_count"
	AssertComplement = "complement"
	AssertSubset     = "subset"
	AssertSameHits   = "same_hits"
)

// LoadScenario reads and parses a scenario YAML file. The mapping path is
// resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative mapping path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Mapping != "" && !filepath.IsAbs(scenario.Mapping) && basePath != "" {
		scenario.Mapping = filepath.Join(basePath, scenario.Mapping)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Mapping == "" {
		return fmt.Errorf("mapping is required")
	}
	if _, err := os.Stat(s.Mapping); os.IsNotExist(err) {
		return fmt.Errorf("mapping file not found: %s", s.Mapping)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if names[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		names[step.Name] = true

		if step.Predicate != nil && step.Text != "" {
			return fmt.Errorf("steps[%d]: predicate and text are mutually exclusive", i)
		}
		if e := step.Expect; e != nil && e.Error != "" && (e.Query != "" || e.Hits != nil) {
			return fmt.Errorf("steps[%d].expect: error cannot be combined with query or hits", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, names); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Step == "" {
		return fmt.Errorf("assertions[%d]: step is required", index)
	}
	if !steps[a.Step] {
		return fmt.Errorf("assertions[%d]: unknown step %q", index, a.Step)
	}

	switch a.Type {
	case AssertHitCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for hit_count", index)
		}
	case AssertComplement:
	case AssertSubset, AssertSameHits:
		if a.Other == "" {
			return fmt.Errorf("assertions[%d]: other is required for %s", index, a.Type)
		}
		if !steps[a.Other] {
			return fmt.Errorf("assertions[%d]: unknown step %q", index, a.Other)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
