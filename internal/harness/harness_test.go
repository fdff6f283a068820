package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/docmap"
)

func TestRun_People(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/people.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Zero(t, result.GeneratedIDs)
	require.Len(t, result.Trace, 6)

	adults, ok := result.Step("adults")
	require.True(t, ok)
	assert.Equal(t, "+age:[18 TO *] +name:jo*", adults.Query)
	assert.Equal(t, []string{"p1", "p3", "p4"}, adults.Hits)

	unknown, ok := result.Step("unknown_field")
	require.True(t, ok)
	assert.Equal(t, CodeMapping, unknown.Error)
	assert.Contains(t, unknown.Message, "Nickname")
	assert.Empty(t, unknown.Hits)
}

func TestRun_LeadingWildcardSetting(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/lenient.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_GeneratedIDs(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/pets.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 3, result.GeneratedIDs)

	// Identical runs produce identical traces.
	again, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, result.Trace, again.Trace)
	assert.Equal(t, 3, again.GeneratedIDs)
}

func TestRun_ReportsFailures(t *testing.T) {
	s, err := LoadScenario("testdata/invalid/failing.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	assert.Equal(t, []string{
		`step john: expected query "+name:jon", got "+name:john"`,
		`step john: expected hits [p2], got [p1]`,
		`step bad_field: unexpected error MAPPING: ` + mustStep(t, result, "bad_field").Message,
		`step no_error: expected error MAPPING, got no error`,
	}, result.Errors[:4])

	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[4], "Assertion failed: hit_count (step john)")
	assert.Contains(t, result.Errors[4], "Expected: 2 hit(s)")
	assert.Contains(t, result.Errors[5], "Assertion failed: subset (step bad_field)")
	assert.Contains(t, result.Errors[5], "step failed or did not run")
}

func TestRun_SetupErrors(t *testing.T) {
	testCases := []struct {
		name     string
		scenario *Scenario
		wantErr  string
	}{
		{
			name:     "mapping does not load",
			scenario: &Scenario{Mapping: "testdata/nope.yaml"},
			wantErr:  "failed to load mapping",
		},
		{
			name:     "entity required",
			scenario: &Scenario{Mapping: "testdata/mappings/catalog.cue"},
			wantErr:  "entity is required: mapping declares person, pet",
		},
		{
			name:     "unknown entity",
			scenario: &Scenario{Mapping: "testdata/mappings/person.yaml", Entity: "pet"},
			wantErr:  `entity "pet" not declared`,
		},
		{
			name: "bad record",
			scenario: &Scenario{
				Mapping: "testdata/mappings/person.yaml",
				Records: []docmap.Record{{"ID": "p1", "Nickname": "jo"}},
			},
			wantErr: "records[0]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(tc.scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRun_Golden(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "people.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func mustStep(t *testing.T, r *Result, name string) StepTrace {
	t.Helper()
	s, ok := r.Step(name)
	require.True(t, ok)
	return s
}
