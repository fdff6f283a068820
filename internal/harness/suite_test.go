package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"testdata/scenarios/lenient.yaml",
		"testdata/scenarios/people.yaml",
		"testdata/scenarios/pets.yaml",
	}, files)

	files, err = FindScenarios("testdata/scenarios", "pe*")
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/scenarios/people.yaml", "testdata/scenarios/pets.yaml"}, files)

	files, err = FindScenarios("testdata/scenarios/pets.yaml", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/scenarios/pets.yaml"}, files)
}

func TestFindScenarios_Errors(t *testing.T) {
	_, err := FindScenarios("testdata/missing", "")
	var nf *ScenarioNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "testdata/missing", nf.Path)

	_, err = FindScenarios("testdata/scenarios", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestRunFiles(t *testing.T) {
	suite := RunFiles([]string{
		"testdata/scenarios/people.yaml",
		"testdata/invalid/failing.yaml",
		"testdata/scenarios/nope.yaml",
	})

	assert.Equal(t, 3, suite.Total)
	assert.Equal(t, 1, suite.Passed)
	assert.Equal(t, 2, suite.Failed)

	assert.Equal(t, "people", suite.Scenarios[0].Name)
	assert.True(t, suite.Scenarios[0].Pass)
	require.NotNil(t, suite.Scenarios[0].Result)

	assert.Equal(t, "failing", suite.Scenarios[1].Name)
	assert.False(t, suite.Scenarios[1].Pass)
	assert.Len(t, suite.Scenarios[1].Errors, 6)

	assert.Equal(t, "nope.yaml", suite.Scenarios[2].Name)
	assert.Contains(t, suite.Scenarios[2].Errors[0], "failed to load scenario")
}
