package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	out, _, err := execute(t, "validate", "testdata/person.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 entity valid")
	assert.Contains(t, out, "person: 3 field(s)")
}

func TestValidate_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", "testdata/person.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Entities, 1)

	person := resp.Data.Entities[0]
	assert.Equal(t, "ID", person.Key)
	assert.Equal(t, "Score", person.Score)
	assert.Equal(t, []FieldSummary{
		{Property: "ID", Field: "id", Kind: "text", Index: "not_analyzed", Stored: true},
		{Property: "Name", Field: "name", Kind: "text", Index: "analyzed", Stored: true},
		{Property: "Age", Field: "age", Kind: "long", Index: "not_analyzed", Stored: true},
	}, person.Fields)
}

func TestValidate_Invalid(t *testing.T) {
	out, _, err := execute(t, "validate", "testdata/multi.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "broken [E004]")
	assert.NotContains(t, out, "person [")
}

func TestValidate_InvalidJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", "testdata/multi.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Entities, 1)
	assert.Equal(t, "person", resp.Data.Entities[0].Name)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "broken", resp.Data.Errors[0].Entity)
}

func TestValidate_Unreadable(t *testing.T) {
	out, _, err := execute(t, "validate", "testdata/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}
