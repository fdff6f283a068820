package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// testDB returns a store path inside a per-test directory.
func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "sift.db")
}

// indexPeople stores testdata/people.yaml in db.
func indexPeople(t *testing.T, db string) {
	t.Helper()
	_, _, err := execute(t, "index", "testdata/people.yaml", "-m", "testdata/person.yaml", "--db", db)
	require.NoError(t, err)
}
