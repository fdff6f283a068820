package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []harness.ScenarioOutcome `json:"scenarios" yaml:"scenarios"`
	Passed    int                       `json:"passed" yaml:"passed"`
	Failed    int                       `json:"failed" yaml:"failed"`
	Total     int                       `json:"total" yaml:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file-or-dir>",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios against their mappings.

Each scenario indexes its records, compiles every step and checks the
compiled query, the hits and the assertions it declares.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing path, bad filter)

Examples:
  sift test ./scenarios
  sift test ./scenarios --filter "people*"
  sift test ./scenarios/people.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	files, err := harness.FindScenarios(path, opts.Filter)
	if err != nil {
		var nf *harness.ScenarioNotFoundError
		if errors.As(err, &nf) {
			return s.formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		return s.formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return s.formatter.Success(TestResult{Scenarios: []harness.ScenarioOutcome{}})
		}
		fmt.Fprintln(s.formatter.Writer, "No scenarios found.")
		return nil
	}

	for _, f := range files {
		s.formatter.VerboseLog("Running scenario: %s", f)
	}
	suite := harness.RunFiles(files)
	s.logger.Debug("scenarios run",
		"total", suite.Total,
		"passed", suite.Passed,
		"failed", suite.Failed)

	result := TestResult{
		Scenarios: suite.Scenarios,
		Passed:    suite.Passed,
		Failed:    suite.Failed,
		Total:     suite.Total,
	}

	if opts.Format == "json" {
		if err := s.formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputTestText(s.formatter, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func outputTestText(formatter *OutputFormatter, result TestResult) {
	w := formatter.Writer
	for _, sc := range result.Scenarios {
		if sc.Pass {
			fmt.Fprintf(w, "✓ %s\n", sc.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", sc.Name)
		for _, e := range sc.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
