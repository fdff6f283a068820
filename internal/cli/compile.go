package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	mappingFlags
	predicateFlags
	Output       string // output file path
	Unnormalized bool   // print the query as built
}

// CompilationResult is the compile command's payload.
type CompilationResult struct {
	Entity       string `json:"entity" yaml:"entity"`
	Query        string `json:"query" yaml:"query"`
	Unnormalized string `json:"unnormalized,omitempty" yaml:"unnormalized,omitempty"`
	Empty        bool   `json:"empty,omitempty" yaml:"empty,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [predicate-file]",
		Short: "Compile a predicate to a search query",
		Long: `Compile a YAML predicate (or an any-field --text pattern) against an
entity mapping and print the resulting query in Lucene syntax.

Without a predicate the query matches every document.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	opts.mappingFlags.register(cmd)
	opts.predicateFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the query to this file")
	cmd.Flags().BoolVar(&opts.Unnormalized, "unnormalized", false, "also report the query before exclusion-only normalization")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	m, err := s.loadMapping(opts.mappingFlags)
	if err != nil {
		return err
	}
	node, err := s.loadPredicate(opts.predicateFlags, args, m)
	if err != nil {
		return err
	}

	res, err := s.compiler(m).Compile(node)
	if err != nil {
		return s.compileFailure(err)
	}

	result := CompilationResult{
		Entity: m.Entity(),
		Query:  res.Query().String(),
		Empty:  res.Empty(),
	}
	if opts.Unnormalized && !res.Empty() {
		result.Unnormalized = res.Unnormalized().String()
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Query+"\n"), 0644); err != nil {
			return s.formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		s.formatter.VerboseLog("Wrote query to %s", opts.Output)
	}

	return outputCompileSuccess(s.formatter, result)
}

// outputCompileSuccess outputs the compiled query.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.Query)
	if result.Unnormalized != "" && result.Unnormalized != result.Query {
		fmt.Fprintf(formatter.Writer, "unnormalized: %s\n", result.Unnormalized)
	}
	return nil
}
