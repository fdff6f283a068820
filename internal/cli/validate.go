package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/mapping"
	"github.com/roach88/sift/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid" yaml:"valid"`
	Entities []EntitySummary   `json:"entities,omitempty" yaml:"entities,omitempty"`
	Errors   []ValidationIssue `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// EntitySummary describes one successfully built mapping.
type EntitySummary struct {
	Name   string         `json:"name" yaml:"name"`
	Key    string         `json:"key,omitempty" yaml:"key,omitempty"`
	Score  string         `json:"score,omitempty" yaml:"score,omitempty"`
	Fields []FieldSummary `json:"fields" yaml:"fields"`
}

// FieldSummary describes one field descriptor.
type FieldSummary struct {
	Property string `json:"property" yaml:"property"`
	Field    string `json:"field" yaml:"field"`
	Kind     string `json:"kind" yaml:"kind"` // "text" or the numeric subtype
	Index    string `json:"index" yaml:"index"`
	Stored   bool   `json:"stored" yaml:"stored"`
}

// ValidationIssue is one rejected entity.
type ValidationIssue struct {
	Entity  string `json:"entity" yaml:"entity"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <mapping-file>",
		Short: "Validate a mapping file",
		Long: `Validate a YAML or CUE mapping file by building every entity it declares.

All entities are checked; the command fails if any of them is rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}

	file, err := schema.Load(path)
	if err != nil {
		return s.formatter.Fail(ExitCommandError, ErrCodeMappingLoad, err.Error(), nil)
	}

	result := validateAll(file, s.formatter)
	if !result.Valid {
		return outputValidationErrors(s.formatter, result)
	}
	return outputValidateSuccess(s.formatter, result)
}

// validateAll builds every entity and collects the failures.
func validateAll(file *schema.File, formatter *OutputFormatter) ValidationResult {
	result := ValidationResult{Valid: true}
	for _, name := range file.EntityNames() {
		formatter.VerboseLog("Validating entity: %s", name)
		m, err := file.Mapping(name, nil)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationIssue{
				Entity:  name,
				Code:    ErrCodeMappingBuild,
				Message: err.Error(),
			})
			continue
		}
		result.Entities = append(result.Entities, summarize(m))
	}
	return result
}

func summarize(m *mapping.Mapping) EntitySummary {
	summary := EntitySummary{
		Name:  m.Entity(),
		Key:   m.KeyProperty(),
		Score: m.ScoreProperty(),
	}
	for _, d := range m.Fields() {
		kind := "text"
		if d.Numeric {
			kind = d.NumericType.String()
		}
		summary.Fields = append(summary.Fields, FieldSummary{
			Property: d.Property,
			Field:    d.FieldName,
			Kind:     kind,
			Index:    d.Index.String(),
			Stored:   d.Stored(),
		})
	}
	return summary
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d entit%s valid\n", len(result.Entities), plural(len(result.Entities), "y", "ies"))
	for _, e := range result.Entities {
		fmt.Fprintf(formatter.Writer, "  %s: %d field(s)\n", e.Name, len(e.Fields))
	}
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s [%s]: %s\n", issue.Entity, issue.Code, issue.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
