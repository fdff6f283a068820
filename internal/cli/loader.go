package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/config"
	"github.com/roach88/sift/internal/logging"
	"github.com/roach88/sift/internal/mapping"
	"github.com/roach88/sift/internal/predicate"
	"github.com/roach88/sift/internal/query"
	"github.com/roach88/sift/internal/schema"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeConfig       = "E002" // Config load or validation failed
	ErrCodeMappingLoad  = "E003" // Mapping file unreadable or malformed
	ErrCodeMappingBuild = "E004" // Mapping declarations rejected
	ErrCodeNotFound     = "E005" // Path or entity not found
	ErrCodePredicate    = "E006" // Predicate file malformed
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeStore        = "E008" // Document store error
	ErrCodeRecords      = "E009" // Records file malformed

	// Compile errors
	ErrCodeMapping        = "E101" // Unknown field or unconvertible value
	ErrCodeTypeMismatch   = "E102" // Numeric subtype mismatch
	ErrCodeUnsupported    = "E103" // Query kind not supported by field
	ErrCodeInvalidNode    = "E104" // Malformed predicate node
	ErrCodeInvalidPattern = "E105" // Pattern rejected by the text parser
)

// MapCompileErrorCode maps a compile failure to an error code.
func MapCompileErrorCode(err error) string {
	var qe *compiler.QueryBuildError
	if errors.As(err, &qe) {
		switch qe.Code {
		case compiler.ErrCodeTypeMismatch:
			return ErrCodeTypeMismatch
		case compiler.ErrCodeUnsupported:
			return ErrCodeUnsupported
		case compiler.ErrCodeInvalidNode:
			return ErrCodeInvalidNode
		case compiler.ErrCodeInvalidPattern:
			return ErrCodeInvalidPattern
		}
	}
	if mapping.IsMappingError(err) {
		return ErrCodeMapping
	}
	return ErrCodeGeneric
}

// session is the per-invocation environment shared by commands.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	formatter *OutputFormatter
}

// newSession loads configuration and builds the logger. --verbose lowers
// the log level to debug.
func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), logging.Config{Level: level, Format: cfg.Log.Format})
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	return &session{cfg: cfg, logger: logger, formatter: formatter}, nil
}

// compiler builds a Compiler for m using the configured settings.
func (s *session) compiler(m *mapping.Mapping, opts ...compiler.Option) *compiler.Compiler {
	base := []compiler.Option{
		compiler.WithLogger(s.logger),
		compiler.WithSettings(compiler.Settings{AllowLeadingWildcard: s.cfg.Compiler.AllowLeadingWildcard}),
	}
	return compiler.New(m, append(base, opts...)...)
}

// mappingFlags selects one entity of a mapping file.
type mappingFlags struct {
	Mapping string
	Entity  string
}

func (f *mappingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Mapping, "mapping", "m", "", "mapping file (.yaml|.yml|.cue); defaults to mapping.path")
	cmd.Flags().StringVarP(&f.Entity, "entity", "e", "", "entity to use; optional when the file declares one")
}

// loadMapping resolves the selected entity's mapping.
func (s *session) loadMapping(f mappingFlags) (*mapping.Mapping, error) {
	path := f.Mapping
	if path == "" {
		path = s.cfg.Mapping.Path
	}
	if path == "" {
		return nil, s.formatter.Fail(ExitCommandError, ErrCodeNotFound, "no mapping file: pass --mapping or set mapping.path", nil)
	}

	s.formatter.VerboseLog("Loading mapping %s", path)
	file, err := schema.Load(path)
	if err != nil {
		return nil, s.formatter.Fail(ExitCommandError, ErrCodeMappingLoad, err.Error(), nil)
	}

	entity := f.Entity
	if entity == "" {
		names := file.EntityNames()
		if len(names) != 1 {
			return nil, s.formatter.Fail(ExitCommandError, ErrCodeNotFound,
				fmt.Sprintf("--entity is required: %s declares %s", path, strings.Join(names, ", ")), nil)
		}
		entity = names[0]
	}
	if _, ok := file.Entities[entity]; !ok {
		return nil, s.formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("entity %q not declared in %s", entity, path), nil)
	}

	m, err := file.Mapping(entity, nil)
	if err != nil {
		return nil, s.formatter.Fail(ExitCommandError, ErrCodeMappingBuild, err.Error(), nil)
	}
	return m, nil
}

// predicateFlags selects the predicate to compile: a YAML file argument or
// an any-field pattern.
type predicateFlags struct {
	Text string
}

func (f *predicateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Text, "text", "t", "", "match this pattern against every field instead of a predicate file")
}

// loadPredicate decodes the predicate. args holds at most the predicate
// file path. A nil Node means match everything.
func (s *session) loadPredicate(f predicateFlags, args []string, m *mapping.Mapping) (predicate.Node, error) {
	switch {
	case len(args) > 0 && f.Text != "":
		return nil, s.formatter.Fail(ExitCommandError, ErrCodePredicate, "pass either a predicate file or --text, not both", nil)
	case f.Text != "":
		return predicate.AnyField{Pattern: f.Text, Occur: query.Must}, nil
	case len(args) > 0:
		s.formatter.VerboseLog("Loading predicate %s", args[0])
		n, err := predicate.LoadFile(args[0], m)
		if err != nil {
			return nil, s.formatter.Fail(ExitCommandError, ErrCodePredicate, err.Error(), nil)
		}
		return n, nil
	default:
		return nil, nil
	}
}

// compileFailure reports a compile error with its mapped code.
func (s *session) compileFailure(err error) error {
	return s.formatter.Fail(ExitCommandError, MapCompileErrorCode(err), err.Error(), nil)
}
