package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sift/internal/docmap"
	"github.com/roach88/sift/internal/store"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	mappingFlags
	Database string
}

// IndexResult is the index command's payload.
type IndexResult struct {
	Entity  string   `json:"entity" yaml:"entity"`
	Indexed int      `json:"indexed" yaml:"indexed"`
	Total   int      `json:"total" yaml:"total"`
	IDs     []string `json:"ids,omitempty" yaml:"ids,omitempty"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index <records-file>",
		Short: "Map records into documents and store them",
		Long: `Read a YAML or JSON list of records, map each one through the entity
mapping and write the documents to the store.

Records with a key property are stored under their key and replace any
previous version; records without one get a generated id.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), opts, args[0], cmd)
		},
	}

	opts.mappingFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "document store path; defaults to store.path")

	return cmd
}

func runIndex(ctx context.Context, opts *IndexOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	m, err := s.loadMapping(opts.mappingFlags)
	if err != nil {
		return err
	}

	records, err := loadRecords(path)
	if err != nil {
		return s.formatter.Fail(ExitCommandError, ErrCodeRecords, err.Error(), nil)
	}

	mapper := docmap.New(m)
	docs := make([]docmap.Document, 0, len(records))
	for i, r := range records {
		doc, err := mapper.ToDocument(r)
		if err != nil {
			return s.formatter.Fail(ExitCommandError, ErrCodeRecords, fmt.Sprintf("record %d: %v", i, err), nil)
		}
		if doc.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return s.formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("generate id: %v", err), nil)
			}
			doc.ID = id.String()
		}
		docs = append(docs, doc)
	}

	st, err := s.openStore(ctx, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	result := IndexResult{Entity: m.Entity()}
	for _, doc := range docs {
		if err := st.Put(ctx, m.Entity(), doc); err != nil {
			return s.formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		result.Indexed++
		result.IDs = append(result.IDs, doc.ID)
	}
	if result.Total, err = st.Count(ctx, m.Entity()); err != nil {
		return s.formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	s.logger.Info("records indexed", "entity", result.Entity, "indexed", result.Indexed, "total", result.Total)

	if s.formatter.Format == "json" {
		return s.formatter.Success(result)
	}
	fmt.Fprintf(s.formatter.Writer, "✓ Indexed %d %s record(s); %d stored\n", result.Indexed, result.Entity, result.Total)
	return nil
}

// openStore opens the document store named by flag or config.
func (s *session) openStore(ctx context.Context, flag string) (*store.Store, error) {
	path := flag
	if path == "" {
		path = s.cfg.Store.Path
	}
	s.formatter.VerboseLog("Opening store %s", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, s.formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	if err := st.Check(ctx); err != nil {
		st.Close()
		return nil, s.formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return st, nil
}

// loadRecords decodes a YAML (or JSON) sequence of records.
func loadRecords(path string) ([]docmap.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	var records []docmap.Record
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&records); err != nil {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	return records, nil
}
