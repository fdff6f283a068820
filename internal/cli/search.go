package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/docmap"
	"github.com/roach88/sift/internal/memindex"
	"github.com/roach88/sift/internal/metrics"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	mappingFlags
	predicateFlags
	Database string
	Limit    int
	Metrics  bool
}

// SearchResult is the search command's payload.
type SearchResult struct {
	Entity  string          `json:"entity" yaml:"entity"`
	Query   string          `json:"query" yaml:"query"`
	Total   int             `json:"total" yaml:"total"`
	Records []docmap.Record `json:"records" yaml:"records"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search [predicate-file]",
		Short: "Search stored documents with a predicate",
		Long: `Load the entity's documents from the store into an in-memory index,
compile the predicate and print the matching records.

Every hit scores 1; records come back in document id order.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), opts, args, cmd)
		},
	}

	opts.mappingFlags.register(cmd)
	opts.predicateFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "document store path; defaults to store.path")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum number of records to print (0 = all)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "write compile and search metrics to stderr")

	return cmd
}

func runSearch(ctx context.Context, opts *SearchOptions, args []string, cmd *cobra.Command) error {
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
	node, err := s.loadPredicate(opts.predicateFlags, args, m)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	c := s.compiler(m, compiler.WithMetrics(met))

	res, err := c.Compile(node)
	if err != nil {
		return s.compileFailure(err)
	}

	st, err := s.openStore(ctx, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.Load(ctx, m.Entity())
	if err != nil {
		return s.formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	// Index with the compiler's analyzer so terms line up with the query.
	ix := memindex.New(c.Analyzer())
	for _, doc := range docs {
		if _, err := ix.Add(doc); err != nil {
			return s.formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("index %s: %v", doc.ID, err), nil)
		}
	}
	s.formatter.VerboseLog("Loaded %d document(s)", ix.Len())

	q := res.Query()
	ids, err := ix.Search(q)
	if err != nil {
		return s.formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	met.ObserveSearch(m.Entity(), len(ids))

	result := SearchResult{Entity: m.Entity(), Query: q.String(), Total: len(ids), Records: []docmap.Record{}}
	mapper := docmap.New(m)
	for _, id := range ids {
		if opts.Limit > 0 && len(result.Records) >= opts.Limit {
			break
		}
		doc, _ := ix.Get(id)
		r, err := mapper.FromDocument(doc, 1)
		if err != nil {
			return s.formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("document %s: %v", id, err), nil)
		}
		result.Records = append(result.Records, r)
	}

	if opts.Metrics {
		if err := writeMetrics(s.formatter, reg); err != nil {
			return s.formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
	}

	if s.formatter.Format == "json" {
		return s.formatter.Success(result)
	}
	fmt.Fprintf(s.formatter.Writer, "%s\n%d hit(s)\n", result.Query, result.Total)
	if len(result.Records) == 0 {
		return nil
	}
	fmt.Fprintln(s.formatter.Writer)
	return s.formatter.YAML(result.Records)
}

// writeMetrics writes the registry in the Prometheus text format to the
// diagnostic writer.
func writeMetrics(formatter *OutputFormatter, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	w := formatter.GetErrWriter()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
