package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/docmap"
	"github.com/roach88/sift/internal/mapping"
	"github.com/roach88/sift/internal/memindex"
	"github.com/roach88/sift/internal/predicate"
	"github.com/roach88/sift/internal/query"
	"github.com/roach88/sift/internal/schema"
	"github.com/roach88/sift/internal/store"
	"github.com/roach88/sift/internal/testutil"
)

// Error codes reported in StepTrace.Error for failures that are not
// compiler.QueryBuildError.
const (
	CodeMapping   = "MAPPING"
	CodePredicate = "INVALID_PREDICATE"
	CodeSearch    = "SEARCH"
)

// Harness is the scenario execution environment. It holds the compiled
// mapping, the populated index and the per-step outcomes that assertions
// read.
type Harness struct {
	mapping  *mapping.Mapping
	compiler *compiler.Compiler
	index    *memindex.Index
	logger   *slog.Logger

	// all holds every indexed document id, sorted.
	all   []string
	nodes map[string]predicate.Node
	hits  map[string][]string
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the mapping and build the scenario's entity
//  2. Convert records to documents and write them to a fresh in-memory store
//  3. Index the stored documents in store order
//  4. Compile and search every step, checking its expectations
//  5. Evaluate assertions
//
// Errors returned by Run are setup failures. Expectation and assertion
// failures are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	file, err := schema.Load(scenario.Mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping: %w", err)
	}
	entity, err := resolveEntity(file, scenario.Entity)
	if err != nil {
		return nil, err
	}
	m, err := file.Mapping(entity, mapping.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to build mapping: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	if err := st.Check(ctx); err != nil {
		return nil, fmt.Errorf("in-memory store: %w", err)
	}

	mapper := docmap.New(m)
	ids := testutil.NewIDGenerator(entity)
	for i, r := range scenario.Records {
		doc, err := mapper.ToDocument(r)
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		if doc.ID == "" {
			doc.ID = ids.Generate()
		}
		if err := st.Put(ctx, entity, doc); err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := compiler.New(m,
		compiler.WithLogger(logger),
		compiler.WithSettings(compiler.Settings{AllowLeadingWildcard: scenario.Settings.AllowLeadingWildcard}),
	)

	h := &Harness{
		mapping:  m,
		compiler: c,
		index:    memindex.New(c.Analyzer()),
		logger:   logger,
		nodes:    make(map[string]predicate.Node),
		hits:     make(map[string][]string),
	}

	docs, err := st.Load(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	for _, doc := range docs {
		if _, err := h.index.Add(doc); err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", doc.ID, err)
		}
	}
	if h.all, err = h.index.Search(query.MatchAll{}); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	result := NewResult()
	result.GeneratedIDs = ids.Issued()
	for _, step := range scenario.Steps {
		h.executeStep(step, result)
	}

	for _, msg := range EvaluateAssertions(scenario.Assertions, h) {
		result.AddError(msg)
	}

	return result, nil
}

// resolveEntity picks the scenario's entity, defaulting to the only one
// the mapping declares.
func resolveEntity(file *schema.File, entity string) (string, error) {
	names := file.EntityNames()
	if entity == "" {
		if len(names) == 1 {
			return names[0], nil
		}
		return "", fmt.Errorf("entity is required: mapping declares %s", strings.Join(names, ", "))
	}
	for _, n := range names {
		if n == entity {
			return entity, nil
		}
	}
	return "", fmt.Errorf("entity %q not declared in mapping", entity)
}

// executeStep compiles and searches one step, records its trace and checks
// its expectations.
func (h *Harness) executeStep(step Step, result *Result) {
	trace := h.run(step)
	result.AddStepTrace(trace)

	if trace.Error == "" {
		h.hits[step.Name] = trace.Hits
	}

	expect := step.Expect
	if expect == nil {
		expect = &Expect{}
	}

	if expect.Error != "" {
		if trace.Error != expect.Error {
			got := trace.Error
			if got == "" {
				got = "no error"
			}
			result.AddError(fmt.Sprintf("step %s: expected error %s, got %s", step.Name, expect.Error, got))
		}
		return
	}
	if trace.Error != "" {
		result.AddError(fmt.Sprintf("step %s: unexpected error %s: %s", step.Name, trace.Error, trace.Message))
		return
	}

	if expect.Query != "" && expect.Query != trace.Query {
		result.AddError(fmt.Sprintf("step %s: expected query %q, got %q", step.Name, expect.Query, trace.Query))
	}
	if expect.Hits != nil {
		want := sortedCopy(expect.Hits)
		if !equalIDs(want, trace.Hits) {
			result.AddError(fmt.Sprintf("step %s: expected hits %v, got %v", step.Name, want, trace.Hits))
		}
	}
}

func (h *Harness) run(step Step) StepTrace {
	trace := StepTrace{Step: step.Name, Hits: []string{}}

	node, err := h.node(step)
	if err != nil {
		return failed(trace, CodePredicate, err)
	}
	h.nodes[step.Name] = node

	hits, q, err := h.search(node)
	if err != nil {
		return failed(trace, errorCode(err), err)
	}
	trace.Query = q.String()
	trace.Hits = hits
	return trace
}

func (h *Harness) node(step Step) (predicate.Node, error) {
	switch {
	case step.Predicate != nil:
		return step.Predicate.Node(h.mapping)
	case step.Text != "":
		return predicate.AnyField{Pattern: step.Text, Occur: query.Must}, nil
	default:
		return nil, nil
	}
}

// search compiles n and returns the sorted hits with the query that
// produced them.
func (h *Harness) search(n predicate.Node) ([]string, query.Query, error) {
	res, err := h.compiler.Compile(n)
	if err != nil {
		return nil, nil, err
	}
	q := res.Query()
	hits, err := h.index.Search(q)
	if err != nil {
		return nil, q, &searchError{err: err}
	}
	return hits, q, nil
}

type searchError struct {
	err error
}

func (e *searchError) Error() string { return "search: " + e.err.Error() }

func (e *searchError) Unwrap() error { return e.err }

func failed(trace StepTrace, code string, err error) StepTrace {
	trace.Error = code
	trace.Message = err.Error()
	return trace
}

// errorCode classifies a compile or search failure.
func errorCode(err error) string {
	var qe *compiler.QueryBuildError
	if errors.As(err, &qe) {
		return string(qe.Code)
	}
	if mapping.IsMappingError(err) {
		return CodeMapping
	}
	var se *searchError
	if errors.As(err, &se) {
		return CodeSearch
	}
	return CodePredicate
}

func sortedCopy(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
