package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/sift/internal/analysis"
	"github.com/roach88/sift/internal/mapping"
	"github.com/roach88/sift/internal/metrics"
	"github.com/roach88/sift/internal/predicate"
	"github.com/roach88/sift/internal/query"
	"github.com/roach88/sift/internal/textparse"
)

// PatternParser parses analyzed text patterns for one or many fields.
type PatternParser interface {
	Parse(field, pattern string) (query.Query, error)
	ParseMultiField(fields []string, pattern string) (query.Query, error)
}

// ParserFactory creates a parser configured for a single leaf.
type ParserFactory func(a analysis.Analyzer, opts textparse.Options) PatternParser

// DefaultParserFactory builds textparse parsers.
func DefaultParserFactory(a analysis.Analyzer, opts textparse.Options) PatternParser {
	return textparse.New(a, opts)
}

// Settings are global compile settings.
type Settings struct {
	// AllowLeadingWildcard lets Equals and Prefix patterns and AnyField
	// patterns start with a wildcard. Suffix and Wildcard comparisons
	// always need one and ignore this setting.
	AllowLeadingWildcard bool
}

// Compiler compiles predicates against one entity mapping.
type Compiler struct {
	mapping   *mapping.Mapping
	analyzer  analysis.Analyzer
	newParser ParserFactory
	settings  Settings
	logger    *slog.Logger
	metrics   *metrics.Metrics

	// keepCase holds the text fields whose wildcard terms are matched
	// with their case intact.
	keepCase map[string]bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithAnalyzer replaces the per-field analyzer derived from the mapping.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(c *Compiler) {
		if a != nil {
			c.analyzer = a
		}
	}
}

// WithParserFactory replaces the text-pattern parser.
func WithParserFactory(f ParserFactory) Option {
	return func(c *Compiler) {
		if f != nil {
			c.newParser = f
		}
	}
}

// WithSettings sets global compile settings.
func WithSettings(s Settings) Option {
	return func(c *Compiler) {
		c.settings = s
	}
}

// WithLogger sets the logger. Compiles log at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records compile counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// New creates a Compiler for m.
func New(m *mapping.Mapping, opts ...Option) *Compiler {
	c := &Compiler{
		mapping:   m,
		analyzer:  m.Analyzer(nil),
		newParser: DefaultParserFactory,
		logger:    slog.Default(),
		keepCase:  make(map[string]bool),
	}
	for _, d := range m.Fields() {
		if !d.Numeric && (d.CaseSensitive || d.Verbatim()) {
			c.keepCase[d.FieldName] = true
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mapping returns the mapping the compiler resolves fields against.
func (c *Compiler) Mapping() *mapping.Mapping { return c.mapping }

// Analyzer returns the per-field analyzer used for range bounds and
// patterns. Index documents with the same analyzer.
func (c *Compiler) Analyzer() analysis.Analyzer { return c.analyzer }

// Result is a compiled predicate.
type Result struct {
	top query.Query
}

// Query returns the compiled query. An empty predicate matches everything.
// A Boolean made only of MustNot clauses is returned as a copy with a
// (MatchAll, Should) clause appended, so that "not X" matches everything
// except X.
func (r *Result) Query() query.Query {
	if r.top == nil {
		return query.MatchAll{}
	}
	if b, ok := r.top.(query.Boolean); ok && b.AllMustNot() {
		return b.With(query.Clause{Query: query.MatchAll{}, Occur: query.Should})
	}
	return r.top
}

// Unnormalized returns the query as built, or nil for an empty predicate.
func (r *Result) Unnormalized() query.Query {
	return r.top
}

// Empty reports whether the predicate was empty.
func (r *Result) Empty() bool {
	return r.top == nil
}

// Compile compiles root. A nil root yields an empty Result.
func (c *Compiler) Compile(root predicate.Node) (*Result, error) {
	start := time.Now()
	top, err := c.walk(root)
	c.metrics.ObserveCompile(c.mapping.Entity(), time.Since(start), err)
	if err != nil {
		c.logger.Debug("compile failed",
			"entity", c.mapping.Entity(),
			"error", err)
		return nil, err
	}

	res := &Result{}
	if top != nil {
		res.top = *top
	}
	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.Debug("predicate compiled",
			"entity", c.mapping.Entity(),
			"query", res.Query().String(),
			"duration", time.Since(start))
	}
	return res, nil
}

type frame struct {
	node    predicate.Node
	visited bool
}

// walk performs the post-order traversal and returns the root Boolean, or
// nil for an empty tree.
func (c *Compiler) walk(root predicate.Node) (*query.Boolean, error) {
	if root == nil {
		return nil, nil
	}

	var results []query.Boolean
	frames := []frame{{node: root}}
	for len(frames) > 0 {
		f := frames[len(frames)-1]
		frames = frames[:len(frames)-1]

		var (
			left, right predicate.Node
			target      query.Occur
			op          string
		)
		switch n := f.node.(type) {
		case predicate.And:
			left, right, target, op = n.Left, n.Right, query.Must, "and"
		case predicate.Or:
			left, right, target, op = n.Left, n.Right, query.Should, "or"
		default:
			b, err := c.leaf(f.node)
			if err != nil {
				return nil, err
			}
			results = append(results, b)
			continue
		}

		if left == nil || right == nil {
			return nil, &QueryBuildError{Code: ErrCodeInvalidNode, Message: op + " requires two operands"}
		}
		if !f.visited {
			frames = append(frames, frame{node: f.node, visited: true}, frame{node: right}, frame{node: left})
			continue
		}

		r := results[len(results)-1]
		l := results[len(results)-2]
		results = results[:len(results)-2]
		results = append(results, combine(target, l, r))
	}

	if len(results) != 1 {
		return nil, &QueryBuildError{Code: ErrCodeInvalidNode, Message: fmt.Sprintf("walk ended with %d results", len(results))}
	}
	return &results[0], nil
}

// combine merges children into a new Boolean with target occur.
//
// A child holding a single Must clause is absorbed: the clause is appended
// directly with the target occur. Under And, a child holding a single
// MustNot clause is appended as is. Any other child is appended whole; a
// child made only of MustNot clauses first gets a (MatchAll, Should) clause
// so that it keeps meaning "everything except".
func combine(target query.Occur, children ...query.Boolean) query.Boolean {
	acc := query.Boolean{}
	for _, child := range children {
		if len(child.Clauses) == 1 && child.Boost == 0 {
			cl := child.Clauses[0]
			switch {
			case cl.Occur == query.Must:
				acc = acc.With(query.Clause{Query: cl.Query, Occur: target})
				continue
			case cl.Occur == query.MustNot && target == query.Must:
				acc = acc.With(cl)
				continue
			}
		}
		if child.AllMustNot() {
			child = child.With(query.Clause{Query: query.MatchAll{}, Occur: query.Should})
		}
		acc = acc.With(query.Clause{Query: child, Occur: target})
	}
	return acc
}

func (c *Compiler) leaf(n predicate.Node) (query.Boolean, error) {
	switch v := n.(type) {
	case predicate.Compare:
		return c.compare(v)
	case predicate.Between:
		return c.between(v)
	case predicate.AnyField:
		return c.anyField(v)
	case predicate.Raw:
		if v.Query == nil {
			return query.Boolean{}, &QueryBuildError{Code: ErrCodeInvalidNode, Message: "raw query is nil"}
		}
		return wrap(v.Query, v.Occur, v.Boost), nil
	case nil:
		return query.Boolean{}, &QueryBuildError{Code: ErrCodeInvalidNode, Message: "nil predicate"}
	default:
		return query.Boolean{}, &QueryBuildError{Code: ErrCodeInvalidNode, Message: fmt.Sprintf("unsupported predicate %T", n)}
	}
}

// wrap builds the single-clause Boolean every leaf compiles to. The boost
// goes on the inner query. An inner Boolean made only of exclusions gets a
// (MatchAll, Should) clause so that it matches everything but the excluded
// documents.
func wrap(q query.Query, o query.Occur, boost float32) query.Boolean {
	if b, ok := q.(query.Boolean); ok && b.AllMustNot() {
		q = b.With(query.Clause{Query: query.MatchAll{}, Occur: query.Should})
	}
	if boost != 0 {
		q = query.WithBoost(q, boost)
	}
	return query.NewBoolean(query.Clause{Query: q, Occur: o})
}

func (c *Compiler) compare(v predicate.Compare) (query.Boolean, error) {
	d, err := c.mapping.Lookup(v.Field)
	if err != nil {
		return query.Boolean{}, err
	}
	if v.Value == nil {
		return query.Boolean{}, &QueryBuildError{Code: ErrCodeInvalidNode, Field: v.Field, Message: "comparison has no value"}
	}
	val, err := v.Value()
	if err != nil {
		return query.Boolean{}, err
	}

	if v.Kind.IsRange() {
		b := &bound{kind: v.Kind, value: val}
		var q query.Query
		if v.Kind.IsLower() {
			q, err = c.buildRange(d, b, nil)
		} else {
			q, err = c.buildRange(d, nil, b)
		}
		if err != nil {
			return query.Boolean{}, err
		}
		return wrap(q, v.Occur, v.Boost), nil
	}

	if d.Numeric {
		return c.numericCompare(d, v, val)
	}

	raw, err := d.Format(val)
	if err != nil {
		return query.Boolean{}, err
	}
	text := raw
	if !v.AllowSpecialChars {
		text = textparse.Escape(raw)
	}

	var pattern string
	switch v.Kind {
	case predicate.Equals:
		pattern = text
	case predicate.Prefix:
		pattern = text + "*"
	case predicate.Suffix:
		pattern = "*" + text
	case predicate.Wildcard:
		pattern = "*" + text + "*"
	default:
		return query.Boolean{}, &QueryBuildError{Code: ErrCodeUnsupported, Field: v.Field, Message: fmt.Sprintf("unsupported comparison %s", v.Kind)}
	}

	if pattern == "" {
		return absent(d.FieldName, v.Occur, v.Boost), nil
	}

	if v.Kind == predicate.Equals && (d.CaseSensitive || !d.Analyzed()) {
		return wrap(query.Term{Field: d.FieldName, Text: raw}, v.Occur, v.Boost), nil
	}

	p := c.newParser(c.analyzer, textparse.Options{
		LowercaseExpandedTerms: !d.CaseSensitive && !d.Verbatim(),
		AllowLeadingWildcard:   c.settings.AllowLeadingWildcard || v.Kind == predicate.Suffix || v.Kind == predicate.Wildcard,
		SplitOnWhitespace:      !d.Verbatim(),
	})
	q, err := p.Parse(d.FieldName, pattern)
	if err != nil {
		return query.Boolean{}, &QueryBuildError{Code: ErrCodeInvalidPattern, Field: v.Field, Message: "parse pattern", Err: err}
	}
	return wrap(q, v.Occur, v.Boost), nil
}

// absent encodes "field has no value" as "NOT field matches anything".
// Must and MustNot swap. Should keeps its occur and wraps the exclusion so
// that the clause optionally matches documents lacking the field.
func absent(field string, o query.Occur, boost float32) query.Boolean {
	all := query.Wildcard{Field: field, Pattern: "*"}
	if o != query.Should {
		return wrap(all, o.Invert(), boost)
	}
	inner := query.NewBoolean(
		query.Clause{Query: all, Occur: query.MustNot},
		query.Clause{Query: query.MatchAll{}, Occur: query.Should},
	)
	return wrap(inner, query.Should, boost)
}

// numericCompare handles non-range comparisons on numeric fields: equality
// is an inclusive single-value range; patterns are rejected.
func (c *Compiler) numericCompare(d mapping.FieldDescriptor, v predicate.Compare, val any) (query.Boolean, error) {
	if v.Kind != predicate.Equals {
		return query.Boolean{}, &QueryBuildError{
			Code:    ErrCodeUnsupported,
			Field:   v.Field,
			Message: fmt.Sprintf("%s comparison on numeric field", v.Kind),
		}
	}
	if val == nil {
		return absent(d.FieldName, v.Occur, v.Boost), nil
	}
	n, err := numericValue(d, val)
	if err != nil {
		return query.Boolean{}, err
	}
	q := query.NumericRange{
		Field:      d.FieldName,
		Type:       d.NumericType,
		Min:        n,
		Max:        n,
		IncludeMin: true,
		IncludeMax: true,
	}
	return wrap(q, v.Occur, v.Boost), nil
}

func (c *Compiler) between(v predicate.Between) (query.Boolean, error) {
	if err := v.Validate(); err != nil {
		return query.Boolean{}, &QueryBuildError{Code: ErrCodeInvalidNode, Field: v.Field(), Message: "invalid range", Err: err}
	}
	d, err := c.mapping.Lookup(v.Field())
	if err != nil {
		return query.Boolean{}, err
	}

	var lower, upper *bound
	if v.Lower != nil {
		if lower, err = evalBound(v.Lower); err != nil {
			return query.Boolean{}, err
		}
	}
	if v.Upper != nil {
		if upper, err = evalBound(v.Upper); err != nil {
			return query.Boolean{}, err
		}
	}

	q, err := c.buildRange(d, lower, upper)
	if err != nil {
		return query.Boolean{}, err
	}
	return wrap(q, v.Occur, v.Boost), nil
}

func evalBound(cmp *predicate.Compare) (*bound, error) {
	if cmp.Value == nil {
		return nil, &QueryBuildError{Code: ErrCodeInvalidNode, Field: cmp.Field, Message: "range bound has no value"}
	}
	val, err := cmp.Value()
	if err != nil {
		return nil, err
	}
	return &bound{kind: cmp.Kind, value: val}, nil
}

func (c *Compiler) anyField(v predicate.AnyField) (query.Boolean, error) {
	if v.Pattern == "" {
		return wrap(query.MatchAll{}, v.Occur, 0), nil
	}
	p := c.newParser(c.analyzer, textparse.Options{
		LowercaseExpandedTerms: true,
		KeepCase:               c.keepCase,
		AllowLeadingWildcard:   c.settings.AllowLeadingWildcard,
		SplitOnWhitespace:      true,
	})
	q, err := p.ParseMultiField(c.mapping.AllFieldNames(), v.Pattern)
	if err != nil {
		return query.Boolean{}, &QueryBuildError{Code: ErrCodeInvalidPattern, Message: "parse multi-field pattern", Err: err}
	}
	return wrap(q, v.Occur, 0), nil
}
