// Package memindex is an in-memory inverted index that executes native
// queries with boolean occur semantics:
//   - Must clauses are intersected
//   - Should clauses are optional when a Must clause is present and
//     otherwise at least one must match
//   - MustNot clauses are subtracted
//
// A Boolean with only MustNot clauses, or no clauses, matches nothing.
package memindex

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/sift/internal/analysis"
	"github.com/roach88/sift/internal/docmap"
	"github.com/roach88/sift/internal/query"
)

type entry struct {
	doc     docmap.Document
	terms   map[string]map[string]struct{}
	numbers map[string][]any
}

// Index holds documents in memory. It is safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	analyzer analysis.Analyzer
	docs     map[string]*entry
}

// New creates an empty Index. Analyzed fields are tokenized with a; use
// the analyzer the queries are compiled with.
func New(a analysis.Analyzer) *Index {
	if a == nil {
		a = analysis.Standard{}
	}
	return &Index{analyzer: a, docs: make(map[string]*entry)}
}

// Add indexes doc and returns its id. A document without an id gets a
// time-ordered UUID; a document with the id of an existing one replaces it.
func (ix *Index) Add(doc docmap.Document) (string, error) {
	if doc.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generate document id: %w", err)
		}
		doc.ID = id.String()
	}

	e := &entry{
		doc:     doc,
		terms:   make(map[string]map[string]struct{}),
		numbers: make(map[string][]any),
	}
	for _, f := range doc.Fields {
		if !f.Indexed {
			continue
		}
		if f.Numeric {
			e.numbers[f.Name] = append(e.numbers[f.Name], f.Number)
			continue
		}
		tokens := []string{f.Text}
		if f.Analyzed {
			tokens = ix.analyzer.Tokens(f.Name, f.Text)
		}
		for _, tok := range tokens {
			if tok == "" {
				continue
			}
			if e.terms[f.Name] == nil {
				e.terms[f.Name] = make(map[string]struct{})
			}
			e.terms[f.Name][tok] = struct{}{}
		}
	}

	ix.mu.Lock()
	ix.docs[doc.ID] = e
	ix.mu.Unlock()
	return doc.ID, nil
}

// Delete removes the document with id and reports whether it existed.
func (ix *Index) Delete(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.docs[id]
	delete(ix.docs, id)
	return ok
}

// Get returns the document with id.
func (ix *Index) Get(id string) (docmap.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.docs[id]
	if !ok {
		return docmap.Document{}, false
	}
	return e.doc, true
}

// Len returns the number of documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search returns the ids of documents matching q, sorted.
func (ix *Index) Search(q query.Query) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits, err := ix.eval(q)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type set map[string]struct{}

func (ix *Index) filter(match func(e *entry) bool) set {
	out := make(set)
	for id, e := range ix.docs {
		if match(e) {
			out[id] = struct{}{}
		}
	}
	return out
}

func (ix *Index) eval(q query.Query) (set, error) {
	switch n := q.(type) {
	case query.Term:
		return ix.filter(func(e *entry) bool {
			_, ok := e.terms[n.Field][n.Text]
			return ok
		}), nil

	case query.Wildcard:
		re, err := wildcardRegexp(n.Pattern)
		if err != nil {
			return nil, err
		}
		matchAll := n.Pattern == "*"
		return ix.filter(func(e *entry) bool {
			if matchAll && len(e.numbers[n.Field]) > 0 {
				return true
			}
			for t := range e.terms[n.Field] {
				if re.MatchString(t) {
					return true
				}
			}
			return false
		}), nil

	case query.TermRange:
		return ix.filter(func(e *entry) bool {
			for t := range e.terms[n.Field] {
				if inTermRange(n, t) {
					return true
				}
			}
			return false
		}), nil

	case query.NumericRange:
		return ix.filter(func(e *entry) bool {
			for _, v := range e.numbers[n.Field] {
				if inNumericRange(n, v) {
					return true
				}
			}
			return false
		}), nil

	case query.MatchAll:
		return ix.filter(func(*entry) bool { return true }), nil

	case query.Boolean:
		return ix.evalBoolean(n)

	default:
		return nil, fmt.Errorf("unsupported query %T", q)
	}
}

func (ix *Index) evalBoolean(b query.Boolean) (set, error) {
	var (
		must    set
		should  = make(set)
		exclude = make(set)
		hasMust bool
		hasOpt  bool
	)
	for _, c := range b.Clauses {
		hits, err := ix.eval(c.Query)
		if err != nil {
			return nil, err
		}
		switch c.Occur {
		case query.Must:
			if !hasMust {
				must, hasMust = hits, true
				continue
			}
			must = intersect(must, hits)
		case query.Should:
			hasOpt = true
			for id := range hits {
				should[id] = struct{}{}
			}
		case query.MustNot:
			for id := range hits {
				exclude[id] = struct{}{}
			}
		default:
			return nil, fmt.Errorf("unsupported occur %s", c.Occur)
		}
	}

	var out set
	switch {
	case hasMust:
		out = must
	case hasOpt:
		out = should
	default:
		return make(set), nil
	}
	for id := range exclude {
		delete(out, id)
	}
	return out, nil
}

func intersect(a, b set) set {
	out := make(set)
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// wildcardRegexp translates a wildcard pattern: `*` matches any run, `?`
// one character and a backslash escapes the next character.
func wildcardRegexp(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString(`^(?s:`)
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*':
			sb.WriteString(`.*`)
		case r == '?':
			sb.WriteString(`.`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		return nil, fmt.Errorf("wildcard %q ends with an escape", pattern)
	}
	sb.WriteString(`)$`)
	return regexp.Compile(sb.String())
}

func inTermRange(q query.TermRange, t string) bool {
	if q.Lower != nil {
		c := strings.Compare(t, *q.Lower)
		if c < 0 || (c == 0 && !q.IncludeLower) {
			return false
		}
	}
	if q.Upper != nil {
		c := strings.Compare(t, *q.Upper)
		if c > 0 || (c == 0 && !q.IncludeUpper) {
			return false
		}
	}
	return true
}

func inNumericRange(q query.NumericRange, v any) bool {
	if q.Min != nil {
		c := compareNumbers(v, q.Min)
		if c < 0 || (c == 0 && !q.IncludeMin) {
			return false
		}
	}
	if q.Max != nil {
		c := compareNumbers(v, q.Max)
		if c > 0 || (c == 0 && !q.IncludeMax) {
			return false
		}
	}
	return true
}

// compareNumbers orders two numeric values. Integers compare exactly;
// anything involving a float compares as float64.
func compareNumbers(a, b any) int {
	ai, aInt := asInt64(a)
	bi, bInt := asInt64(b)
	if aInt && bInt {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	af, bf := asFloat64(a), asFloat64(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		i, _ := asInt64(v)
		return float64(i)
	}
}
