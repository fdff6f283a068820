// Package textparse parses analyzed text patterns into native queries.
//
// The grammar is deliberately small. A pattern is a sequence of terms
// separated by whitespace (when SplitOnWhitespace is set). Each term may
// carry a leading `+` (required) or `-` (excluded) operator; other terms
// are optional. Within a term:
//   - `\c` escapes c
//   - `"..."` quotes a run of literal text, whitespace included
//   - unescaped `*` and `?` turn the term into a wildcard
//
// Every other character is literal. Plain terms are passed through the
// field's analyzer; wildcard terms are matched against index terms as is,
// lower-cased when LowercaseExpandedTerms is set and the field is not
// listed in KeepCase.
//
// A Parser holds per-call configuration only and is cheap to create; the
// compiler builds one for every leaf it parses.
package textparse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sift/internal/analysis"
	"github.com/roach88/sift/internal/query"
)

// Options configures one Parser.
type Options struct {
	// LowercaseExpandedTerms lower-cases wildcard terms.
	LowercaseExpandedTerms bool

	// KeepCase lists fields whose wildcard terms are never lower-cased,
	// whatever LowercaseExpandedTerms says. Multi-field patterns span
	// fields with different case policies.
	KeepCase map[string]bool

	// AllowLeadingWildcard permits terms starting with `*` or `?`.
	// A lone `*` is always allowed.
	AllowLeadingWildcard bool

	// SplitOnWhitespace separates terms on unescaped whitespace. When false
	// the whole pattern is a single term.
	SplitOnWhitespace bool
}

// Parser turns patterns into queries.
type Parser struct {
	analyzer analysis.Analyzer
	opts     Options
}

// New creates a Parser. A nil analyzer uses analysis.Standard.
func New(a analysis.Analyzer, opts Options) *Parser {
	if a == nil {
		a = analysis.Standard{}
	}
	return &Parser{analyzer: a, opts: opts}
}

// Options returns the parser configuration.
func (p *Parser) Options() Options { return p.opts }

// ParseError reports a malformed pattern.
type ParseError struct {
	Field   string
	Pattern string
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q for %s at %d: %s", e.Pattern, e.Field, e.Pos, e.Message)
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parse parses pattern for a single field.
func (p *Parser) Parse(field, pattern string) (query.Query, error) {
	return p.parse([]string{field}, field, pattern)
}

// ParseMultiField parses pattern once and expands every term over fields:
// each term becomes a Should group of per-field alternatives carrying the
// term's operator.
func (p *Parser) ParseMultiField(fields []string, pattern string) (query.Query, error) {
	return p.parse(fields, strings.Join(fields, ","), pattern)
}

type piece struct {
	r       rune
	escaped bool
}

func (p *Parser) parse(fields []string, label, pattern string) (query.Query, error) {
	terms, err := p.split(label, pattern)
	if err != nil {
		return nil, err
	}

	var clauses []query.Clause
	for _, t := range terms {
		occur, t := operator(t)
		var alts []query.Query
		for _, f := range fields {
			q, err := p.termQuery(f, pattern, t)
			if err != nil {
				return nil, err
			}
			if q != nil {
				alts = append(alts, q)
			}
		}
		switch len(alts) {
		case 0:
		case 1:
			clauses = append(clauses, query.Clause{Query: alts[0], Occur: occur})
		default:
			group := query.Boolean{}
			for _, a := range alts {
				group = group.With(query.Clause{Query: a, Occur: query.Should})
			}
			clauses = append(clauses, query.Clause{Query: group, Occur: occur})
		}
	}

	if len(clauses) == 1 && clauses[0].Occur != query.MustNot {
		return clauses[0].Query, nil
	}
	return query.NewBoolean(clauses...), nil
}

// split breaks pattern into terms, resolving escapes and quotes.
func (p *Parser) split(label, pattern string) ([][]piece, error) {
	var (
		terms   [][]piece
		cur     []piece
		inQuote bool
		quoteAt int
	)
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\':
			if i+1 == len(runes) {
				return nil, &ParseError{Field: label, Pattern: pattern, Pos: i, Message: "trailing escape"}
			}
			i++
			cur = append(cur, piece{r: runes[i], escaped: true})
		case r == '"':
			inQuote = !inQuote
			quoteAt = i
		case inQuote:
			cur = append(cur, piece{r: r, escaped: true})
		case p.opts.SplitOnWhitespace && unicode.IsSpace(r):
			if len(cur) > 0 {
				terms = append(terms, cur)
				cur = nil
			}
		default:
			cur = append(cur, piece{r: r})
		}
	}
	if inQuote {
		return nil, &ParseError{Field: label, Pattern: pattern, Pos: quoteAt, Message: "unterminated quote"}
	}
	if len(cur) > 0 {
		terms = append(terms, cur)
	}
	return terms, nil
}

func operator(t []piece) (query.Occur, []piece) {
	if len(t) > 1 && !t[0].escaped {
		switch t[0].r {
		case '+':
			return query.Must, t[1:]
		case '-':
			return query.MustNot, t[1:]
		}
	}
	return query.Should, t
}

func isWildcard(t []piece) bool {
	for _, pc := range t {
		if !pc.escaped && (pc.r == '*' || pc.r == '?') {
			return true
		}
	}
	return false
}

// termQuery builds the query for one term in one field, or nil when the
// analyzer produces no tokens.
func (p *Parser) termQuery(field, pattern string, t []piece) (query.Query, error) {
	if isWildcard(t) {
		return p.wildcard(field, pattern, t)
	}

	var sb strings.Builder
	for _, pc := range t {
		sb.WriteRune(pc.r)
	}
	tokens := p.analyzer.Tokens(field, sb.String())
	switch len(tokens) {
	case 0:
		return nil, nil
	case 1:
		return query.Term{Field: field, Text: tokens[0]}, nil
	default:
		b := query.Boolean{}
		for _, tok := range tokens {
			b = b.With(query.Clause{Query: query.Term{Field: field, Text: tok}, Occur: query.Must})
		}
		return b, nil
	}
}

func (p *Parser) wildcard(field, pattern string, t []piece) (query.Query, error) {
	lone := len(t) == 1 && t[0].r == '*'
	if !lone && !p.opts.AllowLeadingWildcard && !t[0].escaped && (t[0].r == '*' || t[0].r == '?') {
		return nil, &ParseError{Field: field, Pattern: pattern, Message: "leading wildcard not allowed"}
	}

	var sb strings.Builder
	for _, pc := range t {
		if pc.escaped && (pc.r == '*' || pc.r == '?' || pc.r == '\\') {
			sb.WriteByte('\\')
		}
		sb.WriteRune(pc.r)
	}
	text := norm.NFC.String(sb.String())
	if p.opts.LowercaseExpandedTerms && !p.opts.KeepCase[field] {
		text = cases.Lower(language.Und).String(text)
	}
	return query.Wildcard{Field: field, Pattern: text}, nil
}

const special = `\+-!():^[]"{}~*?|&/`

// Escape backslash-escapes every character the parser or a full query
// syntax would treat specially. Whitespace is left as is.
func Escape(s string) string {
	if !strings.ContainsAny(s, special) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
