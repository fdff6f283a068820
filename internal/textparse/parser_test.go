package textparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/analysis"
	"github.com/roach88/sift/internal/query"
)

func TestParse(t *testing.T) {
	p := New(analysis.Standard{}, Options{LowercaseExpandedTerms: true, SplitOnWhitespace: true})

	testCases := []struct {
		name    string
		pattern string
		want    string
	}{
		{"single term", "John", "name:john"},
		{"optional terms", "John Smith", "name:john name:smith"},
		{"operators", "+john -smith", "+name:john -name:smith"},
		{"prefix wildcard", "Jo*", "name:jo*"},
		{"single char wildcard", "j?hn", "name:j?hn"},
		{"escaped star is literal", `jo\*`, "name:jo"},
		{"escaped star inside wildcard", `a\*b*`, `name:a\*b*`},
		{"quoted phrase", `"John Smith"`, "+name:john +name:smith"},
		{"multi-token term", "o'neil", "+name:o +name:neil"},
		{"lone star", "*", "name:*"},
		{"escaped operator", `\-5`, "name:5"},
		{"lone operator", "+", ""},
		{"lone exclusion", "-smith", "-name:smith"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := p.Parse("name", tc.pattern)
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.String())
		})
	}
}

func TestParse_NoSplit(t *testing.T) {
	p := New(analysis.Keyword{}, Options{})

	q, err := p.Parse("code", "AB CD")
	require.NoError(t, err)
	assert.Equal(t, query.Term{Field: "code", Text: "AB CD"}, q)

	q, err = p.Parse("code", "AB C*")
	require.NoError(t, err)
	assert.Equal(t, query.Wildcard{Field: "code", Pattern: "AB C*"}, q)
}

func TestParse_LeadingWildcard(t *testing.T) {
	strict := New(nil, Options{SplitOnWhitespace: true})
	_, err := strict.Parse("name", "*ohn")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "leading wildcard not allowed")

	_, err = strict.Parse("name", "?ohn")
	assert.True(t, IsParseError(err))

	q, err := strict.Parse("name", `\*ohn*`)
	require.NoError(t, err)
	assert.Equal(t, `name:\*ohn*`, q.String())

	lenient := New(nil, Options{SplitOnWhitespace: true, AllowLeadingWildcard: true})
	q, err = lenient.Parse("name", "*ohn*")
	require.NoError(t, err)
	assert.Equal(t, query.Wildcard{Field: "name", Pattern: "*ohn*"}, q)
}

func TestParse_CaseSensitiveWildcard(t *testing.T) {
	p := New(nil, Options{SplitOnWhitespace: true})
	q, err := p.Parse("name", "Jo*")
	require.NoError(t, err)
	assert.Equal(t, "name:Jo*", q.String())
}

func TestParse_KeepCase(t *testing.T) {
	p := New(nil, Options{
		LowercaseExpandedTerms: true,
		SplitOnWhitespace:      true,
		KeepCase:               map[string]bool{"code": true},
	})

	testCases := []struct {
		field string
		want  string
	}{
		{"code", "code:Bo*"},
		{"name", "name:bo*"},
	}

	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			q, err := p.Parse(tc.field, "Bo*")
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	p := New(nil, Options{SplitOnWhitespace: true})
	for _, pattern := range []string{`abc\`, `"abc`} {
		_, err := p.Parse("f", pattern)
		require.Error(t, err, pattern)
		assert.True(t, IsParseError(err))
	}
}

func TestParseMultiField(t *testing.T) {
	p := New(analysis.Standard{}, Options{LowercaseExpandedTerms: true, SplitOnWhitespace: true})

	q, err := p.ParseMultiField([]string{"name", "title"}, "Bob +smi*")
	require.NoError(t, err)
	assert.Equal(t, "(name:bob title:bob) +(name:smi* title:smi*)", q.String())

	q, err = p.ParseMultiField([]string{"name"}, "bob")
	require.NoError(t, err)
	assert.Equal(t, query.Term{Field: "name", Text: "bob"}, q)
}

func TestParseMultiField_SkipsFieldsWithoutTokens(t *testing.T) {
	a := analysis.NewPerField(analysis.Standard{}, map[string]analysis.Analyzer{"code": analysis.Keyword{}})
	p := New(a, Options{SplitOnWhitespace: true})

	q, err := p.ParseMultiField([]string{"code", "name"}, "...")
	require.NoError(t, err)
	assert.Equal(t, query.Term{Field: "code", Text: "..."}, q)
}

func TestEscape(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"a+b", `a\+b`},
		{"(x:y)", `\(x\:y\)`},
		{`c:\dir`, `c\:\\dir`},
		{"*?", `\*\?`},
		{"a&&b||c", `a\&\&b\|\|c`},
		{"1/2", `1\/2`},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Escape(tc.in))
		})
	}
}

func TestEscape_ParsesBackToLiteral(t *testing.T) {
	p := New(analysis.Keyword{}, Options{})
	for _, s := range []string{"a+b", "x*y", `back\slash`, `"quoted"`, "-lead"} {
		q, err := p.Parse("f", Escape(s))
		require.NoError(t, err)
		assert.Equal(t, query.Term{Field: "f", Text: s}, q)
	}
}
