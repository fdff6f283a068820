// Package analysis provides the tokenization pipeline applied to text at
// index time and, for range bounds and analyzed patterns, at query time.
package analysis

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Analyzer turns raw field text into index terms.
//
// Implementations must be safe for concurrent use.
type Analyzer interface {
	// Tokens returns the terms produced for text in field.
	Tokens(field, text string) []string

	// Analyze returns the normalized form of text: its tokens joined by a
	// single space.
	Analyze(field, text string) string
}

// Standard splits text on runs of characters that are neither letters nor
// digits, NFC-normalizes it and lower-cases every token.
type Standard struct {
	// PreserveCase disables lower-casing.
	PreserveCase bool
}

// Tokens implements Analyzer.
func (a Standard) Tokens(_ string, text string) []string {
	text = norm.NFC.String(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return nil
	}
	if a.PreserveCase {
		return fields
	}
	// Casers are stateful; one per call keeps Standard safe to share.
	lower := cases.Lower(language.Und)
	for i, f := range fields {
		fields[i] = lower.String(f)
	}
	return fields
}

// Analyze implements Analyzer.
func (a Standard) Analyze(field, text string) string {
	return strings.Join(a.Tokens(field, text), " ")
}

// Keyword indexes the whole text as one verbatim term.
type Keyword struct{}

// Tokens implements Analyzer.
func (Keyword) Tokens(_ string, text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}

// Analyze implements Analyzer.
func (Keyword) Analyze(_ string, text string) string {
	return text
}

// PerField dispatches to a field-specific analyzer, falling back to a
// default for fields without an override.
type PerField struct {
	def    Analyzer
	fields map[string]Analyzer
}

// NewPerField creates a PerField analyzer. The overrides map is copied.
func NewPerField(def Analyzer, overrides map[string]Analyzer) *PerField {
	fields := make(map[string]Analyzer, len(overrides))
	for name, a := range overrides {
		fields[name] = a
	}
	if def == nil {
		def = Standard{}
	}
	return &PerField{def: def, fields: fields}
}

// For returns the analyzer used for field.
func (p *PerField) For(field string) Analyzer {
	if a, ok := p.fields[field]; ok {
		return a
	}
	return p.def
}

// Tokens implements Analyzer.
func (p *PerField) Tokens(field, text string) []string {
	return p.For(field).Tokens(field, text)
}

// Analyze implements Analyzer.
func (p *PerField) Analyze(field, text string) string {
	return p.For(field).Analyze(field, text)
}
