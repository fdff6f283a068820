package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/predicate"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Step     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s (step %s)\n", e.Type, e.Step)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. A step that failed cannot satisfy any assertion.
func EvaluateAssertions(assertions []Assertion, h *Harness) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertHitCount:
			err = assertHitCount(h, a)
		case AssertComplement:
			err = assertComplement(h, a)
		case AssertSubset:
			err = assertSubset(h, a)
		case AssertSameHits:
			err = assertSameHits(h, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func stepHits(h *Harness, a Assertion, name string) ([]string, error) {
	hits, ok := h.hits[name]
	if !ok {
		return nil, &AssertionError{
			Type:     a.Type,
			Step:     a.Step,
			Expected: fmt.Sprintf("step %s to succeed", name),
			Actual:   "step failed or did not run",
		}
	}
	return hits, nil
}

func assertHitCount(h *Harness, a Assertion) error {
	hits, err := stepHits(h, a, a.Step)
	if err != nil {
		return err
	}
	if len(hits) != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Step:     a.Step,
			Expected: fmt.Sprintf("%d hit(s)", a.Count),
			Actual:   fmt.Sprintf("%d hit(s) %v", len(hits), hits),
		}
	}
	return nil
}

// assertComplement negates the step's predicate and checks that it matches
// exactly the documents the step did not.
func assertComplement(h *Harness, a Assertion) error {
	hits, err := stepHits(h, a, a.Step)
	if err != nil {
		return err
	}
	neg, err := predicate.Not(h.nodes[a.Step])
	if err != nil {
		return &AssertionError{Type: a.Type, Step: a.Step, Expected: "a negatable predicate", Actual: err.Error()}
	}
	got, q, err := h.search(neg)
	if err != nil {
		return &AssertionError{Type: a.Type, Step: a.Step, Expected: "negation to compile", Actual: err.Error()}
	}

	want := difference(h.all, hits)
	if !equalIDs(want, got) {
		return &AssertionError{
			Type:     a.Type,
			Step:     a.Step,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v from %s", got, q),
		}
	}
	return nil
}

func assertSubset(h *Harness, a Assertion) error {
	hits, err := stepHits(h, a, a.Step)
	if err != nil {
		return err
	}
	other, err := stepHits(h, a, a.Other)
	if err != nil {
		return err
	}
	if extra := difference(hits, other); len(extra) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Step:     a.Step,
			Expected: fmt.Sprintf("every hit in %s %v", a.Other, other),
			Actual:   fmt.Sprintf("%v not in %s", extra, a.Other),
		}
	}
	return nil
}

func assertSameHits(h *Harness, a Assertion) error {
	hits, err := stepHits(h, a, a.Step)
	if err != nil {
		return err
	}
	other, err := stepHits(h, a, a.Other)
	if err != nil {
		return err
	}
	if !equalIDs(hits, other) {
		return &AssertionError{
			Type:     a.Type,
			Step:     a.Step,
			Expected: fmt.Sprintf("%v (hits of %s)", other, a.Other),
			Actual:   fmt.Sprintf("%v", hits),
		}
	}
	return nil
}

// difference returns the sorted ids of a that are not in b.
func difference(a, b []string) []string {
	skip := make(map[string]bool, len(b))
	for _, id := range b {
		skip[id] = true
	}
	out := []string{}
	for _, id := range a {
		if !skip[id] {
			out = append(out, id)
		}
	}
	return out
}
