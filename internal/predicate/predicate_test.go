package predicate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/query"
)

func TestKind_StringAndParse(t *testing.T) {
	for _, k := range []Kind{Equals, Prefix, Suffix, Wildcard, GreaterThan, GreaterOrEqual, LessThan, LessOrEqual} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind("Wildcard")
	require.NoError(t, err)
	assert.Equal(t, Wildcard, got)

	_, err = ParseKind("like")
	assert.Error(t, err)
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestKind_RangeClassification(t *testing.T) {
	assert.True(t, GreaterThan.IsRange())
	assert.True(t, GreaterThan.IsLower())
	assert.True(t, LessOrEqual.IsRange())
	assert.False(t, LessOrEqual.IsLower())
	assert.False(t, Prefix.IsRange())
}

func TestHelpers(t *testing.T) {
	c := Gte("age", 18).WithBoost(2).WithOccur(query.Should)
	assert.Equal(t, "age", c.Field)
	assert.Equal(t, GreaterOrEqual, c.Kind)
	assert.Equal(t, float32(2), c.Boost)
	assert.Equal(t, query.Should, c.Occur)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, 18, v)
}

func TestLazy_EvaluatesOnCall(t *testing.T) {
	x := 1
	c := Lazy("n", Equals, func() (any, error) { return x, nil })
	x = 2
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestAllOfAnyOf(t *testing.T) {
	a, b, c := Eq("a", 1), Eq("b", 2), Eq("c", 3)

	assert.Nil(t, AllOf())
	assert.Equal(t, "a", fieldOf(t, AllOf(nil, a)))

	and, ok := AllOf(a, b, c).(And)
	require.True(t, ok)
	assert.Equal(t, "c", fieldOf(t, and.Right))
	inner, ok := and.Left.(And)
	require.True(t, ok, "AllOf folds left-deep")
	assert.Equal(t, "a", fieldOf(t, inner.Left))
	assert.Equal(t, "b", fieldOf(t, inner.Right))

	or, ok := AnyOf(a, nil, b).(Or)
	require.True(t, ok)
	assert.Equal(t, "a", fieldOf(t, or.Left))
	assert.Equal(t, "b", fieldOf(t, or.Right))
}

// fieldOf returns the field of a Compare leaf. Compare values hold a
// func and cannot be compared with assert.Equal.
func fieldOf(t *testing.T, n Node) string {
	t.Helper()
	c, ok := n.(Compare)
	require.True(t, ok, "want Compare, got %T", n)
	return c.Field
}

func TestBetween_Validate(t *testing.T) {
	lo, hi := Gt("n", 5), Lt("n", 10)
	assert.NoError(t, InRange(&lo, &hi).Validate())
	assert.NoError(t, InRange(&lo, nil).Validate())
	assert.Equal(t, "n", InRange(nil, &hi).Field())

	testCases := []struct {
		name string
		b    Between
	}{
		{"no bounds", Between{}},
		{"lower uses upper kind", InRange(&hi, nil)},
		{"upper uses lower kind", InRange(nil, &lo)},
		{"upper not a range", Between{Upper: &Compare{Field: "n", Kind: Equals}}},
		{"different fields", InRange(&lo, &Compare{Field: "m", Kind: LessThan})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.b.Validate())
		})
	}
}

func TestNot(t *testing.T) {
	a, b := Eq("a", 1), Eq("b", 2)

	n, err := Not(a)
	require.NoError(t, err)
	assert.Equal(t, query.MustNot, n.(Compare).Occur)

	back, err := Not(n)
	require.NoError(t, err)
	assert.Equal(t, query.Must, back.(Compare).Occur)

	n, err = Not(And{Left: a, Right: b})
	require.NoError(t, err)
	or, ok := n.(Or)
	require.True(t, ok)
	assert.Equal(t, query.MustNot, or.Left.(Compare).Occur)
	assert.Equal(t, query.MustNot, or.Right.(Compare).Occur)

	n, err = Not(Or{Left: a, Right: AnyField{Pattern: "x"}})
	require.NoError(t, err)
	and, ok := n.(And)
	require.True(t, ok)
	assert.Equal(t, query.MustNot, and.Right.(AnyField).Occur)

	n, err = Not(Raw{Query: query.MatchAll{}})
	require.NoError(t, err)
	assert.Equal(t, query.MustNot, n.(Raw).Occur)

	lo := Gt("n", 1)
	n, err = Not(InRange(&lo, nil))
	require.NoError(t, err)
	assert.Equal(t, query.MustNot, n.(Between).Occur)
}

func TestNot_Undefined(t *testing.T) {
	_, err := Not(Eq("a", 1).WithOccur(query.Should))
	assert.True(t, errors.Is(err, ErrNotNegatable))

	_, err = Not(And{Left: Eq("a", 1), Right: AnyField{Pattern: "x", Occur: query.Should}})
	assert.True(t, errors.Is(err, ErrNotNegatable))

	_, err = Not(nil)
	assert.True(t, errors.Is(err, ErrNotNegatable))
}
