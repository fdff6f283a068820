package mapping

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/analysis"
	"github.com/roach88/sift/internal/query"
)

func personProperties() []Property {
	return []Property{
		{Name: "Name", Type: String},
		{Name: "Age", Type: Int64, Numeric: &NumericAnnotation{}},
		{Name: "ID", Type: String, Field: &FieldAnnotation{Name: "id", Index: NotAnalyzed, Key: true}},
		{Name: "Born", Type: Time},
		{Name: "Tags", Type: String, Collection: true},
		{Name: "Score", Type: Float32, Score: true},
	}
}

func TestBuild_PersonMapping(t *testing.T) {
	m, err := Build("person", personProperties(), nil)
	require.NoError(t, err)

	assert.Equal(t, "person", m.Entity())
	assert.Equal(t, []string{"Age", "Born", "Name", "Tags", "id"}, m.AllFieldNames())
	assert.Equal(t, "Score", m.ScoreProperty())
	assert.Equal(t, Float32, m.ScoreType())
	assert.Equal(t, "ID", m.KeyProperty())
	assert.Len(t, m.Fields(), 5)

	_, err = m.Lookup("Score")
	assert.True(t, IsMappingError(err), "score property is excluded from field mapping")
}

func TestDescribe_Numeric(t *testing.T) {
	d, err := Describe(Property{Name: "Age", Type: Int64, Numeric: &NumericAnnotation{Name: "age"}}, nil)
	require.NoError(t, err)

	assert.True(t, d.Numeric)
	assert.Equal(t, "age", d.FieldName)
	assert.Equal(t, query.Long, d.NumericType)
	assert.Nil(t, d.Converter)
	assert.False(t, d.Analyzed())
}

func TestDescribe_NumericSubtypes(t *testing.T) {
	testCases := []struct {
		typ  ValueType
		want query.NumericType
	}{
		{Int32, query.Int},
		{Int, query.Long},
		{Int64, query.Long},
		{Float32, query.Float},
		{Float64, query.Double},
	}

	for _, tc := range testCases {
		t.Run(tc.typ.String(), func(t *testing.T) {
			d, err := Describe(Property{Name: "n", Type: tc.typ, Numeric: &NumericAnnotation{}}, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.NumericType)
		})
	}
}

func TestDescribe_NumericRejectsText(t *testing.T) {
	_, err := Describe(Property{Name: "Name", Type: String, Numeric: &NumericAnnotation{}}, nil)
	require.Error(t, err)
	assert.True(t, IsMappingError(err))
	assert.Contains(t, err.Error(), "numeric annotation requires a numeric type")
}

func TestDescribe_CaseSensitivity(t *testing.T) {
	testCases := []struct {
		name string
		ann  *FieldAnnotation
		want bool
	}{
		{"default analyzed", nil, false},
		{"explicit flag", &FieldAnnotation{CaseSensitive: true}, true},
		{"not analyzed", &FieldAnnotation{Index: NotAnalyzed}, true},
		{"not analyzed no norms", &FieldAnnotation{Index: NotAnalyzedNoNorms}, true},
		{"analyzed no norms", &FieldAnnotation{Index: AnalyzedNoNorms}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Describe(Property{Name: "f", Type: String, Field: tc.ann}, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.CaseSensitive)
		})
	}
}

func TestDescribe_ConverterPrecedence(t *testing.T) {
	reg := NewRegistry()
	reg.Register("status", func() Converter { return NewEnumConverter("active", "inactive") })

	t.Run("explicit converter wins", func(t *testing.T) {
		d, err := Describe(Property{Name: "Status", Type: Int, Field: &FieldAnnotation{Converter: "status"}}, reg)
		require.NoError(t, err)
		assert.IsType(t, &EnumConverter{}, d.Converter)
	})

	t.Run("time uses default format", func(t *testing.T) {
		d, err := Describe(Property{Name: "Born", Type: Time}, reg)
		require.NoError(t, err)
		tc, ok := d.Converter.(*TimeConverter)
		require.True(t, ok)
		assert.Equal(t, DefaultTimeFormat, tc.Format())
		assert.Equal(t, "2006-01-02T15:04:05", tc.Layout())
	})

	t.Run("time uses explicit format", func(t *testing.T) {
		d, err := Describe(Property{Name: "Born", Type: Time, Field: &FieldAnnotation{Format: "yyyyMMdd"}}, reg)
		require.NoError(t, err)
		assert.Equal(t, "20060102", d.Converter.(*TimeConverter).Layout())
	})

	t.Run("format on non-time property fails", func(t *testing.T) {
		_, err := Describe(Property{Name: "Count", Type: Int, Field: &FieldAnnotation{Format: "yyyy"}}, reg)
		assert.True(t, IsMappingError(err))
	})

	t.Run("string has no converter", func(t *testing.T) {
		d, err := Describe(Property{Name: "Name", Type: String}, reg)
		require.NoError(t, err)
		assert.Nil(t, d.Converter)
	})

	t.Run("default converter for bool", func(t *testing.T) {
		d, err := Describe(Property{Name: "Active", Type: Bool}, reg)
		require.NoError(t, err)
		s, err := d.Format(true)
		require.NoError(t, err)
		assert.Equal(t, "true", s)
	})

	t.Run("custom without converter fails", func(t *testing.T) {
		_, err := Describe(Property{Name: "Blob", Type: Custom}, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no text conversion")
	})

	t.Run("unknown converter fails", func(t *testing.T) {
		_, err := Describe(Property{Name: "Status", Type: Int, Field: &FieldAnnotation{Converter: "nope"}}, reg)
		assert.True(t, IsMappingError(err))
	})
}

type lossyConverter struct{}

func (lossyConverter) ToString(v any) (string, error)   { return "x", nil }
func (lossyConverter) FromString(s string) (any, error) { return 42, nil }

func TestDescribe_RejectsNonRoundTrippingConverter(t *testing.T) {
	reg := NewRegistry()
	reg.Register("lossy", func() Converter { return lossyConverter{} })

	_, err := Describe(Property{Name: "Count", Type: Int, Field: &FieldAnnotation{Converter: "lossy"}}, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not round-trip")
}

func TestBuild_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		props []Property
		msg   string
	}{
		{
			name:  "duplicate property",
			props: []Property{{Name: "A"}, {Name: "A"}},
			msg:   "duplicate property",
		},
		{
			name: "duplicate field name",
			props: []Property{
				{Name: "A", Field: &FieldAnnotation{Name: "x"}},
				{Name: "B", Field: &FieldAnnotation{Name: "x"}},
			},
			msg: `field name "x" already used by A`,
		},
		{
			name:  "integer score",
			props: []Property{{Name: "S", Type: Int, Score: true}},
			msg:   "score property must be float32 or float64",
		},
		{
			name: "two keys",
			props: []Property{
				{Name: "A", Field: &FieldAnnotation{Key: true}},
				{Name: "B", Field: &FieldAnnotation{Key: true}},
			},
			msg: "key already declared as A",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build("thing", tc.props, nil)
			require.Error(t, err)
			assert.True(t, IsMappingError(err))
			assert.Contains(t, err.Error(), tc.msg)
			assert.Contains(t, err.Error(), "thing.")
		})
	}
}

func TestBuild_Alias(t *testing.T) {
	m, err := Build("thing", []Property{
		{Name: "Title", Field: &FieldAnnotation{Name: "text"}},
		{Name: "Body", Field: &FieldAnnotation{Name: "text", Alias: true}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"text"}, m.AllFieldNames())
	d, err := m.Lookup("text")
	require.NoError(t, err)
	assert.Equal(t, "Title", d.Property)
	d, err = m.Lookup("Body")
	require.NoError(t, err)
	assert.Equal(t, "text", d.FieldName)
}

func TestLookup_UnknownField(t *testing.T) {
	m, err := Build("person", personProperties(), nil)
	require.NoError(t, err)

	_, err = m.Lookup("Nope")
	require.Error(t, err)
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "person", me.Entity)
	assert.Equal(t, "Nope", me.Property)
}

func TestMapping_AccessorsReturnCopies(t *testing.T) {
	m, err := Build("person", personProperties(), nil)
	require.NoError(t, err)

	names := m.AllFieldNames()
	names[0] = "mutated"
	fields := m.Fields()
	fields[0].FieldName = "mutated"

	assert.Equal(t, "Age", m.AllFieldNames()[0])
	assert.Equal(t, "Name", m.Fields()[0].FieldName)
}

func TestMapping_ConcurrentLookup(t *testing.T) {
	m, err := Build("person", personProperties(), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				d, err := m.Lookup("id")
				assert.NoError(t, err)
				assert.True(t, d.CaseSensitive)
			}
		}()
	}
	wg.Wait()
}

func TestMapping_Analyzer(t *testing.T) {
	m, err := Build("person", []Property{
		{Name: "Name", Type: String},
		{Name: "Code", Type: String, Field: &FieldAnnotation{Index: NotAnalyzed}},
		{Name: "Title", Type: String, Field: &FieldAnnotation{CaseSensitive: true}},
		{Name: "Born", Type: Time},
	}, nil)
	require.NoError(t, err)

	a := m.Analyzer(nil)
	assert.Equal(t, []string{"john", "smith"}, a.Tokens("Name", "John Smith"))
	assert.Equal(t, []string{"AB CD"}, a.Tokens("Code", "AB CD"))
	assert.Equal(t, []string{"Dr", "Who"}, a.Tokens("Title", "Dr. Who"))
	assert.Equal(t, []string{"2020-01-02T03:04:05"}, a.Tokens("Born", "2020-01-02T03:04:05"))

	_, isPerField := a.(*analysis.PerField)
	assert.True(t, isPerField)
}
