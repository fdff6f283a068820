package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverters_RoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		conv   Converter
		values []any
	}{
		{"bool", boolConverter{}, []any{true, false}},
		{"int", intConverter{}, []any{0, -7, 1 << 40}},
		{"int32", int32Converter{}, []any{int32(0), int32(-2147483648), int32(2147483647)}},
		{"int64", int64Converter{}, []any{int64(0), int64(-9223372036854775808), int64(9223372036854775807)}},
		{"float32", float32Converter{}, []any{float32(0), float32(1.5), float32(-3.25e10)}},
		{"float64", float64Converter{}, []any{0.0, 0.1, -1e300}},
		{"duration", durationConverter{}, []any{time.Duration(0), 90 * time.Minute, -time.Millisecond}},
		{"time default", MustTimeConverter(DefaultTimeFormat), []any{
			time.Time{},
			time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
			time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		}},
		{"time with millis", MustTimeConverter("yyyy-MM-dd HH:mm:ss.fff"), []any{
			time.Date(2021, 6, 7, 8, 9, 10, 123_000_000, time.UTC),
		}},
		{"enum", NewEnumConverter("active", "inactive", "banned"), []any{0, 1, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, v := range tc.values {
				s, err := tc.conv.ToString(v)
				require.NoError(t, err)
				back, err := tc.conv.FromString(s)
				require.NoError(t, err)
				assert.True(t, sameValue(v, back), "%v -> %q -> %v", v, s, back)
			}
		})
	}
}

func TestConverters_RejectWrongType(t *testing.T) {
	converters := map[string]Converter{
		"bool":     boolConverter{},
		"int":      intConverter{},
		"int32":    int32Converter{},
		"int64":    int64Converter{},
		"float32":  float32Converter{},
		"float64":  float64Converter{},
		"duration": durationConverter{},
		"time":     MustTimeConverter(DefaultTimeFormat),
		"enum":     NewEnumConverter("a"),
	}

	for name, c := range converters {
		t.Run(name, func(t *testing.T) {
			_, err := c.ToString(struct{}{})
			assert.Error(t, err)
		})
	}
}

func TestTimeConverter_FormatsUTC(t *testing.T) {
	c := MustTimeConverter(DefaultTimeFormat)
	loc := time.FixedZone("X", 2*60*60)

	s, err := c.ToString(time.Date(2020, 1, 2, 5, 4, 5, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, "2020-01-02T03:04:05", s)
}

func TestTimeLayout(t *testing.T) {
	testCases := []struct {
		format string
		want   string
	}{
		{"yyyy-MM-dd'T'HH:mm:ss", "2006-01-02T15:04:05"},
		{"yyyyMMdd", "20060102"},
		{"dd/MM/yy", "02/01/06"},
		{"MMM d, yyyy h:mm tt", "Jan 2, 2006 3:04 PM"},
		{"yyyy-MM-ddTHH:mm:ss.fffzzz", "2006-01-02T15:04:05.000-07:00"},
		{`HH\hmm`, "15h04"},
	}

	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			got, err := TimeLayout(tc.format)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTimeLayout_Errors(t *testing.T) {
	for _, format := range []string{"", "yyyy'T", `HH\`} {
		_, err := TimeLayout(format)
		assert.Error(t, err, "format %q", format)
	}
}

func TestEnumConverter_Errors(t *testing.T) {
	c := NewEnumConverter("a", "b")
	_, err := c.ToString(5)
	assert.Error(t, err)
	_, err = c.FromString("z")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Contains(t, r.Names(), "time")
	assert.Contains(t, r.Names(), "duration")

	r.Register("nil", func() Converter { return nil })
	_, err := r.New("nil")
	assert.Error(t, err)

	_, err = r.New("missing")
	assert.Error(t, err)

	c, err := r.New("int64")
	require.NoError(t, err)
	s, err := c.ToString(int64(12))
	require.NoError(t, err)
	assert.Equal(t, "12", s)
}

func TestCoerce(t *testing.T) {
	m, err := Build("person", []Property{
		{Name: "Name", Type: String},
		{Name: "Age", Type: Int64, Numeric: &NumericAnnotation{}},
		{Name: "Small", Type: Int32, Numeric: &NumericAnnotation{}},
		{Name: "Count", Type: Int},
		{Name: "Ratio", Type: Float32, Numeric: &NumericAnnotation{}},
		{Name: "Born", Type: Time},
		{Name: "Wait", Type: Duration},
		{Name: "Active", Type: Bool},
	}, nil)
	require.NoError(t, err)

	testCases := []struct {
		field string
		raw   any
		want  any
	}{
		{"Name", "john", "john"},
		{"Name", 12, "12"},
		{"Age", 18, int64(18)},
		{"Age", 18.0, int64(18)},
		{"Age", "42", int64(42)},
		{"Small", 7, int32(7)},
		{"Count", int64(3), 3},
		{"Ratio", 0.5, float32(0.5)},
		{"Born", "2020-01-02T03:04:05", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"Wait", "1m30s", 90 * time.Second},
		{"Active", "true", true},
		{"Active", nil, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			got, err := m.Coerce(tc.field, tc.raw)
			require.NoError(t, err)
			if want, ok := tc.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)))
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCoerce_Errors(t *testing.T) {
	m, err := Build("person", []Property{
		{Name: "Age", Type: Int64, Numeric: &NumericAnnotation{}},
		{Name: "Small", Type: Int32, Numeric: &NumericAnnotation{}},
		{Name: "Active", Type: Bool},
	}, nil)
	require.NoError(t, err)

	testCases := []struct {
		name  string
		field string
		raw   any
	}{
		{"fractional int", "Age", 1.5},
		{"int32 overflow", "Small", 1 << 40},
		{"bad text", "Age", "abc"},
		{"bool from int", "Active", 1},
		{"unknown field", "Nope", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Coerce(tc.field, tc.raw)
			require.Error(t, err)
			assert.True(t, IsMappingError(err))
		})
	}
}

func TestParseNames(t *testing.T) {
	vt, err := ParseValueType("Float64")
	require.NoError(t, err)
	assert.Equal(t, Float64, vt)
	_, err = ParseValueType("complex")
	assert.Error(t, err)

	im, err := ParseIndexMode("not_analyzed")
	require.NoError(t, err)
	assert.Equal(t, NotAnalyzed, im)
	im, err = ParseIndexMode("")
	require.NoError(t, err)
	assert.Equal(t, Analyzed, im)

	sm, err := ParseStoreMode("no")
	require.NoError(t, err)
	assert.Equal(t, NotStored, sm)
	_, err = ParseStoreMode("maybe")
	assert.Error(t, err)
}
