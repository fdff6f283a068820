package mapping

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultTimeFormat is used for time properties without an explicit format.
const DefaultTimeFormat = "yyyy-MM-dd'T'HH:mm:ss"

// Converter converts property values to and from field text.
//
// Converters must be stateless; one instance is shared by every query and
// document of the entity type.
type Converter interface {
	ToString(v any) (string, error)
	FromString(s string) (any, error)
}

// ConverterFactory creates a Converter. Factories take no arguments; they
// run once per property when the mapping is built.
type ConverterFactory func() Converter

// Registry holds named converter factories.
//
// Register everything before building mappings. Lookups are safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ConverterFactory
}

// NewRegistry creates a registry preloaded with the built-in converters.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]ConverterFactory)}
	r.Register("time", func() Converter { return MustTimeConverter(DefaultTimeFormat) })
	r.Register("duration", func() Converter { return durationConverter{} })
	r.Register("bool", func() Converter { return boolConverter{} })
	r.Register("int", func() Converter { return intConverter{} })
	r.Register("int32", func() Converter { return int32Converter{} })
	r.Register("int64", func() Converter { return int64Converter{} })
	r.Register("float32", func() Converter { return float32Converter{} })
	r.Register("float64", func() Converter { return float64Converter{} })
	return r
}

// Register adds or replaces a named factory.
func (r *Registry) Register(name string, f ConverterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// New instantiates the named converter.
func (r *Registry) New(name string) (Converter, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown converter %q", name)
	}
	c := f()
	if c == nil {
		return nil, fmt.Errorf("converter factory %q returned nil", name)
	}
	return c, nil
}

// Names returns the registered converter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultConverter returns the strconv-based converter for t, if any.
func defaultConverter(t ValueType) (Converter, bool) {
	switch t {
	case Bool:
		return boolConverter{}, true
	case Int:
		return intConverter{}, true
	case Int32:
		return int32Converter{}, true
	case Int64:
		return int64Converter{}, true
	case Float32:
		return float32Converter{}, true
	case Float64:
		return float64Converter{}, true
	case Duration:
		return durationConverter{}, true
	case Time:
		return MustTimeConverter(DefaultTimeFormat), true
	default:
		return nil, false
	}
}

func typeError(want string, v any) error {
	return fmt.Errorf("expected %s, got %T", want, v)
}

type boolConverter struct{}

func (boolConverter) ToString(v any) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", typeError("bool", v)
	}
	return strconv.FormatBool(b), nil
}

func (boolConverter) FromString(s string) (any, error) {
	return strconv.ParseBool(s)
}

type intConverter struct{}

func (intConverter) ToString(v any) (string, error) {
	n, ok := v.(int)
	if !ok {
		return "", typeError("int", v)
	}
	return strconv.Itoa(n), nil
}

func (intConverter) FromString(s string) (any, error) {
	return strconv.Atoi(s)
}

type int32Converter struct{}

func (int32Converter) ToString(v any) (string, error) {
	n, ok := v.(int32)
	if !ok {
		return "", typeError("int32", v)
	}
	return strconv.FormatInt(int64(n), 10), nil
}

func (int32Converter) FromString(s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil, err
	}
	return int32(n), nil
}

type int64Converter struct{}

func (int64Converter) ToString(v any) (string, error) {
	n, ok := v.(int64)
	if !ok {
		return "", typeError("int64", v)
	}
	return strconv.FormatInt(n, 10), nil
}

func (int64Converter) FromString(s string) (any, error) {
	return strconv.ParseInt(s, 10, 64)
}

type float32Converter struct{}

func (float32Converter) ToString(v any) (string, error) {
	f, ok := v.(float32)
	if !ok {
		return "", typeError("float32", v)
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 32), nil
}

func (float32Converter) FromString(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return nil, err
	}
	return float32(f), nil
}

type float64Converter struct{}

func (float64Converter) ToString(v any) (string, error) {
	f, ok := v.(float64)
	if !ok {
		return "", typeError("float64", v)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func (float64Converter) FromString(s string) (any, error) {
	return strconv.ParseFloat(s, 64)
}

type durationConverter struct{}

func (durationConverter) ToString(v any) (string, error) {
	d, ok := v.(time.Duration)
	if !ok {
		return "", typeError("time.Duration", v)
	}
	return d.String(), nil
}

func (durationConverter) FromString(s string) (any, error) {
	return time.ParseDuration(s)
}

// TimeConverter formats time.Time values with a date/time format string.
// Values are converted to UTC before formatting; parsed values are UTC.
type TimeConverter struct {
	format string
	layout string
}

// NewTimeConverter creates a TimeConverter from a format string such as
// "yyyy-MM-dd'T'HH:mm:ss".
func NewTimeConverter(format string) (*TimeConverter, error) {
	layout, err := TimeLayout(format)
	if err != nil {
		return nil, err
	}
	return &TimeConverter{format: format, layout: layout}, nil
}

// MustTimeConverter is like NewTimeConverter but panics on a bad format.
func MustTimeConverter(format string) *TimeConverter {
	c, err := NewTimeConverter(format)
	if err != nil {
		panic(err)
	}
	return c
}

// Format returns the format string the converter was created with.
func (c *TimeConverter) Format() string { return c.format }

// Layout returns the equivalent Go reference layout.
func (c *TimeConverter) Layout() string { return c.layout }

func (c *TimeConverter) ToString(v any) (string, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(c.layout), nil
	case *time.Time:
		if t == nil {
			return "", nil
		}
		return t.UTC().Format(c.layout), nil
	default:
		return "", typeError("time.Time", v)
	}
}

func (c *TimeConverter) FromString(s string) (any, error) {
	return time.Parse(c.layout, s)
}

// timeTokens maps format specifiers to Go layout elements, longest first.
var timeTokens = []struct {
	token  string
	layout string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"fffffffff", "000000000"},
	{"ffffff", "000000"},
	{"fff", "000"},
	{"ff", "00"},
	{"f", "0"},
	{"tt", "PM"},
	{"zzz", "-07:00"},
	{"zz", "-07"},
	{"K", "Z07:00"},
}

// TimeLayout translates a date/time format string into a Go reference
// layout. Text in single quotes and backslash-escaped characters are
// copied literally.
func TimeLayout(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("empty time format")
	}
	var sb strings.Builder
	for i := 0; i < len(format); {
		switch format[i] {
		case '\'':
			end := strings.IndexByte(format[i+1:], '\'')
			if end < 0 {
				return "", fmt.Errorf("unterminated quote in time format %q", format)
			}
			sb.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		case '\\':
			if i+1 >= len(format) {
				return "", fmt.Errorf("trailing escape in time format %q", format)
			}
			sb.WriteByte(format[i+1])
			i += 2
			continue
		}
		matched := false
		for _, tt := range timeTokens {
			if strings.HasPrefix(format[i:], tt.token) {
				sb.WriteString(tt.layout)
				i += len(tt.token)
				matched = true
				break
			}
		}
		if !matched {
			sb.WriteByte(format[i])
			i++
		}
	}
	return sb.String(), nil
}

// EnumConverter converts enum-like int values to names and back.
// The value of a name is its index.
type EnumConverter struct {
	names []string
	index map[string]int
}

// NewEnumConverter creates an EnumConverter over names.
func NewEnumConverter(names ...string) *EnumConverter {
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	return &EnumConverter{names: append([]string(nil), names...), index: index}
}

func (c *EnumConverter) ToString(v any) (string, error) {
	n, ok := v.(int)
	if !ok {
		return "", typeError("int", v)
	}
	if n < 0 || n >= len(c.names) {
		return "", fmt.Errorf("enum value %d out of range", n)
	}
	return c.names[n], nil
}

func (c *EnumConverter) FromString(s string) (any, error) {
	n, ok := c.index[s]
	if !ok {
		return nil, fmt.Errorf("unknown enum name %q", s)
	}
	return n, nil
}
