package docmap

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/sift/internal/query"
)

// UnmarshalJSON restores Number with the Go type of NumericType.
func (f *Field) UnmarshalJSON(data []byte) error {
	type plain Field
	var aux struct {
		plain
		Number json.Number `json:"number,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = Field(aux.plain)
	if aux.Number == "" {
		return nil
	}
	n, err := parseNumber(f.NumericType, string(aux.Number))
	if err != nil {
		return fmt.Errorf("field %s: %w", f.Name, err)
	}
	f.Number = n
	return nil
}

func parseNumber(t query.NumericType, s string) (any, error) {
	switch t {
	case query.Int:
		n, err := strconv.ParseInt(s, 10, 32)
		return int32(n), err
	case query.Long:
		return strconv.ParseInt(s, 10, 64)
	case query.Float:
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	case query.Double:
		return strconv.ParseFloat(s, 64)
	default:
		return nil, fmt.Errorf("unknown numeric type %s", t)
	}
}
