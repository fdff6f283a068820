package query

import (
	"fmt"
	"strconv"
	"strings"
)

func (q Term) String() string {
	return q.Field + ":" + q.Text + boostSuffix(q.Boost)
}

func (q Wildcard) String() string {
	return q.Field + ":" + q.Pattern + boostSuffix(q.Boost)
}

func (q TermRange) String() string {
	return q.Field + ":" +
		openBracket(q.IncludeLower) + stringBound(q.Lower) + " TO " + stringBound(q.Upper) + closeBracket(q.IncludeUpper) +
		boostSuffix(q.Boost)
}

func (q NumericRange) String() string {
	return q.Field + ":" +
		openBracket(q.IncludeMin) + numericBound(q.Min) + " TO " + numericBound(q.Max) + closeBracket(q.IncludeMax) +
		boostSuffix(q.Boost)
}

func (q MatchAll) String() string {
	return "*:*" + boostSuffix(q.Boost)
}

func (q Boolean) String() string {
	var sb strings.Builder
	for i, c := range q.Clauses {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch c.Occur {
		case Must:
			sb.WriteByte('+')
		case MustNot:
			sb.WriteByte('-')
		}
		if sub, ok := c.Query.(Boolean); ok {
			sb.WriteByte('(')
			sb.WriteString(sub.String())
			sb.WriteByte(')')
			continue
		}
		sb.WriteString(c.Query.String())
	}
	if suffix := boostSuffix(q.Boost); suffix != "" {
		return "(" + sb.String() + ")" + suffix
	}
	return sb.String()
}

func boostSuffix(b float32) string {
	if b == 0 || b == 1 {
		return ""
	}
	return "^" + strconv.FormatFloat(float64(b), 'g', -1, 32)
}

func openBracket(inclusive bool) string {
	if inclusive {
		return "["
	}
	return "{"
}

func closeBracket(inclusive bool) string {
	if inclusive {
		return "]"
	}
	return "}"
}

func stringBound(s *string) string {
	if s == nil {
		return "*"
	}
	return *s
}

func numericBound(v any) string {
	switch n := v.(type) {
	case nil:
		return "*"
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	default:
		return fmt.Sprint(n)
	}
}
