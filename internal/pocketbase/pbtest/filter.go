package pbtest

import (
	"errors"
	"strconv"
	"strings"
)

// condition is a single "field = literal" term. The stand-in only understands
// conjunctions of equality terms, which is all the content services send.
type condition struct {
	field string
	value any
}

var errBadFilter = errors.New("unsupported filter")

func parseFilter(filter string) ([]condition, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}

	var conds []condition
	for _, term := range splitAnd(filter) {
		field, raw, ok := strings.Cut(term, "=")
		if !ok {
			return nil, errBadFilter
		}

		field = strings.TrimSpace(field)
		raw = strings.TrimSpace(raw)
		if field == "" || raw == "" {
			return nil, errBadFilter
		}

		value, err := parseLiteral(raw)
		if err != nil {
			return nil, err
		}

		conds = append(conds, condition{field: field, value: value})
	}

	return conds, nil
}

// splitAnd splits on && that sit outside quoted literals.
func splitAnd(s string) []string {
	var (
		terms   []string
		current strings.Builder
		inQuote bool
		escaped bool
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inQuote:
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == '&' && i+1 < len(s) && s[i+1] == '&':
			terms = append(terms, strings.TrimSpace(current.String()))
			current.Reset()
			i++
			continue
		}
		current.WriteByte(c)
	}

	return append(terms, strings.TrimSpace(current.String()))
}

func parseLiteral(raw string) (any, error) {
	switch {
	case raw == "true":
		return true, nil
	case raw == "false":
		return false, nil
	case raw == "null":
		return nil, nil
	case strings.HasPrefix(raw, `"`):
		if len(raw) < 2 || !strings.HasSuffix(raw, `"`) {
			return nil, errBadFilter
		}
		return unescape(raw[1 : len(raw)-1])
	default:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errBadFilter
		}
		return n, nil
	}
}

func unescape(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			if i+1 >= len(s) {
				return "", errBadFilter
			}
			i++
			b.WriteByte(s[i])
			continue
		}
		if c == '"' {
			// an unescaped quote would have closed the literal
			return "", errBadFilter
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

func matches(rec Record, conds []condition) bool {
	for _, c := range conds {
		if normalize(rec[c.field]) != normalize(c.value) {
			return false
		}
	}
	return true
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case nil:
		return ""
	default:
		return v
	}
}
