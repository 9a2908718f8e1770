package pocketbase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Params map[string]any

var placeholderRX = regexp.MustCompile(`\{:(\w+)\}`)

// Filter replaces {:name} placeholders in expr with escaped literals from params.
// Placeholders without a matching param are left untouched.
//
//	Filter("slug = {:slug} && published = true", Params{"slug": s})
func Filter(expr string, params Params) string {
	if len(params) == 0 {
		return expr
	}

	return placeholderRX.ReplaceAllStringFunc(expr, func(m string) string {
		name := m[2 : len(m)-1]
		v, ok := params[name]
		if !ok {
			return m
		}
		return literal(v)
	})
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

func literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(val)
	case bool:
		return strconv.FormatBool(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case time.Time:
		return quote(val.UTC().Format(dateTimeLayout))
	case DateTime:
		return quote(val.String())
	case fmt.Stringer:
		return quote(val.String())
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return quote(fmt.Sprint(val))
		}
		return quote(string(b))
	}
}
