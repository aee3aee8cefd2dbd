// Package mapper translates between the backend's flat snake_case records
// and the typed domain model. Translation never fails: malformed or missing
// fields resolve to documented defaults instead of errors, because records
// written by older clients are still in the orders table.
package mapper

import (
	"encoding/json"
	"math"
	"strconv"
)

func str(rec map[string]any, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

// num coerces any numeric encoding to float64. Absent, malformed and NaN
// values all come back as 0 so downstream arithmetic stays defined.
func num(rec map[string]any, key string) float64 {
	return coerceNum(rec[key])
}

func coerceNum(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		f, _ = strconv.ParseFloat(n, 64)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func boolOr(rec map[string]any, key string, def bool) bool {
	if v, ok := rec[key].(bool); ok {
		return v
	}
	return def
}

func optFloat(rec map[string]any, key string) *float64 {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil
	}
	f := coerceNum(v)
	return &f
}

func optInt(rec map[string]any, key string) *int {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil
	}
	n := int(coerceNum(v))
	return &n
}

func strSlice(rec map[string]any, key string) []string {
	switch vs := rec[key].(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}
