package app

import (
	"encoding/json"
	"strconv"
	"strings"
)

/********** tiny helpers over decoded JSON **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// strOr returns the string at path, or def when it is missing or not a string.
func strOr(m map[string]any, path, def string) string {
	if s, ok := lookupAny(m, path).(string); ok {
		return s
	}
	return def
}

// boolOr returns the bool at path, or def when it is missing or not a bool.
func boolOr(m map[string]any, path string, def bool) bool {
	if b, ok := lookupAny(m, path).(bool); ok {
		return b
	}
	return def
}

// getFloatFlexible: number from several paths (float64/int/json.Number/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		if f, ok := toFloat(lookupAny(m, k)); ok {
			return &f
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// idString renders a record id. Upstream ids are strings, but numeric ids are
// accepted and formatted without exponent.
func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	}
	return ""
}

// asObject accepts an object or a JSON-encoded object string. Anything else,
// including undecodable strings, yields an empty object.
func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err != nil || m == nil {
			return map[string]any{}, false
		}
		return m, true
	}
	return map[string]any{}, v == nil
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}

// firstRunes returns up to n leading runes of s.
func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
