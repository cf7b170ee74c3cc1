// Package jsonpath resolves dot-separated paths inside decoded JSON values
// and compares the resolved values for API assertions. Lookups that miss can
// fall back to a similarity search over every concrete path in the document.
package jsonpath

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Get walks value along a dot-separated path. A segment may end in one or
// more [index] suffixes for array access. The walk stops with (nil, false)
// as soon as an intermediate is nil, not a container, or a key or index is
// absent.
func Get(value any, path string) (any, bool) {
	current := value
	for _, seg := range strings.Split(path, ".") {
		name, indices, ok := splitSegment(seg)
		if !ok {
			return nil, false
		}
		if name != "" {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = obj[name]
			if !ok {
				return nil, false
			}
		}
		for _, idx := range indices {
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
		}
	}
	return current, true
}

// splitSegment separates "users[0][1]" into "users" and [0, 1].
func splitSegment(seg string) (string, []int, bool) {
	name := seg
	var indices []int
	for {
		open := strings.IndexByte(name, '[')
		if open < 0 {
			return name, indices, true
		}
		rest := name[open:]
		name = name[:open]
		for rest != "" {
			if rest[0] != '[' {
				return "", nil, false
			}
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return "", nil, false
			}
			idx, err := strconv.Atoi(rest[1:close])
			if err != nil {
				return "", nil, false
			}
			indices = append(indices, idx)
			rest = rest[close+1:]
		}
		return name, indices, true
	}
}

// Compare evaluates actual against expected under the given operator.
// Operators: equals (serialized structural equality), contains (substring
// for strings, element membership for arrays), matches (regular expression
// over strings), exists (actual is non-nil), type (type name equality).
func Compare(actual, expected any, operator string) bool {
	switch operator {
	case "equals":
		return serializedEqual(actual, expected)
	case "contains":
		if as, ok := actual.(string); ok {
			es, ok := expected.(string)
			return ok && strings.Contains(as, es)
		}
		if arr, ok := actual.([]any); ok {
			for _, item := range arr {
				if serializedEqual(item, expected) {
					return true
				}
			}
		}
		return false
	case "matches":
		as, ok := actual.(string)
		if !ok {
			return false
		}
		pattern, ok := expected.(string)
		if !ok {
			return false
		}
		matched, err := regexp.MatchString(pattern, as)
		return err == nil && matched
	case "exists":
		return actual != nil
	case "type":
		want, ok := expected.(string)
		return ok && TypeName(actual) == want
	default:
		return false
	}
}

func serializedEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// TypeName reports the JSON type of a decoded value: null, boolean, number,
// string, array, or object. Unrecognized Go types report "unknown".
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
