// Package interp substitutes {{name}} placeholders from a variable scope,
// over plain strings and over JSON-like configuration trees.
package interp

import (
	"encoding/json"
	"regexp"
	"strings"
)

var tokenRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// String replaces every {{name}} token with the scope value of that name.
// Unknown names are left literally in place, braces included. Non-string
// values are stringified in their JSON form.
func String(s string, scope map[string]any) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return tokenRe.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.TrimSpace(m[2 : len(m)-2])
		v, ok := scope[name]
		if !ok {
			return m
		}
		return Stringify(v)
	})
}

// Stringify renders a scope value for placement inside a string. Strings
// pass through unquoted; everything else renders as JSON.
func Stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Tree walks a JSON-like value (string, number, bool, null, array, object)
// and interpolates every string leaf. Arrays map element-wise, objects per
// key; other leaves pass through unchanged.
func Tree(v any, scope map[string]any) any {
	switch val := v.(type) {
	case string:
		return String(val, scope)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Tree(item, scope)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Tree(item, scope)
		}
		return out
	default:
		return v
	}
}

// HasToken reports whether s contains at least one {{name}} placeholder.
func HasToken(s string) bool {
	return tokenRe.MatchString(s)
}
