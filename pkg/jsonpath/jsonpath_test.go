package jsonpath

import (
	"encoding/json"
	"math"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func TestGet(t *testing.T) {
	doc := decode(t, `{"a":{"b":[{"c":1}]},"list":[10,20,30],"s":"text"}`)

	cases := []struct {
		path  string
		want  any
		found bool
	}{
		{"a.b[0].c", float64(1), true},
		{"list[2]", float64(30), true},
		{"s", "text", true},
		{"a.b", []any{map[string]any{"c": float64(1)}}, true},
		{"a.missing", nil, false},
		{"a.b[5].c", nil, false},
		{"a.b[-1]", nil, false},
		{"s.inner", nil, false},
		{"list[x]", nil, false},
	}
	for _, tc := range cases {
		got, found := Get(doc, tc.path)
		if found != tc.found {
			t.Errorf("Get(%q) found = %v, want %v", tc.path, found, tc.found)
			continue
		}
		if !found {
			continue
		}
		gb, _ := json.Marshal(got)
		wb, _ := json.Marshal(tc.want)
		if string(gb) != string(wb) {
			t.Errorf("Get(%q) = %s, want %s", tc.path, gb, wb)
		}
	}

	if _, found := Get(map[string]any{}, "a.b"); found {
		t.Error("empty object should not resolve a.b")
	}
	if _, found := Get(nil, "x"); found {
		t.Error("nil root should not resolve x")
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		name     string
		actual   any
		expected any
		operator string
		want     bool
	}{
		{"equals strings", "ok", "ok", "equals", true},
		{"equals numbers", float64(200), 200, "equals", true},
		{"equals objects", map[string]any{"a": float64(1)}, map[string]any{"a": 1}, "equals", true},
		{"equals mismatch", "ok", "fail", "equals", false},
		{"contains substring", "hello world", "lo wo", "contains", true},
		{"contains substring miss", "hello", "xyz", "contains", false},
		{"contains array member", []any{"a", "b"}, "b", "contains", true},
		{"contains array number", []any{float64(1), float64(2)}, 2, "contains", true},
		{"contains array miss", []any{"a"}, "z", "contains", false},
		{"contains non-string actual", float64(5), "5", "contains", false},
		{"matches", "abc-123", `^[a-z]+-\d+$`, "matches", true},
		{"matches miss", "abc", `^\d+$`, "matches", false},
		{"matches non-string", float64(3), `\d`, "matches", false},
		{"matches bad pattern", "abc", "[", "matches", false},
		{"exists value", "x", nil, "exists", true},
		{"exists zero", float64(0), nil, "exists", true},
		{"exists nil", nil, nil, "exists", false},
		{"type array", []any{1}, "array", "type", true},
		{"type object", map[string]any{}, "object", "type", true},
		{"type string", "x", "string", "type", true},
		{"type number", float64(1), "number", "type", true},
		{"type boolean", true, "boolean", "type", true},
		{"type null", nil, "null", "type", true},
		{"type mismatch", "x", "number", "type", false},
		{"unknown operator", "x", "x", "startsWith", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compare(tc.actual, tc.expected, tc.operator)
			if got != tc.want {
				t.Errorf("Compare(%v, %v, %q) = %v, want %v", tc.actual, tc.expected, tc.operator, got, tc.want)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	if got := similarity("", ""); got != 1 {
		t.Errorf("similarity of two empty strings = %v, want 1", got)
	}
	if got := similarity("abc", "abc"); got != 1 {
		t.Errorf("similarity of identical strings = %v, want 1", got)
	}
	if got := similarity("ABC", "abc"); got != 1 {
		t.Errorf("similarity should ignore case, got %v", got)
	}
	got := similarity("user_name", "userName")
	want := 1 - 1.0/9
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("similarity(user_name, userName) = %v, want %v", got, want)
	}
	if got := similarity("abc", ""); got != 0 {
		t.Errorf("similarity against empty = %v, want 0", got)
	}
}

func TestFindAlternativePath(t *testing.T) {
	doc := decode(t, `{"data":{"userName":"Alice","userId":7}}`)

	alt := FindAlternativePath(doc, "data.user_name", 0.5)
	if alt == nil {
		t.Fatal("expected an alternative for data.user_name")
	}
	if alt.Path != "data.userName" {
		t.Errorf("alternative path = %q, want data.userName", alt.Path)
	}
	want := 0.7*(1-1.0/9) + 0.3*(1-1.0/14)
	if math.Abs(alt.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", alt.Confidence, want)
	}

	if alt := FindAlternativePath(doc, "completely.unrelated", 0); alt != nil {
		t.Errorf("expected no alternative above default threshold, got %q (%v)", alt.Path, alt.Confidence)
	}
}

func TestFindAlternativePathArrays(t *testing.T) {
	doc := decode(t, `{"items":[{"name":"a"},{"name":"b"}]}`)
	alt := FindAlternativePath(doc, "items[0].nmae", 0.5)
	if alt == nil {
		t.Fatal("expected alternative for transposed key")
	}
	if alt.Path != "items[0].name" {
		t.Errorf("alternative path = %q, want items[0].name", alt.Path)
	}
}

func TestGetWithHealing(t *testing.T) {
	doc := decode(t, `{"data":{"userName":"Alice"}}`)

	exact := GetWithHealing(doc, "data.userName", 0.5)
	if !exact.Found || exact.Healed {
		t.Fatalf("exact lookup: found=%v healed=%v", exact.Found, exact.Healed)
	}
	if exact.Value != "Alice" {
		t.Errorf("exact value = %v", exact.Value)
	}

	healed := GetWithHealing(doc, "data.user_name", 0.5)
	if !healed.Found || !healed.Healed {
		t.Fatalf("healed lookup: found=%v healed=%v", healed.Found, healed.Healed)
	}
	if healed.UsedPath != "data.userName" {
		t.Errorf("used path = %q, want data.userName", healed.UsedPath)
	}
	if healed.Value != "Alice" {
		t.Errorf("healed value = %v", healed.Value)
	}
	if healed.Confidence <= 0.5 || healed.Confidence >= 1 {
		t.Errorf("confidence out of range: %v", healed.Confidence)
	}

	miss := GetWithHealing(doc, "totally.elsewhere", 0.9)
	if miss.Found || miss.Healed {
		t.Errorf("miss should return empty lookup, got %+v", miss)
	}
}
