package interp

import (
	"reflect"
	"testing"
)

func TestString(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		scope map[string]any
		want  string
	}{
		{"no placeholders", "No placeholders", map[string]any{"x": 1}, "No placeholders"},
		{"adjacent tokens", "{{a}}{{b}}", map[string]any{"a": "hello", "b": "world"}, "helloworld"},
		{"unknown stays literal", "Hello {{unknown}}", map[string]any{}, "Hello {{unknown}}"},
		{"spaces inside braces", "Hello {{ name }}", map[string]any{"name": "Ada"}, "Hello Ada"},
		{"number value", "retries={{n}}", map[string]any{"n": 3}, "retries=3"},
		{"bool value", "flag={{on}}", map[string]any{"on": true}, "flag=true"},
		{"nil value", "v={{v}}", map[string]any{"v": nil}, "v=null"},
		{"mixed known and unknown", "{{a}} and {{b}}", map[string]any{"a": "x"}, "x and {{b}}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := String(tc.in, tc.scope)
			if got != tc.want {
				t.Errorf("String(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStringifyObjects(t *testing.T) {
	got := String("payload={{p}}", map[string]any{"p": map[string]any{"k": "v"}})
	want := `payload={"k":"v"}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTree(t *testing.T) {
	scope := map[string]any{"user": "alice", "n": 2}
	in := map[string]any{
		"url":   "/users/{{user}}",
		"count": 7,
		"tags":  []any{"{{user}}", "static", "{{missing}}"},
		"nested": map[string]any{
			"label": "run {{n}}",
			"flag":  true,
		},
	}
	want := map[string]any{
		"url":   "/users/alice",
		"count": 7,
		"tags":  []any{"alice", "static", "{{missing}}"},
		"nested": map[string]any{
			"label": "run 2",
			"flag":  true,
		},
	}
	got := Tree(in, scope)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tree mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestTreeDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"a": "{{x}}"}
	Tree(in, map[string]any{"x": "y"})
	if in["a"] != "{{x}}" {
		t.Errorf("input mutated: %v", in["a"])
	}
}

func TestHasToken(t *testing.T) {
	if HasToken("plain text") {
		t.Error("plain text should have no token")
	}
	if !HasToken("a {{b}} c") {
		t.Error("expected token in string")
	}
	if HasToken("{{not closed") {
		t.Error("unterminated braces are not a token")
	}
}
