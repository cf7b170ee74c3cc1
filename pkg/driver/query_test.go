package driver

import (
	"strings"
	"testing"

	"github.com/ormasoftchile/splint/pkg/schema"
)

func TestCompileStrategy_TestID(t *testing.T) {
	q := compileStrategy(schema.LocatorStrategy{Type: schema.StrategyTestID, Value: "submit-button"})
	if q.xpath {
		t.Error("testId compiles to CSS")
	}
	if q.selector != `[data-testid="submit-button"]` {
		t.Errorf("selector = %q", q.selector)
	}
}

func TestCompileStrategy_CSSAndXPathPassThrough(t *testing.T) {
	css := compileStrategy(schema.LocatorStrategy{Type: schema.StrategyCSS, Value: "button.primary"})
	if css.xpath || css.selector != "button.primary" {
		t.Errorf("css query = %+v", css)
	}

	xp := compileStrategy(schema.LocatorStrategy{Type: schema.StrategyXPath, Value: "//button[@type='submit']"})
	if !xp.xpath || xp.selector != "//button[@type='submit']" {
		t.Errorf("xpath query = %+v", xp)
	}
}

func TestCompileStrategy_Role(t *testing.T) {
	q := compileStrategy(schema.LocatorStrategy{Type: schema.StrategyRole, Value: "button", Name: "Sign in"})
	if !q.xpath {
		t.Error("role compiles to XPath")
	}
	for _, want := range []string{`@role="button"`, "//button", "Sign in", "contains"} {
		if !strings.Contains(q.selector, want) {
			t.Errorf("selector %q missing %q", q.selector, want)
		}
	}

	exact := compileStrategy(schema.LocatorStrategy{Type: schema.StrategyRole, Value: "button", Name: "Sign in", Exact: true})
	if strings.Contains(exact.selector, "contains(@aria-label") {
		t.Errorf("exact match should not use contains: %q", exact.selector)
	}

	bare := compileStrategy(schema.LocatorStrategy{Type: schema.StrategyRole, Value: "checkbox"})
	if strings.Contains(bare.selector, "aria-label") {
		t.Errorf("unnamed role should not filter by name: %q", bare.selector)
	}
}

func TestCompileStrategy_Text(t *testing.T) {
	q := compileStrategy(schema.LocatorStrategy{Type: schema.StrategyText, Value: "Welcome back"})
	if !q.xpath || !strings.Contains(q.selector, `contains(normalize-space(text()),"Welcome back")`) {
		t.Errorf("selector = %q", q.selector)
	}

	exact := compileStrategy(schema.LocatorStrategy{Type: schema.StrategyText, Value: "Welcome back", Exact: true})
	if !strings.Contains(exact.selector, `normalize-space(text())="Welcome back"`) {
		t.Errorf("exact selector = %q", exact.selector)
	}
}

func TestCompileStrategy_Label(t *testing.T) {
	q := compileStrategy(schema.LocatorStrategy{Type: schema.StrategyLabel, Value: "Email address"})
	if !q.xpath {
		t.Error("label compiles to XPath")
	}
	for _, want := range []string{"/@for", "//label", "//input"} {
		if !strings.Contains(q.selector, want) {
			t.Errorf("selector %q missing %q", q.selector, want)
		}
	}
}

func TestCompileStrategy_Unlocatable(t *testing.T) {
	for _, typ := range []schema.StrategyType{schema.StrategyAPIPath, "made-up"} {
		q := compileStrategy(schema.LocatorStrategy{Type: typ, Value: "whatever"})
		if !q.empty() {
			t.Errorf("%s should compile to an empty query, got %+v", typ, q)
		}
	}
}

func TestXPathLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{"it's", `"it's"`},
		{`say "hi"`, `'say "hi"'`},
		{`both ' and "`, `concat("both ' and ",'"',"")`},
	}
	for _, tc := range cases {
		if got := xpathLiteral(tc.in); got != tc.want {
			t.Errorf("xpathLiteral(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
