package driver

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/splint/pkg/schema"
)

// query is a compiled selector for one locator strategy.
type query struct {
	selector string
	xpath    bool
}

// empty reports whether the strategy cannot be located in a page at all.
func (q query) empty() bool { return q.selector == "" }

// compileStrategy translates a locator strategy into a CSS selector or an
// XPath expression. Strategies that have no page representation, api-path
// included, compile to an empty query that never matches.
func compileStrategy(s schema.LocatorStrategy) query {
	switch s.Type {
	case schema.StrategyTestID:
		return query{selector: fmt.Sprintf(`[data-testid=%s]`, cssLiteral(s.Value))}
	case schema.StrategyCSS:
		return query{selector: s.Value}
	case schema.StrategyXPath:
		return query{selector: s.Value, xpath: true}
	case schema.StrategyRole:
		return query{selector: roleXPath(s.Value, s.Name, s.Exact), xpath: true}
	case schema.StrategyText:
		return query{selector: textXPath(s.Value, s.Exact), xpath: true}
	case schema.StrategyLabel:
		return query{selector: labelXPath(s.Value), xpath: true}
	default:
		return query{}
	}
}

// roleTags maps ARIA roles to the native elements that carry them
// implicitly.
var roleTags = map[string][]string{
	"button":   {"button", `input[@type="button"]`, `input[@type="submit"]`},
	"link":     {"a[@href]"},
	"textbox":  {`input[@type="text"]`, "textarea"},
	"checkbox": {`input[@type="checkbox"]`},
	"radio":    {`input[@type="radio"]`},
	"heading":  {"h1", "h2", "h3", "h4", "h5", "h6"},
	"list":     {"ul", "ol"},
	"listitem": {"li"},
}

// roleXPath matches elements with an explicit role attribute or the native
// tag that implies the role, optionally filtered by accessible name.
func roleXPath(role, name string, exact bool) string {
	var parts []string
	parts = append(parts, fmt.Sprintf(`//*[@role=%s]`, xpathLiteral(role)))
	for _, tag := range roleTags[role] {
		parts = append(parts, "//"+tag)
	}
	expr := strings.Join(parts, " | ")
	if name == "" {
		return expr
	}
	var cond string
	if exact {
		cond = fmt.Sprintf(`@aria-label=%[1]s or normalize-space(.)=%[1]s`, xpathLiteral(name))
	} else {
		cond = fmt.Sprintf(`contains(@aria-label,%[1]s) or contains(normalize-space(.),%[1]s)`, xpathLiteral(name))
	}
	return fmt.Sprintf(`(%s)[%s]`, expr, cond)
}

// textXPath matches visible elements by their normalized text.
func textXPath(text string, exact bool) string {
	if exact {
		return fmt.Sprintf(`//*[normalize-space(text())=%s]`, xpathLiteral(text))
	}
	return fmt.Sprintf(`//*[contains(normalize-space(text()),%s)]`, xpathLiteral(text))
}

// labelXPath matches form controls by the text of their label, through
// both for/id association and nesting.
func labelXPath(label string) string {
	lit := xpathLiteral(label)
	return fmt.Sprintf(
		`//*[@id=//label[normalize-space(text())=%[1]s]/@for] | //label[normalize-space(text())=%[1]s]//input | //label[normalize-space(text())=%[1]s]//select | //label[normalize-space(text())=%[1]s]//textarea`,
		lit,
	)
}

// xpathLiteral quotes a string for embedding in an XPath expression. Values
// containing both quote kinds need concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range strings.Split(s, `"`) {
		if i > 0 {
			b.WriteString(`,'"',`)
		}
		b.WriteString(`"` + part + `"`)
	}
	b.WriteString(")")
	return b.String()
}

// cssLiteral quotes a string for an attribute selector.
func cssLiteral(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
