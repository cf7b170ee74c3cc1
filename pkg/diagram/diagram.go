// Package diagram generates visual diagrams from parsed scenarios.
// Supports Mermaid flowchart and ASCII formats.
package diagram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/ormasoftchile/splint/pkg/schema"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// Generate produces a diagram string from a parsed scenario.
func Generate(sc *schema.Scenario, format Format) (string, error) {
	if sc == nil {
		return "", fmt.Errorf("nil scenario")
	}
	switch format {
	case FormatMermaid:
		return generateMermaid(sc), nil
	case FormatASCII:
		return generateASCII(sc), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// --- Mermaid flowchart ---

func generateMermaid(sc *schema.Scenario) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	steps := collectSteps(sc)
	if len(steps) == 0 {
		return b.String()
	}

	b.WriteString("    START([Start])\n")
	for _, s := range steps {
		b.WriteString("    " + nodeDefinition(s) + "\n")
	}
	b.WriteString("    END([End])\n")

	// A when guard conditions the edge into its step; the dotted edge is
	// the bypass taken when the guard is false.
	prev := "START"
	for i, s := range steps {
		id := safeID(s.id)
		next := "END"
		if i < len(steps)-1 {
			next = safeID(steps[i+1].id)
		}
		if s.when != "" {
			b.WriteString(fmt.Sprintf("    %s -->|%q| %s\n", prev, truncate(s.when, 30), id))
			b.WriteString(fmt.Sprintf("    %s -.->|\"skip\"| %s\n", prev, next))
		} else {
			b.WriteString(fmt.Sprintf("    %s --> %s\n", prev, id))
		}
		prev = id
	}
	b.WriteString(fmt.Sprintf("    %s --> END\n", prev))

	// Style the API lane
	for _, s := range steps {
		switch schema.StepType(s.stepType) {
		case schema.StepAPIRequest, schema.StepAPIAssert:
			b.WriteString(fmt.Sprintf("    style %s fill:#1a3a4a,stroke:#0af\n", safeID(s.id)))
		}
	}

	return b.String()
}

// --- ASCII ---

func generateASCII(sc *schema.Scenario) string {
	var b strings.Builder

	name := sc.Name
	if name == "" {
		name = "Scenario"
	}

	steps := collectSteps(sc)
	if len(steps) == 0 {
		b.WriteString(name + " (empty)\n")
		return b.String()
	}

	// Compute uniform box width so every box and connector aligns.
	const indent = 8
	boxWidth := computeUniformBoxWidth(steps, name)
	connCol := indent + 1 + boxWidth/2 // +1 accounts for the └/┌ border character
	pad := strings.Repeat(" ", indent)
	connPad := strings.Repeat(" ", connCol)

	// Header — same width as body boxes, name centered.
	headerText := centerPad(name, boxWidth)
	mid := boxWidth / 2
	b.WriteString(pad + "╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString(pad + "║" + headerText + "║\n")
	b.WriteString(pad + "╚" + strings.Repeat("═", mid) + "╤" + strings.Repeat("═", boxWidth-mid-1) + "╝\n")
	b.WriteString(connPad + "│\n")

	for _, s := range steps {
		writeASCIIStep(&b, s, indent, boxWidth)
		b.WriteString(connPad + "│\n")
	}

	b.WriteString(strings.Repeat(" ", connCol-2) + "✓ End\n")
	return b.String()
}

// computeUniformBoxWidth returns the widest interior width needed
// across all steps and the header name.
func computeUniformBoxWidth(steps []diagramStep, name string) int {
	minWidth := 22
	w := minWidth

	// Header name with padding
	nameWidth := runewidth.StringWidth(name) + 4 // "  name  "
	if nameWidth > w {
		w = nameWidth
	}

	for _, s := range steps {
		for _, line := range stepLines(s) {
			if lw := runewidth.StringWidth(line); lw > w {
				w = lw
			}
		}
	}
	return w
}

// centerPad centers s within width using spaces, based on display width.
func centerPad(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	total := width - sw
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func writeASCIIStep(b *strings.Builder, s diagramStep, indent, boxWidth int) {
	pad := strings.Repeat(" ", indent)
	mid := boxWidth / 2

	b.WriteString(pad + "┌" + strings.Repeat("─", boxWidth) + "┐\n")
	for _, line := range stepLines(s) {
		lw := runewidth.StringWidth(line)
		b.WriteString(pad + "│" + line + strings.Repeat(" ", boxWidth-lw) + "│\n")
	}
	b.WriteString(pad + "└" + strings.Repeat("─", mid) + "┬" + strings.Repeat("─", boxWidth-mid-1) + "┘\n")
}

// stepLines lists the interior lines of one step box: title, then the
// optional guard and capture lines.
func stepLines(s diagramStep) []string {
	icon := stepIcon(s.stepType)
	lines := []string{fmt.Sprintf(" %s %s ", icon, s.title)}
	if s.when != "" {
		lines = append(lines, " ? "+truncate(s.when, 40)+" ")
	}
	if s.saveAs != "" {
		lines = append(lines, " → "+s.saveAs+" ")
	}
	return lines
}

func stepIcon(stepType string) string {
	switch schema.StepType(stepType) {
	case schema.StepNavigate:
		return "🌐"
	case schema.StepClick, schema.StepFill, schema.StepSelect, schema.StepHover:
		return "⚡"
	case schema.StepWait:
		return "⏳"
	case schema.StepAssert, schema.StepAPIAssert:
		return "🔎"
	case schema.StepScreenshot:
		return "📷"
	case schema.StepAPIRequest:
		return "📡"
	case schema.StepComponent:
		return "📎"
	case schema.StepScript:
		return "⚙"
	default:
		return "○"
	}
}

// --- step collection ---

type diagramStep struct {
	id       string
	title    string
	stepType string
	when     string // guard expression, empty when unconditional
	saveAs   string // name the step stores a response or value under
}

func collectSteps(sc *schema.Scenario) []diagramStep {
	steps := make([]diagramStep, 0, len(sc.Steps))
	for i, s := range sc.Steps {
		id := s.ID
		if id == "" {
			id = "step_" + strconv.Itoa(i+1)
		}
		steps = append(steps, diagramStep{
			id:       id,
			title:    stepTitle(s),
			stepType: string(s.Type),
			when:     s.When,
			saveAs:   stepSaveAs(s),
		})
	}
	return steps
}

// stepTitle labels a step: its description when authored, otherwise a
// summary built from the step's own config.
func stepTitle(s schema.Step) string {
	if s.Description != "" {
		return s.Description
	}
	switch {
	case s.Navigate != nil:
		return "navigate " + s.Navigate.URL
	case s.Click != nil:
		return "click " + targetText(s.Click.Element)
	case s.Fill != nil:
		return "fill " + targetText(s.Fill.Element)
	case s.Select != nil:
		return "select " + targetText(s.Select.Element)
	case s.Hover != nil:
		return "hover " + targetText(s.Hover.Element)
	case s.Wait != nil:
		if s.Wait.Duration > 0 {
			return "wait " + strconv.Itoa(s.Wait.Duration) + "ms"
		}
		if s.Wait.LoadState != "" {
			return "wait " + s.Wait.LoadState
		}
		if s.Wait.Element != nil {
			return "wait " + targetText(*s.Wait.Element)
		}
		return "wait"
	case s.Assert != nil:
		return "assert " + targetText(s.Assert.Element) + " " + s.Assert.Condition
	case s.Screenshot != nil:
		return "screenshot"
	case s.Request != nil:
		return s.Request.Method + " " + s.Request.URL
	case s.APIAssert != nil:
		return "assert response " + s.APIAssert.Response
	case s.Component != nil:
		return "component " + s.Component.ID
	case s.Script != nil:
		return "script"
	}
	if s.ID != "" {
		return s.ID
	}
	return string(s.Type)
}

func targetText(t schema.ElementTarget) string {
	if t.Ref != "" {
		return t.Ref
	}
	if len(t.Strategies) > 0 {
		st := t.Strategies[0]
		return string(st.Type) + "=" + st.Value
	}
	if t.Name != "" {
		return t.Name
	}
	return "element"
}

func stepSaveAs(s schema.Step) string {
	switch {
	case s.Request != nil:
		return s.Request.SaveAs
	case s.Script != nil:
		return s.Script.SaveAs
	}
	return ""
}

// --- string helpers ---

func nodeDefinition(s diagramStep) string {
	id := safeID(s.id)
	icon := stepIcon(s.stepType)
	title := escMermaid(truncate(s.title, 40))

	captureSuffix := ""
	if s.saveAs != "" {
		captureSuffix = "<br/>→ " + escMermaid(s.saveAs)
	}

	switch schema.StepType(s.stepType) {
	case schema.StepComponent:
		return fmt.Sprintf(`%s[["%s %s"]]`, id, icon, title)
	case schema.StepAssert, schema.StepAPIAssert:
		return fmt.Sprintf(`%s{{"%s %s"}}`, id, icon, title)
	case schema.StepAPIRequest:
		return fmt.Sprintf(`%s[/"%s %s%s"/]`, id, icon, title, captureSuffix)
	default:
		return fmt.Sprintf(`%s["%s %s%s"]`, id, icon, title, captureSuffix)
	}
}

func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
