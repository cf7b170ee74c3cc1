package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stepStatus tracks the display state of each step.
type stepStatus int

const (
	statusPending stepStatus = iota
	statusCurrent
	statusPassed
	statusFailed
	statusSkipped
	statusHealed
)

// stepInfo holds the display state for a single step.
type stepInfo struct {
	ID     string
	Desc   string
	Type   string
	Status stepStatus
	Error  string
}

// stepsPanel renders the scrollable step list.
type stepsPanel struct {
	steps  []stepInfo
	cursor int // highlighted step (for browsing)
	width  int
	height int
	offset int // scroll offset
}

func newStepsPanel() stepsPanel {
	return stepsPanel{cursor: -1}
}

// AddStep appends a step when its step_start arrives. Expanded component
// steps show up here too; the panel grows as the run discovers them.
func (p *stepsPanel) AddStep(id, desc, typ string) {
	p.steps = append(p.steps, stepInfo{
		ID:     id,
		Desc:   desc,
		Type:   typ,
		Status: statusPending,
	})
}

// HasStep reports whether a step with the given ID is already tracked.
func (p *stepsPanel) HasStep(id string) bool {
	for _, s := range p.steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

// SetStatus updates a step's status by ID.
func (p *stepsPanel) SetStatus(stepID string, status stepStatus) {
	for i := range p.steps {
		if p.steps[i].ID == stepID {
			p.steps[i].Status = status
			if status == statusCurrent {
				p.cursor = i
				p.ensureVisible()
			}
			return
		}
	}
}

// SetStepError records an error message on a step.
func (p *stepsPanel) SetStepError(stepID, errMsg string) {
	for i := range p.steps {
		if p.steps[i].ID == stepID {
			p.steps[i].Error = errMsg
			return
		}
	}
}

// CursorUp moves the browsing cursor up.
func (p *stepsPanel) CursorUp() {
	if p.cursor > 0 {
		p.cursor--
		p.ensureVisible()
	}
}

// CursorDown moves the browsing cursor down.
func (p *stepsPanel) CursorDown() {
	if p.cursor < len(p.steps)-1 {
		p.cursor++
		p.ensureVisible()
	}
}

// SelectedID returns the step ID at the cursor position.
func (p *stepsPanel) SelectedID() string {
	if p.cursor >= 0 && p.cursor < len(p.steps) {
		return p.steps[p.cursor].ID
	}
	return ""
}

func (p *stepsPanel) ensureVisible() {
	visible := p.height - 2 // account for border/title
	if visible < 1 {
		visible = 1
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
}

// View renders the step list panel.
func (p *stepsPanel) View() string {
	if len(p.steps) == 0 {
		return panelBorder.Width(p.width).Height(p.height).Render("  Waiting for steps...")
	}

	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}

	var lines []string
	end := p.offset + visible
	if end > len(p.steps) {
		end = len(p.steps)
	}

	for i := p.offset; i < end; i++ {
		step := p.steps[i]

		var glyph string
		var style lipgloss.Style
		switch step.Status {
		case statusPending:
			glyph = GlyphPending
			style = stepNormal
		case statusCurrent:
			glyph = GlyphCurrent
			style = stepCurrent
		case statusPassed:
			glyph = GlyphPassed
			style = stepPassed
		case statusFailed:
			glyph = GlyphFailed
			style = stepFailed
		case statusSkipped:
			glyph = GlyphSkipped
			style = stepSkipped
		case statusHealed:
			glyph = GlyphHealed
			style = stepHealed
		}

		title := step.Desc
		if title == "" {
			title = step.ID
		}
		maxTitle := p.width - 8 // glyph + padding + number
		if maxTitle < 4 {
			maxTitle = 4
		}
		if len(title) > maxTitle {
			title = title[:maxTitle-1] + "…"
		}

		num := fmt.Sprintf("%d.", i+1)
		line := fmt.Sprintf(" %s %s %s", glyph, num, title)

		if i == p.cursor {
			line = style.Reverse(true).Render(line)
		} else {
			line = style.Render(line)
		}
		lines = append(lines, line)
	}

	for len(lines) < visible {
		lines = append(lines, "")
	}
	content := strings.Join(lines, "\n")

	title := panelTitle.Render("Steps")
	return panelBorder.Width(p.width).Height(p.height).Render(title + "\n" + content)
}

// Stats returns counts of steps by status.
func (p *stepsPanel) Stats() (total, passed, failed, skipped, healed int) {
	total = len(p.steps)
	for _, s := range p.steps {
		switch s.Status {
		case statusPassed:
			passed++
		case statusFailed:
			failed++
		case statusSkipped:
			skipped++
		case statusHealed:
			healed++
		}
	}
	return
}
