package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/splint/pkg/healing"
)

// ReviewConfig holds the parameters for a healing review session.
type ReviewConfig struct {
	Tracker *healing.Tracker

	// Reviewer is recorded on every decision made in this session.
	Reviewer string
}

// Review runs the interactive review session over the tracker's healing
// events. Decisions land in the tracker; the caller persists them.
func Review(cfg ReviewConfig) error {
	m := NewReviewModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// ReviewModel is the Bubble Tea model for the review session.
type ReviewModel struct {
	tracker  *healing.Tracker
	reviewer string

	// events in recording order; keys index the tracker
	events []healing.Event
	cursor int

	// note overlay
	noteOpen   bool
	noteAction healing.DecisionStatus // approved or rejected
	noteInput  textinput.Model

	width  int
	height int
}

// NewReviewModel builds the model from the tracker's current events.
func NewReviewModel(cfg ReviewConfig) ReviewModel {
	ti := textinput.New()
	ti.Placeholder = "Optional note..."
	ti.CharLimit = 512
	ti.Width = 60

	return ReviewModel{
		tracker:   cfg.Tracker,
		reviewer:  cfg.Reviewer,
		events:    cfg.Tracker.Events(),
		noteInput: ti,
	}
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update processes messages.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m ReviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Note form open: everything except submit/cancel goes to the input.
	if m.noteOpen {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.noteOpen = false
			m.noteInput.Blur()
			return m, nil
		case "enter":
			m.submitDecision()
			return m, nil
		}
		var cmd tea.Cmd
		m.noteInput, cmd = m.noteInput.Update(msg)
		return m, cmd
	}

	switch {
	case matchKey(msg, keys.Quit):
		return m, tea.Quit

	case matchKey(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case matchKey(msg, keys.Down):
		if m.cursor < len(m.events)-1 {
			m.cursor++
		}

	case matchKey(msg, keys.Approve):
		if len(m.events) > 0 {
			m.openNote(healing.StatusApproved)
		}

	case matchKey(msg, keys.Reject):
		if len(m.events) > 0 {
			m.openNote(healing.StatusRejected)
		}
	}

	return m, nil
}

// openNote opens the note form for the pending decision.
func (m *ReviewModel) openNote(action healing.DecisionStatus) {
	m.noteOpen = true
	m.noteAction = action
	m.noteInput.Reset()
	m.noteInput.Focus()
}

// submitDecision applies the note form's decision to the selected event.
func (m *ReviewModel) submitDecision() {
	m.noteOpen = false
	m.noteInput.Blur()

	if m.cursor < 0 || m.cursor >= len(m.events) {
		return
	}
	eventID := m.events[m.cursor].Key()
	note := strings.TrimSpace(m.noteInput.Value())

	if m.noteAction == healing.StatusRejected {
		m.tracker.Reject(eventID, m.reviewer, note)
	} else {
		m.tracker.Approve(eventID, m.reviewer, note)
	}
}

// View renders the review session.
func (m ReviewModel) View() string {
	if len(m.events) == 0 {
		return overlayTitle.Render("Healing Review") + "\n\n" +
			keyDescStyle.Render("  No healing events recorded.") + "\n\n" +
			keyBarStyle.Render(reviewKeyBarText(false))
	}

	// Note form takes over the full screen
	if m.noteOpen {
		return m.renderNoteOverlay()
	}

	header := m.renderReviewHeader()

	listW := m.width * 40 / 100
	if listW < 30 {
		listW = 30
	}
	detailW := m.width - listW
	if detailW < 20 {
		detailW = 20
	}
	mainH := m.height - 4
	if mainH < 4 {
		mainH = 4
	}

	list := m.renderList(listW, mainH)
	detail := m.renderDetail(detailW, mainH)
	main := lipgloss.JoinHorizontal(lipgloss.Top, list, detail)

	return header + "\n" + main + "\n" + keyBarStyle.Render(reviewKeyBarText(false))
}

func (m ReviewModel) renderReviewHeader() string {
	title := headerStyle.Render("splint") + " " + driverBadgeStyle.Render("review")

	var pending, approved, rejected, auto int
	for _, evt := range m.events {
		d := m.tracker.Decision(evt.Key())
		switch {
		case d == nil || d.Status == healing.StatusPending:
			pending++
		case d.Status == healing.StatusApproved:
			approved++
		case d.Status == healing.StatusRejected:
			rejected++
		case d.Status == healing.StatusAutoApproved:
			auto++
		}
	}
	counts := fmt.Sprintf("%d events  %s  %s  %s  %s",
		len(m.events),
		statusRunningStyle.Render(fmt.Sprintf("○%d pending", pending)),
		summaryPassedStyle.Render(fmt.Sprintf("✓%d approved", approved)),
		summaryFailedStyle.Render(fmt.Sprintf("✗%d rejected", rejected)),
		summaryHealedStyle.Render(fmt.Sprintf("◆%d auto", auto)))

	padding := m.width - lipgloss.Width(title) - lipgloss.Width(counts) - 2
	if padding < 1 {
		padding = 1
	}
	return title + strings.Repeat(" ", padding) + counts
}

func (m ReviewModel) renderList(width, height int) string {
	var lines []string
	visible := height - 2
	if visible < 1 {
		visible = 1
	}

	offset := 0
	if m.cursor >= visible {
		offset = m.cursor - visible + 1
	}
	end := offset + visible
	if end > len(m.events) {
		end = len(m.events)
	}

	for i := offset; i < end; i++ {
		evt := m.events[i]
		glyph, style := m.decisionGlyph(evt.Key())

		label := fmt.Sprintf(" %s %s/%s (%.2f)", glyph, evt.ScenarioID, evt.StepID, evt.Confidence)
		maxW := width - 4
		if maxW < 4 {
			maxW = 4
		}
		if len(label) > maxW {
			label = label[:maxW-1] + "…"
		}
		if i == m.cursor {
			label = style.Reverse(true).Render(label)
		} else {
			label = style.Render(label)
		}
		lines = append(lines, label)
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}

	title := panelTitle.Render("Healing Events")
	return panelBorder.Width(width).Height(height).Render(title + "\n" + strings.Join(lines, "\n"))
}

func (m ReviewModel) decisionGlyph(eventID string) (string, lipgloss.Style) {
	d := m.tracker.Decision(eventID)
	switch {
	case d == nil || d.Status == healing.StatusPending:
		return GlyphPending, stepNormal
	case d.Status == healing.StatusApproved:
		return GlyphPassed, stepPassed
	case d.Status == healing.StatusRejected:
		return GlyphFailed, stepFailed
	default:
		return GlyphHealed, stepHealed
	}
}

func (m ReviewModel) renderDetail(width, height int) string {
	if m.cursor < 0 || m.cursor >= len(m.events) {
		return panelBorder.Width(width).Height(height).Render("")
	}
	evt := m.events[m.cursor]

	var md strings.Builder
	md.WriteString("## Healing Event\n\n")
	md.WriteString(fmt.Sprintf("**Scenario:** %s\n\n", evt.ScenarioID))
	md.WriteString(fmt.Sprintf("**Step:** %s\n\n", evt.StepID))
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", evt.RunID))
	md.WriteString(fmt.Sprintf("**Original:** `%s=%s`\n\n", evt.Original.Type, evt.Original.Value))
	md.WriteString(fmt.Sprintf("**Healed:** `%s=%s`\n\n", evt.Healed.Type, evt.Healed.Value))
	md.WriteString(fmt.Sprintf("**Confidence:** %.2f\n\n", evt.Confidence))
	if !evt.CreatedAt.IsZero() {
		md.WriteString(fmt.Sprintf("**Recorded:** %s\n\n", evt.CreatedAt.Format("2006-01-02 15:04:05 MST")))
	}

	if d := m.tracker.Decision(evt.Key()); d != nil {
		md.WriteString(fmt.Sprintf("**Decision:** %s", d.Status))
		if d.Reviewer != "" {
			md.WriteString(fmt.Sprintf(" by %s", d.Reviewer))
		}
		md.WriteString("\n\n")
		if d.Note != "" {
			md.WriteString(fmt.Sprintf("> %s\n", d.Note))
		}
	} else {
		md.WriteString("**Decision:** pending\n")
	}

	content := renderMarkdownWidth(md.String(), width-6)
	title := panelTitle.Render("Detail")
	return panelBorder.Width(width).Height(height).Render(title + "\n" + content)
}

// renderNoteOverlay renders the decision note form.
func (m ReviewModel) renderNoteOverlay() string {
	contentW := m.width - 8
	if contentW < 40 {
		contentW = 40
	}

	var b strings.Builder
	verb := "Approve"
	if m.noteAction == healing.StatusRejected {
		verb = "Reject"
	}
	evt := m.events[m.cursor]
	b.WriteString(overlayTitle.Render(fmt.Sprintf("%s healing of %s/%s", verb, evt.ScenarioID, evt.StepID)))
	b.WriteString("\n\n")
	b.WriteString(detailLabelStyle.Render("Healed strategy: ") +
		detailValueStyle.Render(fmt.Sprintf("%s=%s", evt.Healed.Type, evt.Healed.Value)))
	b.WriteString("\n\n")

	input := m.noteInput
	input.Width = contentW - 4
	b.WriteString(input.View())
	b.WriteString("\n\n")
	b.WriteString(keyStyle.Render("Enter") + keyDescStyle.Render(":submit") + "  " +
		keyStyle.Render("Esc") + keyDescStyle.Render(":cancel"))

	box := overlayBorder.Width(contentW).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
