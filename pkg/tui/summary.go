package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// summaryOverlay renders the end-of-run summary view.
type summaryOverlay struct {
	visible bool

	// Run results
	status  string
	total   int
	passed  int
	failed  int
	skipped int
	healed  int
	errMsg  string

	// Timing
	duration time.Duration

	// Run metadata
	runID     string
	tracePath string

	width  int
	height int
}

func newSummaryOverlay() summaryOverlay {
	return summaryOverlay{}
}

// Show populates and displays the summary.
func (s *summaryOverlay) Show(runID, status string, total, passed, failed, skipped, healed int, duration time.Duration) {
	s.visible = true
	s.runID = runID
	s.status = status
	s.total = total
	s.passed = passed
	s.failed = failed
	s.skipped = skipped
	s.healed = healed
	s.duration = duration
}

// SetTracePath sets the trace file path shown in the summary.
func (s *summaryOverlay) SetTracePath(path string) {
	s.tracePath = path
}

// SetError records a run-level error message.
func (s *summaryOverlay) SetError(msg string) {
	s.errMsg = msg
}

// Hide closes the summary overlay.
func (s *summaryOverlay) Hide() {
	s.visible = false
}

// Toggle flips the overlay visibility.
func (s *summaryOverlay) Toggle() {
	s.visible = !s.visible
}

// View renders the summary overlay.
func (s *summaryOverlay) View() string {
	if !s.visible {
		return ""
	}

	contentW := s.width - 8
	if contentW < 50 {
		contentW = 50
	}

	var b strings.Builder

	b.WriteString(summaryTitleStyle.Render("Run Complete"))
	b.WriteString("\n\n")

	// Run status
	var statusStyled string
	switch s.status {
	case "passed":
		statusStyled = summaryPassedStyle.Render("✓ " + s.status)
	case "failed":
		statusStyled = summaryFailedStyle.Render("✗ " + s.status)
	case "healed":
		statusStyled = summaryHealedStyle.Render("◆ " + s.status)
	default:
		statusStyled = detailValueStyle.Render(s.status)
	}
	b.WriteString(detailLabelStyle.Render("Status:   ") + statusStyled)
	b.WriteString("\n")

	// Step stats
	statsLine := fmt.Sprintf("%d total", s.total)
	if s.passed > 0 {
		statsLine += ", " + summaryPassedStyle.Render(fmt.Sprintf("✓%d passed", s.passed))
	}
	if s.failed > 0 {
		statsLine += ", " + summaryFailedStyle.Render(fmt.Sprintf("✗%d failed", s.failed))
	}
	if s.skipped > 0 {
		statsLine += ", " + stepSkipped.Render(fmt.Sprintf("⏭%d skipped", s.skipped))
	}
	if s.healed > 0 {
		statsLine += ", " + summaryHealedStyle.Render(fmt.Sprintf("◆%d healed", s.healed))
	}
	b.WriteString(detailLabelStyle.Render("Steps:    ") + statsLine)
	b.WriteString("\n")

	// Duration
	b.WriteString(detailLabelStyle.Render("Duration: ") + detailValueStyle.Render(formatDuration(s.duration)))
	b.WriteString("\n")

	// Run ID
	if s.runID != "" {
		b.WriteString(detailLabelStyle.Render("Run:      ") + keyDescStyle.Render(s.runID))
		b.WriteString("\n")
	}

	// Trace path
	if s.tracePath != "" {
		b.WriteString(detailLabelStyle.Render("Trace:    ") + keyDescStyle.Render(s.tracePath))
		b.WriteString("\n")
	}

	// Run-level error
	if s.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+s.errMsg))
		b.WriteString("\n")
	}

	// Key hints
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("s") + keyDescStyle.Render(":close") + "  " +
		keyStyle.Render("v") + keyDescStyle.Render(":vars") + "  " +
		keyStyle.Render("q") + keyDescStyle.Render(":quit"))

	box := overlayBorder.Width(contentW).Render(b.String())
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, box)
}

// formatDuration returns a human-friendly duration string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m >= 60 {
		h := m / 60
		m = m % 60
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}
