package tui

import (
	"fmt"
	"strings"
)

// detailBar renders the step detail and key hints at the bottom.
type detailBar struct {
	stepID   string
	stepType string
	stepDesc string
	status   string
	errMsg   string

	// healing info for the displayed step, if any
	healFrom       string
	healTo         string
	healConfidence float64

	width int
}

func newDetailBar() detailBar {
	return detailBar{}
}

// SetStep updates the detail bar for a new step.
func (d *detailBar) SetStep(stepID, stepType, desc string) {
	d.stepID = stepID
	d.stepType = stepType
	d.stepDesc = desc
	d.status = "running"
	d.errMsg = ""
	d.healFrom = ""
	d.healTo = ""
	d.healConfidence = 0
}

// SetCompleted marks the current step as completed.
func (d *detailBar) SetCompleted(status, errMsg string) {
	d.status = status
	d.errMsg = errMsg
}

// SetHealing records the healing detail for the displayed step.
func (d *detailBar) SetHealing(from, to string, confidence float64) {
	d.healFrom = from
	d.healTo = to
	d.healConfidence = confidence
}

// View renders the detail bar.
func (d *detailBar) View(running, completed bool) string {
	if completed && d.stepID == "" {
		return detailBarStyle.Width(d.width - 4).Render(
			summaryTitleStyle.Render("Run Complete"),
		)
	}

	if d.stepID == "" {
		return detailBarStyle.Width(d.width - 4).Render(
			"  Waiting for the first step...",
		)
	}

	// Step info line
	var parts []string
	parts = append(parts, detailLabelStyle.Render("Step: ")+detailValueStyle.Render(d.stepID))
	if d.stepType != "" {
		parts = append(parts, detailLabelStyle.Render("│ ")+detailValueStyle.Render(d.stepType))
	}

	// Status
	switch d.status {
	case "running":
		parts = append(parts, detailLabelStyle.Render("│ ")+statusRunningStyle.Render("⏳ executing..."))
	case "passed":
		parts = append(parts, detailLabelStyle.Render("│ ")+statusPassedStyle.Render("✓ passed"))
	case "failed":
		parts = append(parts, detailLabelStyle.Render("│ ")+statusFailedStyle.Render("✗ failed"))
	case "skipped":
		parts = append(parts, detailLabelStyle.Render("│ ")+stepSkipped.Render("⏭ skipped"))
	case "healed":
		parts = append(parts, detailLabelStyle.Render("│ ")+statusHealedStyle.Render("◆ healed"))
	}

	line1 := strings.Join(parts, " ")

	// Healing line
	var line2 string
	if d.healTo != "" {
		heal := fmt.Sprintf("%s → %s (%.2f)", d.healFrom, d.healTo, d.healConfidence)
		maxW := d.width - 14
		if maxW < 10 {
			maxW = 10
		}
		if len(heal) > maxW {
			heal = heal[:maxW-1] + "…"
		}
		line2 = detailLabelStyle.Render("  Healed: ") + statusHealedStyle.Render(heal)
	}

	// Error line
	var line3 string
	if d.errMsg != "" {
		line3 = "  " + errorStyle.Render("Error: "+d.errMsg)
	}

	content := line1
	if line2 != "" {
		content += "\n" + line2
	}
	if line3 != "" {
		content += "\n" + line3
	}

	// Key bar
	content += "\n\n" + keyBarStyle.Render(keyBarText(running, completed))

	return detailBarStyle.Width(d.width - 4).Render(content)
}
