package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// renderMarkdownWidth renders markdown constrained to a specific column width.
// Falls back to the raw input if glamour is unavailable or rendering fails.
func renderMarkdownWidth(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	// Glamour adds trailing newlines; trim for inline use
	return strings.TrimRight(out, "\n")
}
