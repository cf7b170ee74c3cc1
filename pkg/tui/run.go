package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/splint/pkg/engine"
	"github.com/ormasoftchile/splint/pkg/schema"
	"github.com/ormasoftchile/splint/pkg/trace"
)

// --- Tea messages ---

// traceEventMsg wraps one decoded trace event from the live stream.
type traceEventMsg struct {
	event trace.Event
}

// runDoneMsg is sent once the trace stream closes and the engine result is in.
type runDoneMsg struct {
	result *engine.ExecutionResult
}

// --- Overlay state ---

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayVars
	overlaySummary
)

// --- Model ---

// Model is the top-level Bubble Tea model for the live run view. It owns no
// engine state; everything it shows is rebuilt from the trace event stream.
type Model struct {
	// Components
	steps   stepsPanel
	output  outputPanel
	detail  detailBar
	spinner spinner.Model

	// Overlays
	summary summaryOverlay
	overlay overlayKind

	// Event stream
	events   <-chan trace.Event
	resultCh <-chan *engine.ExecutionResult

	// State
	running   bool
	completed bool
	fatalErr  string
	result    *engine.ExecutionResult

	// Vars display
	varsText string

	// Run metadata
	runID        string
	scenarioName string
	driverName   string
	tracePath    string

	// Timing
	startTime time.Time

	// Layout
	compact bool // single-column mode for narrow terminals
	width   int
	height  int
}

// RunConfig holds the parameters needed to launch the live run view.
type RunConfig struct {
	Scenario *schema.Scenario
	Engine   engine.Config

	// TracePath, when set, keeps a durable JSONL copy of the stream.
	TracePath string

	// DriverName labels the header badge (chromedp, dry-run).
	DriverName string

	Compact bool
}

// Run executes the scenario under the TUI. The engine runs in a goroutine
// and the model consumes its trace stream through a channel sink; the
// durable trace file, when requested, receives the same bytes.
func Run(cfg RunConfig) (*engine.ExecutionResult, error) {
	if cfg.Engine.RunID == "" {
		cfg.Engine.RunID = engine.GenerateRunID()
	}

	cw := trace.NewChannelWriter(64)
	var sink io.Writer = cw
	if cfg.TracePath != "" {
		f, err := os.OpenFile(cfg.TracePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		defer f.Close()
		sink = io.MultiWriter(f, cw)
	}
	cfg.Engine.Sink = trace.NewWriter(sink, cfg.Engine.RunID)

	eng := engine.New(cfg.Scenario, cfg.Engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resultCh := make(chan *engine.ExecutionResult, 1)
	go func() {
		res := eng.Run(ctx)
		cw.Close()
		resultCh <- res
	}()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	driverName := cfg.DriverName
	if driverName == "" {
		driverName = "dry-run"
	}

	m := Model{
		steps:   newStepsPanel(),
		output:  newOutputPanel(),
		detail:  newDetailBar(),
		spinner: sp,
		summary: newSummaryOverlay(),

		events:   cw.Events(),
		resultCh: resultCh,

		running:      true,
		runID:        cfg.Engine.RunID,
		scenarioName: cfg.Scenario.Name,
		driverName:   driverName,
		tracePath:    cfg.TracePath,
		startTime:    time.Now(),
		compact:      cfg.Compact,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}

	if fm, ok := final.(Model); ok && fm.result != nil {
		return fm.result, nil
	}

	// The user quit mid-run. Cancel the engine, drain the stream so the
	// goroutine can finish, and wait for it to release the session.
	cancel()
	for range cw.Events() {
	}
	return <-resultCh, nil
}

// Init returns the initial commands: start spinner, listen for events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForEvent(),
	)
}

// waitForEvent returns a command that waits for the next trace event. A
// closed stream means the run goroutine finished.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return runDoneMsg{result: <-m.resultCh}
		}
		return traceEventMsg{event: evt}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.summary.width = msg.Width
		m.summary.height = msg.Height
		// Auto-detect compact mode for narrow terminals
		if msg.Width < 80 {
			m.compact = true
		}
		m.layoutPanels()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case traceEventMsg:
		m.handleTraceEvent(msg.event)
		// Continue listening for more events
		cmds = append(cmds, m.waitForEvent())

	case runDoneMsg:
		// Fall back to the engine result if the stream never carried a
		// run_complete event.
		if !m.completed && msg.result != nil && msg.result.Run != nil {
			run := msg.result.Run
			s := run.Summary
			m.summary.Show(run.ID, run.Status, s.Total, s.Passed, s.Failed, s.Skipped, s.Healed, run.Duration())
			m.summary.SetTracePath(m.tracePath)
			if msg.result.Error != nil {
				m.summary.SetError(msg.result.Error.Error())
			}
			m.overlay = overlaySummary
		}
		m.completed = true
		m.running = false
		m.result = msg.result
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if matchKey(msg, keys.Quit) {
		return m, tea.Quit
	}

	// Escape closes overlays
	if msg.String() == "esc" && m.overlay != overlayNone {
		m.overlay = overlayNone
		m.summary.Hide()
		return m, nil
	}

	if m.overlay == overlaySummary {
		switch {
		case matchKey(msg, keys.Vars):
			if m.varsText != "" {
				m.summary.Hide()
				m.overlay = overlayVars
			}
		case matchKey(msg, keys.Summary):
			m.summary.Hide()
			m.overlay = overlayNone
		}
		return m, nil
	}

	if m.overlay == overlayVars {
		if matchKey(msg, keys.Vars) {
			m.overlay = overlayNone
		}
		return m, nil
	}

	// Normal key handling (no overlay)
	switch {
	case matchKey(msg, keys.Up):
		m.steps.CursorUp()
		m.output.ShowStep(m.steps.SelectedID())

	case matchKey(msg, keys.Down):
		m.steps.CursorDown()
		m.output.ShowStep(m.steps.SelectedID())

	case matchKey(msg, keys.PgUp):
		m.output.PageUp()

	case matchKey(msg, keys.PgDown):
		m.output.PageDown()

	case matchKey(msg, keys.Vars):
		if m.varsText != "" {
			m.overlay = overlayVars
		}

	case matchKey(msg, keys.Summary):
		if m.completed {
			m.summary.Toggle()
			if m.summary.visible {
				m.overlay = overlaySummary
			}
		}
	}

	return m, nil
}

// matchKey checks if a key message matches a key.Binding.
func matchKey(msg tea.KeyMsg, binding key.Binding) bool {
	return key.Matches(msg, binding)
}

// handleTraceEvent folds one trace event into the display state.
func (m *Model) handleTraceEvent(evt trace.Event) {
	switch evt.Type {

	case trace.EventRunStart:
		if evt.RunID != "" {
			m.runID = evt.RunID
		}
		if name := dataString(evt.Data, "scenario_name"); name != "" {
			m.scenarioName = name
		}
		if vars, ok := evt.Data["variables"].(map[string]any); ok {
			m.varsText = formatVars(vars)
		}

	case trace.EventStepStart:
		stepID := dataString(evt.Data, "step_id")
		stepType := dataString(evt.Data, "type")
		desc := dataString(evt.Data, "description")

		// Steps appear as the run discovers them; expanded component steps
		// show up here with their generated IDs.
		if !m.steps.HasStep(stepID) {
			m.steps.AddStep(stepID, desc, stepType)
		}
		m.steps.SetStatus(stepID, statusCurrent)
		m.detail.SetStep(stepID, stepType, desc)
		m.output.ShowStep(stepID)

		header := fmt.Sprintf("━━━ Step: %s ━━━\n", stepID)
		if desc != "" {
			header += fmt.Sprintf("  %s\n", desc)
		}
		header += fmt.Sprintf("  type: %s\n\n", stepType)
		m.output.AppendOutput(stepID, header)

	case trace.EventStepComplete:
		stepID := dataString(evt.Data, "step_id")
		statusStr := dataString(evt.Data, "status")

		status := statusPassed
		switch statusStr {
		case "passed":
			status = statusPassed
		case "failed":
			status = statusFailed
		case "skipped":
			status = statusSkipped
		case "healed":
			status = statusHealed
		}
		m.steps.SetStatus(stepID, status)

		errMsg := ""
		if f, ok := evt.Data["failure"].(map[string]any); ok {
			errMsg = dataString(f, "message")
		}
		m.detail.SetCompleted(statusStr, errMsg)

		if errMsg != "" {
			m.steps.SetStepError(stepID, errMsg)
			m.output.AppendOutput(stepID, errorStyle.Render("Error: "+errMsg)+"\n")
		}

		duration := dataString(evt.Data, "duration")
		var line string
		switch status {
		case statusFailed:
			line = stepFailed.Render(fmt.Sprintf("%s %s (%s)", GlyphFailed, statusStr, duration))
		case statusSkipped:
			line = stepSkipped.Render(GlyphSkipped + " skipped")
		case statusHealed:
			line = stepHealed.Render(fmt.Sprintf("%s healed (%s)", GlyphHealed, duration))
		default:
			line = stepPassed.Render(fmt.Sprintf("%s passed (%s)", GlyphPassed, duration))
		}
		m.output.AppendOutput(stepID, line+"\n")

	case trace.EventStepHealed:
		stepID := dataString(evt.Data, "step_id")
		from := strategyLabel(evt.Data["original_strategy"])
		to := strategyLabel(evt.Data["healed_strategy"])
		conf, _ := evt.Data["confidence"].(float64)
		decision := dataString(evt.Data, "status")

		m.detail.SetHealing(from, to, conf)
		m.output.AppendOutput(stepID, statusHealedStyle.Render(
			fmt.Sprintf("%s healed: %s replaced %s (confidence %.2f, %s)", GlyphHealed, to, from, conf, decision))+"\n")

	case trace.EventRunComplete:
		m.completed = true
		m.running = false

		status := dataString(evt.Data, "status")
		total, passed, failed, skipped, healed := m.steps.Stats()
		if summary, ok := evt.Data["summary"].(map[string]any); ok {
			total = dataInt(summary, "total")
			passed = dataInt(summary, "passed")
			failed = dataInt(summary, "failed")
			skipped = dataInt(summary, "skipped")
			healed = dataInt(summary, "healed")
		}
		duration := time.Since(m.startTime)
		if d, err := time.ParseDuration(dataString(evt.Data, "duration")); err == nil {
			duration = d
		}

		m.summary.Show(m.runID, status, total, passed, failed, skipped, healed, duration)
		m.summary.SetTracePath(m.tracePath)
		if f, ok := evt.Data["failure"].(map[string]any); ok {
			m.summary.SetError(dataString(f, "message"))
		}
		m.overlay = overlaySummary
	}
}

// layoutPanels recalculates panel dimensions based on terminal size.
func (m *Model) layoutPanels() {
	if m.width == 0 || m.height == 0 {
		return
	}

	// Layout: header(1) + main panels + detail bar
	headerH := 1
	detailH := 7
	mainH := m.height - headerH - detailH
	if mainH < 4 {
		mainH = 4
	}

	if m.compact {
		// Compact mode: full-width log, no steps panel visible
		m.steps.width = 0
		m.steps.height = 0
		m.output.SetSize(m.width, mainH)
	} else {
		// Steps panel: 30% width, minimum 25, maximum 45
		stepsW := m.width * 30 / 100
		if stepsW < 25 {
			stepsW = 25
		}
		if stepsW > 45 {
			stepsW = 45
		}

		m.steps.width = stepsW
		m.steps.height = mainH
		m.output.SetSize(m.width-stepsW, mainH)
	}

	m.detail.width = m.width
}

// View renders the complete TUI.
func (m Model) View() string {
	if m.fatalErr != "" {
		return errorStyle.Render("Fatal: "+m.fatalErr) + "\n\nPress q to quit."
	}

	// Overlay views take over the full screen
	switch m.overlay {
	case overlayVars:
		return m.renderVarsOverlay()
	case overlaySummary:
		return m.summary.View()
	}

	// Header
	header := m.renderHeader()

	// Main panels
	var main string
	if m.width > 0 {
		if m.compact {
			main = m.output.View()
		} else {
			main = lipgloss.JoinHorizontal(lipgloss.Top, m.steps.View(), m.output.View())
		}
	}

	// Detail bar
	detail := m.detail.View(m.running, m.completed)

	return header + "\n" + main + "\n" + detail
}

// renderVarsOverlay renders the variables display as a centered overlay.
func (m Model) renderVarsOverlay() string {
	contentW := m.width - 8
	if contentW < 50 {
		contentW = 50
	}
	box := overlayBorder.Width(contentW).Render(m.varsText)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderHeader builds the top header line.
func (m Model) renderHeader() string {
	title := headerStyle.Render("splint")
	badge := driverBadgeStyle.Render(m.driverName)

	var status string
	if m.completed {
		total, passed, failed, skipped, healed := m.steps.Stats()
		status = fmt.Sprintf("%s/%s/%s/%s/%d",
			summaryPassedStyle.Render(fmt.Sprintf("✓%d", passed)),
			summaryFailedStyle.Render(fmt.Sprintf("✗%d", failed)),
			stepSkipped.Render(fmt.Sprintf("⏭%d", skipped)),
			summaryHealedStyle.Render(fmt.Sprintf("◆%d", healed)),
			total)
	} else if m.running {
		status = m.spinner.View() + " executing"
	} else {
		status = "ready"
	}

	left := title + " " + badge + "  " + detailValueStyle.Render(m.scenarioName)
	right := status

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return left + strings.Repeat(" ", padding) + right
}

// formatVars formats the run_start variable scope for display.
func formatVars(vars map[string]any) string {
	var b strings.Builder
	b.WriteString("━━━ Variables ━━━\n\n")

	if len(vars) == 0 {
		b.WriteString(keyDescStyle.Render("  (no variables set)"))
	} else {
		names := make([]string, 0, len(vars))
		for k := range vars {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			b.WriteString(fmt.Sprintf("  %s = %v\n", detailLabelStyle.Render(k), vars[k]))
		}
	}

	b.WriteString("\n\n" + keyStyle.Render("Esc") + keyDescStyle.Render(":close"))
	return b.String()
}

// strategyLabel renders a locator strategy from trace event data. Stream
// events decode strategies into maps; in-process callers may hand the
// struct through.
func strategyLabel(v any) string {
	switch s := v.(type) {
	case map[string]any:
		return fmt.Sprintf("%v:%v", s["type"], s["value"])
	case schema.LocatorStrategy:
		return fmt.Sprintf("%s:%s", s.Type, s.Value)
	}
	return fmt.Sprintf("%v", v)
}

// dataString reads a string field from trace event data.
func dataString(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

// dataInt reads an integer field from trace event data. JSON round-trips
// turn numbers into float64.
func dataInt(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
