package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/splint/pkg/engine"
	"github.com/ormasoftchile/splint/pkg/trace"
)

// --- report ---

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report [trace.jsonl]",
	Short: "Render a Markdown report from a trace file",
	Long: `Read a JSONL trace file and produce a Markdown report of every run it
contains: status, step table, healing events and run-level errors.

Traces are append-only, so a file that has seen several runs reports them
all in order. Use --out to write the raw Markdown instead of rendering it
to the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	tracePath := args[0]

	events, err := trace.ReadFile(tracePath)
	if err != nil {
		return fmt.Errorf("read trace: %w", err)
	}
	runs := collectRuns(events)
	if len(runs) == 0 {
		return fmt.Errorf("no runs found in %s", tracePath)
	}

	md := buildReport(tracePath, runs)

	if reportOut != "" {
		if err := os.WriteFile(reportOut, []byte(md), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("✓ Report written: %s (%d run(s))\n", reportOut, len(runs))
		return nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(out)
	return nil
}

// reportRun aggregates one run's events out of the trace stream. A run
// without a run_complete event keeps the running status, which is how
// truncated traces show up in the report.
type reportRun struct {
	ID        string
	Scenario  string
	StartedAt time.Time
	Status    string
	Duration  string
	Summary   map[string]any
	Failure   map[string]any
	Steps     []reportStep
	Healings  []reportHealing
}

type reportStep struct {
	ID       string
	Status   string
	Duration string
	Error    string
}

type reportHealing struct {
	StepID     string
	Original   string
	Healed     string
	Confidence float64
	Status     string
}

// collectRuns groups trace events by run ID, preserving first-seen order.
func collectRuns(events []trace.Event) []*reportRun {
	byID := make(map[string]*reportRun)
	var order []*reportRun

	for _, evt := range events {
		r, ok := byID[evt.RunID]
		if !ok {
			r = &reportRun{ID: evt.RunID, StartedAt: evt.Timestamp, Status: engine.RunRunning}
			byID[evt.RunID] = r
			order = append(order, r)
		}

		switch evt.Type {
		case trace.EventRunStart:
			if s, ok := evt.Data["scenario_name"].(string); ok {
				r.Scenario = s
			}
			r.StartedAt = evt.Timestamp
		case trace.EventStepComplete:
			var step reportStep
			step.ID, _ = evt.Data["step_id"].(string)
			step.Status, _ = evt.Data["status"].(string)
			step.Duration, _ = evt.Data["duration"].(string)
			if f, ok := evt.Data["failure"].(map[string]any); ok {
				step.Error = fmt.Sprintf("%v: %v", f["kind"], f["message"])
			}
			r.Steps = append(r.Steps, step)
		case trace.EventStepHealed:
			var h reportHealing
			h.StepID, _ = evt.Data["step_id"].(string)
			h.Confidence, _ = evt.Data["confidence"].(float64)
			h.Status, _ = evt.Data["status"].(string)
			h.Original = strategyText(evt.Data["original_strategy"])
			h.Healed = strategyText(evt.Data["healed_strategy"])
			r.Healings = append(r.Healings, h)
		case trace.EventRunComplete:
			r.Status, _ = evt.Data["status"].(string)
			r.Duration, _ = evt.Data["duration"].(string)
			if s, ok := evt.Data["summary"].(map[string]any); ok {
				r.Summary = s
			}
			if f, ok := evt.Data["failure"].(map[string]any); ok {
				r.Failure = f
			}
		}
	}
	return order
}

// --- Markdown generation ---

func buildReport(tracePath string, runs []*reportRun) string {
	var sb strings.Builder

	sb.WriteString("# Run Report\n\n")
	sb.WriteString(fmt.Sprintf("**Generated**: %s  \n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Trace**: `%s`  \n", tracePath))
	sb.WriteString(fmt.Sprintf("**Runs**: %d\n\n", len(runs)))

	for _, r := range runs {
		writeRunSection(&sb, r)
	}
	return sb.String()
}

func writeRunSection(sb *strings.Builder, r *reportRun) {
	name := r.Scenario
	if name == "" {
		name = "(unknown scenario)"
	}
	sb.WriteString(fmt.Sprintf("## %s — run `%s`\n\n", name, r.ID))

	sb.WriteString(fmt.Sprintf("**Status**: %s %s  \n", statusIcon(r.Status), r.Status))
	if !r.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Started**: %s  \n", r.StartedAt.Format("2006-01-02 15:04:05")))
	}
	if r.Duration != "" {
		sb.WriteString(fmt.Sprintf("**Duration**: %s  \n", r.Duration))
	}
	sb.WriteString("\n")

	if r.Summary != nil {
		sb.WriteString("| Metric | Count |\n")
		sb.WriteString("|--------|-------|\n")
		for _, row := range []struct{ key, label string }{
			{"total", "Total steps"},
			{"passed", "Passed"},
			{"failed", "Failed"},
			{"skipped", "Skipped"},
			{"healed", "Healed"},
		} {
			if v, ok := r.Summary[row.key]; ok {
				sb.WriteString(fmt.Sprintf("| %s | %v |\n", row.label, v))
			}
		}
		sb.WriteString("\n")
	}

	if len(r.Steps) > 0 {
		sb.WriteString("### Steps\n\n")
		sb.WriteString("| # | Step | Status | Duration | Error |\n")
		sb.WriteString("|---|------|--------|----------|-------|\n")
		for i, s := range r.Steps {
			errText := s.Error
			if errText == "" {
				errText = "—"
			}
			sb.WriteString(fmt.Sprintf("| %d | `%s` | %s | %s | %s |\n",
				i+1, s.ID, s.Status, s.Duration, errText))
		}
		sb.WriteString("\n")
	}

	if len(r.Healings) > 0 {
		sb.WriteString("### Healing\n\n")
		for _, h := range r.Healings {
			sb.WriteString(fmt.Sprintf("- ◆ `%s`: `%s` replaced `%s` (confidence %.2f, %s)\n",
				h.StepID, h.Healed, h.Original, h.Confidence, h.Status))
		}
		sb.WriteString("\n")
	}

	if r.Failure != nil {
		sb.WriteString(fmt.Sprintf("> **Run error**: %v: %v\n\n", r.Failure["kind"], r.Failure["message"]))
	}
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "", "Write the Markdown report to this file instead of rendering it")
	rootCmd.AddCommand(reportCmd)
}
