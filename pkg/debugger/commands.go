package debugger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ormasoftchile/splint/pkg/engine"
	"github.com/ormasoftchile/splint/pkg/healing"
)

// handleNext executes the next step and advances.
func (d *Debugger) handleNext(ctx context.Context) error {
	if d.engine.Done() {
		fmt.Fprintf(d.output, "All steps completed.\n")
		return nil
	}

	step := d.engine.CurrentStep()
	idx, _ := d.engine.Position()
	title := step.Description
	if title == "" {
		title = string(step.Type)
	}
	fmt.Fprintf(d.output, "Executing step %d: %s [%s]\n", idx+1, title, step.ID)

	result, err := d.engine.Next(ctx)
	if err != nil {
		return err
	}

	switch result.Status {
	case engine.StepPassed:
		fmt.Fprintf(d.output, "  ✓ %s passed (%dms)\n", result.StepID, result.DurationMs)
	case engine.StepHealed:
		if h := result.Healing; h != nil {
			fmt.Fprintf(d.output, "  ◆ %s healed: %s=%s replaced %s=%s (confidence %.2f)\n",
				result.StepID, h.Used.Type, h.Used.Value, h.Original.Type, h.Original.Value, h.Confidence)
		} else {
			fmt.Fprintf(d.output, "  ◆ %s healed\n", result.StepID)
		}
	case engine.StepSkipped:
		fmt.Fprintf(d.output, "  ⏭ %s skipped\n", result.StepID)
	default:
		msg := ""
		if result.Error != nil {
			msg = result.Error.Message
		}
		fmt.Fprintf(d.output, "  ✗ %s failed: %s\n", result.StepID, msg)
	}
	return nil
}

// handleContinue executes all remaining steps. The engine halts itself on
// the first failing step unless that step allows continuing.
func (d *Debugger) handleContinue(ctx context.Context) error {
	for !d.engine.Done() {
		if err := d.handleNext(ctx); err != nil {
			return err
		}
	}
	if idx, total := d.engine.Position(); idx < total {
		fmt.Fprintf(d.output, "Halted on failure.\n")
		return nil
	}
	fmt.Fprintf(d.output, "All steps completed.\n")
	return nil
}

// handlePrint displays vars or responses.
func (d *Debugger) handlePrint(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(d.output, "Usage: print vars|responses\n")
		return
	}
	switch parts[1] {
	case "vars":
		vars := d.engine.Vars()
		if len(vars) == 0 {
			fmt.Fprintf(d.output, "No variables defined.\n")
			return
		}
		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(d.output, "  %s = %v\n", k, vars[k])
		}
	case "responses":
		responses := d.engine.Responses()
		if len(responses) == 0 {
			fmt.Fprintf(d.output, "No responses saved.\n")
			return
		}
		names := make([]string, 0, len(responses))
		for name := range responses {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r := responses[name]
			fmt.Fprintf(d.output, "  %s = %d %s (%d bytes, %dms)\n",
				name, r.Status, r.StatusText, len(r.Body), r.DurationMs)
		}
	default:
		fmt.Fprintf(d.output, "Unknown print target: %q. Use 'vars' or 'responses'.\n", parts[1])
	}
}

// handleHistory shows completed step results.
func (d *Debugger) handleHistory() {
	results := d.engine.Results()
	if len(results) == 0 {
		fmt.Fprintf(d.output, "No steps executed yet.\n")
		return
	}
	for _, r := range results {
		glyph := "✓"
		switch r.Status {
		case engine.StepFailed:
			glyph = "✗"
		case engine.StepSkipped:
			glyph = "⏭"
		case engine.StepHealed:
			glyph = "◆"
		}
		fmt.Fprintf(d.output, "  %s [%d] %s — %s\n", glyph, r.StepIndex, r.StepID, r.Status)
		if r.Error != nil {
			fmt.Fprintf(d.output, "       error: %s\n", r.Error.Message)
		}
	}
}

// handleHealing lists the healing events recorded so far.
func (d *Debugger) handleHealing() {
	events := d.engine.HealingEvents()
	if len(events) == 0 {
		fmt.Fprintf(d.output, "No healing events recorded.\n")
		return
	}
	for _, evt := range events {
		fmt.Fprintf(d.output, "  ◆ %s: %s=%s replaced %s=%s (confidence %.2f)\n",
			evt.StepID, evt.Healed.Type, evt.Healed.Value,
			evt.Original.Type, evt.Original.Value, evt.Confidence)
	}
}

// handleDump outputs the full run state as JSON.
func (d *Debugger) handleDump() {
	snap := struct {
		Run     *engine.TestRun      `json:"run"`
		Results []*engine.StepResult `json:"results"`
		Vars    map[string]any       `json:"vars,omitempty"`
		Healing []healing.Event      `json:"healing,omitempty"`
	}{d.engine.RunInfo(), d.engine.Results(), d.engine.Vars(), d.engine.HealingEvents()}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fmt.Fprintf(d.output, "  Error marshaling state: %v\n", err)
		return
	}
	fmt.Fprintln(d.output, string(data))
}

// handleHelp displays available commands.
func (d *Debugger) handleHelp() {
	fmt.Fprintln(d.output, "Available commands:")
	fmt.Fprintln(d.output, "  next (n)          Execute the next step")
	fmt.Fprintln(d.output, "  continue (c)      Execute all remaining steps")
	fmt.Fprintln(d.output, "  print vars        Show the current variable scope")
	fmt.Fprintln(d.output, "  print responses   Show saved API responses")
	fmt.Fprintln(d.output, "  history (h)       Show executed step results")
	fmt.Fprintln(d.output, "  healing           Show healing events recorded so far")
	fmt.Fprintln(d.output, "  dump              Output run state as JSON")
	fmt.Fprintln(d.output, "  help (?)          Show this help")
	fmt.Fprintln(d.output, "  quit (q)          Exit debugger")
}
