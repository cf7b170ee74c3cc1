package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/splint/pkg/component"
	"github.com/ormasoftchile/splint/pkg/engine"
	"github.com/ormasoftchile/splint/pkg/schema"
	"github.com/ormasoftchile/splint/pkg/trace"
)

// --- run ---

var (
	runDriver        string
	runBaseURL       string
	runVars          []string
	runTrace         string
	runTimeout       string
	runScreenshotDir string
	runHeadless      bool
)

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml]",
	Short: "Execute a scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	sc, errs := schema.ValidateScenarioFile(filePath)
	printValidationWarnings(errs)
	if schema.HasErrors(errs) {
		printValidationErrors(errs)
		return fmt.Errorf("scenario validation failed")
	}

	vars, err := parseVars(runVars)
	if err != nil {
		return err
	}
	drv, err := buildDriver(runDriver, runHeadless)
	if err != nil {
		return err
	}

	cfg := engine.Config{
		RunID:         engine.GenerateRunID(),
		BaseURL:       runBaseURL,
		Vars:          vars,
		Driver:        drv,
		Loader:        &component.FileLoader{Dir: filepath.Dir(filePath)},
		ScreenshotDir: runScreenshotDir,
	}
	if runTimeout != "" {
		d, err := time.ParseDuration(runTimeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", runTimeout, err)
		}
		cfg.DefaultTimeout = d
	}

	// Progress lines come off the same stream the trace file gets: the
	// engine writes JSONL into the channel writer, the loop below decodes
	// it back into events.
	cw := trace.NewChannelWriter(64)
	var sink io.Writer = cw
	if runTrace != "" {
		f, err := os.OpenFile(runTrace, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		defer f.Close()
		sink = io.MultiWriter(f, cw)
	}
	cfg.Sink = trace.NewWriter(sink, cfg.RunID)

	fmt.Printf("Run ID:   %s\n", cfg.RunID)
	fmt.Printf("Scenario: %s\n", sc.Name)
	fmt.Printf("Driver:   %s\n", runDriver)
	if runTrace != "" {
		fmt.Printf("Trace:    %s\n", runTrace)
	}
	fmt.Println()

	eng := engine.New(sc, cfg)
	resultCh := make(chan *engine.ExecutionResult, 1)
	go func() {
		res := eng.Run(context.Background())
		cw.Close()
		resultCh <- res
	}()

	for evt := range cw.Events() {
		printTraceEvent(evt)
	}
	result := <-resultCh

	printRunSummary(result)
	if result.Failed() {
		os.Exit(1)
	}
	return nil
}

// printTraceEvent renders one step line per completion event. Healing
// detail follows the step's line because the engine emits step_healed
// after step_complete.
func printTraceEvent(evt trace.Event) {
	switch evt.Type {
	case trace.EventStepComplete:
		id, _ := evt.Data["step_id"].(string)
		status, _ := evt.Data["status"].(string)
		dur, _ := evt.Data["duration"].(string)
		switch status {
		case engine.StepPassed:
			fmt.Printf("  ✓ %s (%s)\n", id, dur)
		case engine.StepHealed:
			fmt.Printf("  ◆ %s (%s)\n", id, dur)
		case engine.StepSkipped:
			fmt.Printf("  ⏭ %s\n", id)
		default:
			fmt.Printf("  ✗ %s (%s)\n", id, dur)
			if f, ok := evt.Data["failure"].(map[string]any); ok {
				fmt.Printf("      %v: %v\n", f["kind"], f["message"])
			}
		}
	case trace.EventStepHealed:
		conf, _ := evt.Data["confidence"].(float64)
		fmt.Printf("      healed: %s replaced %s (confidence %.2f)\n",
			strategyText(evt.Data["healed_strategy"]),
			strategyText(evt.Data["original_strategy"]), conf)
	}
}

// strategyText formats the loosely typed strategy payload of a decoded
// trace event as type=value.
func strategyText(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%v=%v", m["type"], m["value"])
}

func printRunSummary(result *engine.ExecutionResult) {
	if result.Run == nil {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "Run error: %v\n", result.Error)
		}
		return
	}
	glyph := "✓"
	if result.Failed() {
		glyph = "✗"
	}
	s := result.Run.Summary
	fmt.Printf("\n%s %s: %d steps, %d passed, %d failed, %d skipped, %d healed (%s)\n",
		glyph, result.Run.Status, s.Total, s.Passed, s.Failed, s.Skipped, s.Healed,
		result.Run.Duration().Truncate(time.Millisecond))
	if result.Error != nil {
		fmt.Fprintf(os.Stderr, "  %v\n", result.Error)
	}
	if n := len(result.HealingEvents); n > 0 && runTrace != "" {
		fmt.Printf("  %d healing event(s) recorded. Review with: splint review %s\n", n, runTrace)
	}
}

func init() {
	runCmd.Flags().StringVar(&runDriver, "driver", "chrome", "Browser driver: chrome or dry-run")
	runCmd.Flags().StringVar(&runBaseURL, "base-url", "", "Base URL for relative navigation and API paths")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "Set a variable (key=value), repeatable")
	runCmd.Flags().StringVar(&runTrace, "trace", "", "Write the JSONL trace stream to this file")
	runCmd.Flags().StringVar(&runTimeout, "timeout", "", "Default per-step timeout (e.g. 30s)")
	runCmd.Flags().StringVar(&runScreenshotDir, "screenshot-dir", "", "Directory for screenshots (default: screenshots)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", true, "Run Chrome headless")
	rootCmd.AddCommand(runCmd)
}
