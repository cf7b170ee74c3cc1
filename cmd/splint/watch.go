package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/splint/pkg/component"
	"github.com/ormasoftchile/splint/pkg/engine"
	"github.com/ormasoftchile/splint/pkg/schema"
	"github.com/ormasoftchile/splint/pkg/trace"
)

// --- watch ---

var (
	watchInterval string
	watchStopOn   string
	watchVars     []string
	watchDriver   string
	watchBaseURL  string
	watchHeadless bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [scenario.yaml]",
	Short: "Run a scenario repeatedly at an interval",
	Long: `Execute a scenario in a loop, one trace file per run, printing a
one-line summary for each. Useful as a lightweight synthetic monitor.

--stop-on takes run statuses (passed, failed) plus the pseudo-status
healed, which stops the loop as soon as any step healed.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	interval, err := time.ParseDuration(watchInterval)
	if err != nil {
		return fmt.Errorf("invalid --interval: %w", err)
	}

	stopStatuses := parseStopStatuses(watchStopOn)

	vars, err := parseVars(watchVars)
	if err != nil {
		return err
	}

	// Validate once upfront
	sc, errs := schema.ValidateScenarioFile(filePath)
	if schema.HasErrors(errs) {
		printValidationErrors(errs)
		return fmt.Errorf("scenario validation failed")
	}

	drv, err := buildDriver(watchDriver, watchHeadless)
	if err != nil {
		return err
	}

	ctx := context.Background()
	run := 0

	for {
		run++
		runID := fmt.Sprintf("watch-%d", run)
		ts := time.Now().Format("15:04:05")
		tracePath := fmt.Sprintf("traces/watch-%s-%03d.jsonl", time.Now().Format("20060102"), run)

		// Trace file is optional for watch; keep running without one.
		var tw *trace.Writer
		if err := os.MkdirAll("traces", 0o755); err == nil {
			tw, _ = trace.NewFileWriter(tracePath, runID)
		}

		cfg := engine.Config{
			RunID:   runID,
			BaseURL: watchBaseURL,
			Vars:    vars,
			Driver:  drv,
			Loader:  &component.FileLoader{Dir: filepath.Dir(filePath)},
			Sink:    tw,
		}

		eng := engine.New(sc, cfg)
		result := eng.Run(ctx)

		status := "error"
		healed := 0
		var duration time.Duration
		if result.Run != nil {
			status = result.Run.Status
			healed = result.Run.Summary.Healed
			duration = result.Run.Duration()
		}
		line := fmt.Sprintf("%s  %s %s   %s", ts, statusIcon(status), status, duration.Truncate(time.Millisecond))
		if healed > 0 {
			line += fmt.Sprintf("   (%d healed)", healed)
		}
		fmt.Println(line)

		if result.Error != nil {
			fmt.Printf("  Watch stopped: run error: %v\n", result.Error)
			return result.Error
		}
		if stopStatuses[status] {
			fmt.Printf("  Watch stopped: status %q matched --stop-on\n", status)
			return nil
		}
		if healed > 0 && stopStatuses["healed"] {
			fmt.Printf("  Watch stopped: %d step(s) healed\n", healed)
			return nil
		}

		time.Sleep(interval)
	}
}

func parseStopStatuses(s string) map[string]bool {
	out := make(map[string]bool)
	if s == "" {
		return out
	}
	for _, status := range strings.Split(s, ",") {
		if status = strings.TrimSpace(status); status != "" {
			out[status] = true
		}
	}
	return out
}

func statusIcon(status string) string {
	switch status {
	case engine.RunPassed:
		return "✓"
	case engine.RunFailed:
		return "✗"
	default:
		return "!"
	}
}

func init() {
	watchCmd.Flags().StringVar(&watchInterval, "interval", "5m", "Time between runs (e.g., 5m, 30s)")
	watchCmd.Flags().StringVar(&watchStopOn, "stop-on", "", "Comma-separated run statuses that stop the loop (passed, failed, healed)")
	watchCmd.Flags().StringArrayVar(&watchVars, "var", nil, "Set a variable (key=value), repeatable")
	watchCmd.Flags().StringVar(&watchDriver, "driver", "chrome", "Browser driver: chrome or dry-run")
	watchCmd.Flags().StringVar(&watchBaseURL, "base-url", "", "Base URL for relative navigation and API paths")
	watchCmd.Flags().BoolVar(&watchHeadless, "headless", true, "Run Chrome headless")
	rootCmd.AddCommand(watchCmd)
}
