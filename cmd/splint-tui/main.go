// Package main provides the splint-tui binary — Bubble Tea live run view.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ormasoftchile/splint/pkg/component"
	"github.com/ormasoftchile/splint/pkg/driver"
	"github.com/ormasoftchile/splint/pkg/engine"
	"github.com/ormasoftchile/splint/pkg/schema"
	"github.com/ormasoftchile/splint/pkg/tui"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: splint-tui <scenario.yaml> [--driver chrome|dry-run] [--base-url url] [--trace file.jsonl] [--var key=value] [--compact] [--headed]")
		os.Exit(1)
	}

	filePath := os.Args[1]
	driverName := "chrome"
	baseURL := ""
	tracePath := ""
	compact := false
	headless := true
	vars := make(map[string]any)

	// Parse flags
	for i := 2; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch {
		case arg == "--driver" && i+1 < len(os.Args):
			i++
			driverName = os.Args[i]
		case arg == "--base-url" && i+1 < len(os.Args):
			i++
			baseURL = os.Args[i]
		case arg == "--trace" && i+1 < len(os.Args):
			i++
			tracePath = os.Args[i]
		case arg == "--compact":
			compact = true
		case arg == "--headed":
			headless = false
		case strings.HasPrefix(arg, "--var") && i+1 < len(os.Args):
			i++
			parts := strings.SplitN(os.Args[i], "=", 2)
			if len(parts) == 2 {
				vars[parts[0]] = parts[1]
			}
		}
	}

	// Validate and load scenario
	sc, errs := schema.ValidateScenarioFile(filePath)
	if schema.HasErrors(errs) {
		for _, e := range errs {
			if e.Severity != "warning" {
				fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Phase, e.Message)
			}
		}
		fmt.Fprintln(os.Stderr, "Validation failed")
		os.Exit(1)
	}

	var drv driver.Driver
	switch driverName {
	case "chrome":
		drv = driver.NewChrome(driver.ChromeOptions{Headless: headless})
	case "dry-run":
		drv = driver.NewDryRun()
	default:
		fmt.Fprintf(os.Stderr, "Unknown driver %q: use chrome or dry-run\n", driverName)
		os.Exit(1)
	}

	result, err := tui.Run(tui.RunConfig{
		Scenario: sc,
		Engine: engine.Config{
			BaseURL: baseURL,
			Vars:    vars,
			Driver:  drv,
			Loader:  &component.FileLoader{Dir: filepath.Dir(filePath)},
		},
		TracePath:  tracePath,
		DriverName: driverName,
		Compact:    compact,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if result.Failed() {
		os.Exit(1)
	}
}
