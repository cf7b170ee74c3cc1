package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/splint/pkg/component"
	"github.com/ormasoftchile/splint/pkg/debugger"
	"github.com/ormasoftchile/splint/pkg/driver"
	"github.com/ormasoftchile/splint/pkg/engine"
	"github.com/ormasoftchile/splint/pkg/schema"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	loadDotEnv() // load .env file if present (gitignored)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDotEnv reads a .env file from the working directory and sets
// any variables that aren't already set in the environment.
// Lines are KEY=VALUE (or KEY="VALUE"). Comments (#) and blanks are skipped.
// The .env file is gitignored so credentials never end up in source control.
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return // no .env file — that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		// Remove surrounding quotes
		val = strings.Trim(val, `"'`)
		// Don't overwrite existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "splint",
	Short: "Self-healing scenario test runner",
	Long:  "splint — declarative browser and API test scenarios with self-healing locators, healing review, and a JSONL trace of every run.",
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [scenario.yaml]",
	Short: "Validate a scenario or component YAML file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	if isComponentPath(filePath) {
		comp, errs := schema.ValidateComponentFile(filePath)
		printValidationWarnings(errs)
		if schema.HasErrors(errs) {
			printValidationErrors(errs)
			return fmt.Errorf("validation failed with %d error(s)", countValidationErrors(errs))
		}
		fmt.Printf("✓ component %s is valid (%d steps)\n", comp.ID, len(comp.Steps))
		return nil
	}

	sc, errs := schema.ValidateScenarioFile(filePath)
	printValidationWarnings(errs)
	if schema.HasErrors(errs) {
		printValidationErrors(errs)
		return fmt.Errorf("validation failed with %d error(s)", countValidationErrors(errs))
	}
	fmt.Printf("✓ %s is valid (%d steps)\n", sc.Name, len(sc.Steps))
	return nil
}

// --- debug ---

var (
	debugDriver   string
	debugBaseURL  string
	debugVars     []string
	debugHeadless bool
)

var debugCmd = &cobra.Command{
	Use:   "debug [scenario.yaml]",
	Short: "Step through a scenario in an interactive REPL",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebug,
}

func runDebug(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	sc, errs := schema.ValidateScenarioFile(filePath)
	printValidationWarnings(errs)
	if schema.HasErrors(errs) {
		printValidationErrors(errs)
		return fmt.Errorf("scenario validation failed")
	}

	vars, err := parseVars(debugVars)
	if err != nil {
		return err
	}
	drv, err := buildDriver(debugDriver, debugHeadless)
	if err != nil {
		return err
	}

	d := debugger.New(sc, engine.Config{
		BaseURL: debugBaseURL,
		Vars:    vars,
		Driver:  drv,
		Loader:  &component.FileLoader{Dir: filepath.Dir(filePath)},
	})
	return d.Run(context.Background())
}

// --- schema export ---

var schemaExportType string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export JSON Schema to stdout",
	RunE:  runSchemaExport,
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	switch schemaExportType {
	case "scenario":
		data, err = schema.GenerateScenarioJSONSchema()
	case "component":
		data, err = schema.GenerateComponentJSONSchema()
	default:
		return fmt.Errorf("unknown --type %q: use 'scenario' or 'component'", schemaExportType)
	}
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	// Pretty-print the JSON
	var out json.RawMessage = data
	formatted, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		// fallback to raw
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(string(formatted))
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("splint %s (build: %s)\n", version, commit)
	},
}

func init() {
	// debug flags
	debugCmd.Flags().StringVar(&debugDriver, "driver", "chrome", "Browser driver: chrome or dry-run")
	debugCmd.Flags().StringVar(&debugBaseURL, "base-url", "", "Base URL for relative navigation and API paths")
	debugCmd.Flags().StringArrayVar(&debugVars, "var", nil, "Set a variable (key=value), repeatable")
	debugCmd.Flags().BoolVar(&debugHeadless, "headless", true, "Run Chrome headless")

	// schema subcommands
	schemaExportCmd.Flags().StringVar(&schemaExportType, "type", "scenario", "Schema to export: scenario or component")
	schemaCmd.AddCommand(schemaExportCmd)

	// root subcommands
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}

// --- helpers ---

// isComponentPath reports whether the file name follows the component
// naming convention (login.component.yaml).
func isComponentPath(path string) bool {
	return strings.Contains(filepath.Base(path), ".component.")
}

// parseVars turns repeated --var key=value flags into a variable map.
func parseVars(flags []string) (map[string]any, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	vars := make(map[string]any, len(flags))
	for _, v := range flags {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", v)
		}
		vars[parts[0]] = parts[1]
	}
	return vars, nil
}

// buildDriver maps a --driver flag value onto a session factory.
func buildDriver(name string, headless bool) (driver.Driver, error) {
	switch name {
	case "chrome":
		return driver.NewChrome(driver.ChromeOptions{Headless: headless}), nil
	case "dry-run":
		return driver.NewDryRun(), nil
	default:
		return nil, fmt.Errorf("unknown driver %q: use chrome or dry-run", name)
	}
}

// countValidationErrors counts non-warning errors.
func countValidationErrors(errs []*schema.ValidationError) int {
	n := 0
	for _, e := range errs {
		if e.Severity != "warning" {
			n++
		}
	}
	return n
}

// printValidationErrors writes the numbered error list to stderr.
func printValidationErrors(errs []*schema.ValidationError) {
	fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", countValidationErrors(errs))
	i := 0
	for _, e := range errs {
		if e.Severity == "warning" {
			continue
		}
		i++
		fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i, e.Phase, e.Message)
		if e.Path != "" {
			fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
		}
	}
}

// printValidationWarnings prints any warnings to stderr.
func printValidationWarnings(errs []*schema.ValidationError) {
	for _, e := range errs {
		if e.Severity == "warning" {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "    at: %s\n", e.Path)
			}
		}
	}
}
