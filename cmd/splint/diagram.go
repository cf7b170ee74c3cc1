package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/splint/pkg/diagram"
	"github.com/ormasoftchile/splint/pkg/schema"
)

// --- diagram ---

var (
	diagramFormat string
	diagramOut    string
)

var diagramCmd = &cobra.Command{
	Use:   "diagram [scenario.yaml]",
	Short: "Generate a flow diagram for a scenario",
	Long: `Render a scenario's step flow as a Mermaid flowchart or an ASCII
drawing. When guards show up as conditional edges, saved responses as
capture annotations.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagram,
}

func runDiagram(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	sc, errs := schema.ValidateScenarioFile(filePath)
	printValidationWarnings(errs)
	if schema.HasErrors(errs) {
		printValidationErrors(errs)
		return fmt.Errorf("scenario validation failed")
	}

	out, err := diagram.Generate(sc, diagram.Format(diagramFormat))
	if err != nil {
		return err
	}

	if diagramOut != "" {
		if err := os.WriteFile(diagramOut, []byte(out), 0644); err != nil {
			return fmt.Errorf("write diagram: %w", err)
		}
		fmt.Printf("✓ Diagram written: %s\n", diagramOut)
		return nil
	}
	fmt.Print(out)
	return nil
}

func init() {
	diagramCmd.Flags().StringVar(&diagramFormat, "format", "mermaid", "Diagram format: mermaid or ascii")
	diagramCmd.Flags().StringVar(&diagramOut, "out", "", "Write the diagram to this file")
	rootCmd.AddCommand(diagramCmd)
}
