//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/splint/pkg/schema"
)

func main() {
	if err := os.MkdirAll("schemas", 0755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	data, err := schema.GenerateScenarioJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/scenario-v1.json", data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/scenario-v1.json")

	compData, err := schema.GenerateComponentJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating component schema: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/component-v1.json", compData, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/component-v1.json")
}
