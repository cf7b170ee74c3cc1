package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateScenarioJSONSchema produces a JSON Schema Draft 2020-12 document
// from the Go Scenario struct using invopop/jsonschema.
func GenerateScenarioJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Scenario{})
	s.ID = "https://github.com/ormasoftchile/splint/schemas/scenario-v1.json"
	s.Title = "Self-Healing Test Scenario v1"
	s.Description = "Schema for splint scenario YAML documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scenario schema: %w", err)
	}
	return data, nil
}

// GenerateComponentJSONSchema produces a JSON Schema Draft 2020-12 document
// from the Go Component struct using invopop/jsonschema.
func GenerateComponentJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Component{})
	s.ID = "https://github.com/ormasoftchile/splint/schemas/component-v1.json"
	s.Title = "Reusable Step Component v1"
	s.Description = "Schema for splint component YAML documents (.component.yaml)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal component schema: %w", err)
	}
	return data, nil
}
