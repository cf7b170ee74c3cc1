package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadScenarioFile reads and structurally decodes a scenario YAML.
// Unknown fields are a structural error.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return LoadScenario(f)
}

// LoadScenario reads a scenario from a reader.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // strict: reject unknown fields
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("structural decode: %w", err)
	}
	return &sc, nil
}

// LoadComponentFile reads and structurally decodes a component YAML.
func LoadComponentFile(path string) (*Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open component: %w", err)
	}
	defer f.Close()
	return LoadComponent(f)
}

// LoadComponent reads a component from a reader.
func LoadComponent(r io.Reader) (*Component, error) {
	var c Component
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("structural decode: %w", err)
	}
	return &c, nil
}
