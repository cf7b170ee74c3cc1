package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "steps[0].click.element")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s at %s", e.Phase, e.Message, e.Path)
	}
	return fmt.Sprintf("[%s] %s", e.Phase, e.Message)
}

func errorf(phase, path, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Phase:    phase,
		Path:     path,
		Message:  fmt.Sprintf(msg, args...),
		Severity: "error",
	}
}

func warningf(phase, path, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Phase:    phase,
		Path:     path,
		Message:  fmt.Sprintf(msg, args...),
		Severity: "warning",
	}
}

// HasErrors reports whether any entry has error severity.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

// ValidateScenarioFile performs the full 3-phase validation pipeline on a
// scenario file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateScenarioFile(path string) (*Scenario, []*ValidationError) {
	sc, err := LoadScenarioFile(path)
	if err != nil {
		return nil, []*ValidationError{errorf("structural", "", "failed to load: %s", err)}
	}
	return sc, ValidateScenario(sc)
}

// ValidateScenario runs phases 2+3 on an already-loaded scenario.
func ValidateScenario(sc *Scenario) []*ValidationError {
	var errs []*ValidationError
	errs = append(errs, validateSemantic(sc)...)
	if HasErrors(errs) {
		return errs
	}
	errs = append(errs, validateDomain(sc)...)
	return errs
}

// ValidateComponentFile runs the pipeline on a component file.
func ValidateComponentFile(path string) (*Component, []*ValidationError) {
	c, err := LoadComponentFile(path)
	if err != nil {
		return nil, []*ValidationError{errorf("structural", "", "failed to load component: %s", err)}
	}
	return c, ValidateComponent(c)
}

// ValidateComponent checks a loaded component definition.
func ValidateComponent(c *Component) []*ValidationError {
	var errs []*ValidationError
	if c.APIVersion != "component/v1" {
		errs = append(errs, errorf("domain", "apiVersion", "unrecognized apiVersion %q, expected %q", c.APIVersion, "component/v1"))
	}
	if c.ID == "" {
		errs = append(errs, errorf("domain", "id", "component id is required"))
	}
	seen := make(map[string]bool)
	for i, p := range c.Parameters {
		path := fmt.Sprintf("parameters[%d]", i)
		if p.Name == "" {
			errs = append(errs, errorf("domain", path+".name", "parameter name is required"))
		}
		if seen[p.Name] {
			errs = append(errs, errorf("domain", path, "duplicate parameter %q", p.Name))
		}
		seen[p.Name] = true
		if p.Required && p.Default != nil {
			errs = append(errs, warningf("domain", path, "parameter %q is required but also declares a default; the default will never apply", p.Name))
		}
	}
	if len(c.Steps) == 0 {
		errs = append(errs, errorf("domain", "steps", "component must contain at least one step"))
	}
	for i := range c.Steps {
		errs = append(errs, validateStep(fmt.Sprintf("steps[%d]", i), &c.Steps[i], nil)...)
	}
	return errs
}

// validateSemantic validates the scenario against the generated JSON Schema.
func validateSemantic(sc *Scenario) []*ValidationError {
	data, err := json.Marshal(sc)
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "marshal for schema validation: %v", err)}
	}

	schemaJSON, err := GenerateScenarioJSONSchema()
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "generate schema: %v", err)}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{errorf("semantic", "", "unmarshal schema: %v", err)}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("scenario-v1.json", schemaDoc); err != nil {
		return []*ValidationError{errorf("semantic", "", "add schema resource: %v", err)}
	}
	sch, err := c.Compile("scenario-v1.json")
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "compile schema: %v", err)}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{errorf("semantic", "", "unmarshal document: %v", err)}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				instancePath := strings.Join(cause.InstanceLocation, "/")
				errs = append(errs, errorf("semantic", instancePath, "%v", cause.ErrorKind))
			}
		} else {
			errs = append(errs, errorf("semantic", "", "%s", err.Error()))
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
