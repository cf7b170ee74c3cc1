package schema

import (
	"fmt"
	"regexp"
	"time"
)

// validateDomain applies hand-coded rules that the JSON Schema cannot
// express: per-type config presence, element target form, strategy sets,
// and cross-step response references.
func validateDomain(sc *Scenario) []*ValidationError {
	var errs []*ValidationError

	if sc.APIVersion != "scenario/v1" {
		errs = append(errs, errorf("domain", "apiVersion", "unrecognized apiVersion %q, expected %q", sc.APIVersion, "scenario/v1"))
	}

	// Variable name uniqueness
	varSeen := make(map[string]int)
	for i, v := range sc.Variables {
		if v.Name == "" {
			errs = append(errs, errorf("domain", fmt.Sprintf("variables[%d].name", i), "variable name is required"))
			continue
		}
		if prev, ok := varSeen[v.Name]; ok {
			errs = append(errs, errorf("domain", fmt.Sprintf("variables[%d]", i), "duplicate variable %q (first at variables[%d])", v.Name, prev))
		}
		varSeen[v.Name] = i
	}

	// Elements registry
	for name, loc := range sc.Elements {
		path := fmt.Sprintf("elements[%s]", name)
		if loc == nil {
			errs = append(errs, errorf("domain", path, "element %q has no locator", name))
			continue
		}
		errs = append(errs, validateLocator(path, loc.Strategies, loc.Healing)...)
	}

	if sc.Defaults != nil && sc.Defaults.Timeout != "" {
		if _, err := time.ParseDuration(sc.Defaults.Timeout); err != nil {
			errs = append(errs, errorf("domain", "defaults.timeout", "invalid timeout %q: %v", sc.Defaults.Timeout, err))
		}
	}

	// Step ID uniqueness
	idSeen := make(map[string]int)
	for i, s := range sc.Steps {
		if s.ID == "" {
			continue
		}
		if prev, ok := idSeen[s.ID]; ok {
			errs = append(errs, errorf("domain", fmt.Sprintf("steps[%d].id", i), "duplicate step ID %q (first at steps[%d]); step IDs must be unique", s.ID, prev))
		}
		idSeen[s.ID] = i
	}

	// Per-step rules, tracking save_as names for api-assert references
	saved := make(map[string]bool)
	for i := range sc.Steps {
		s := &sc.Steps[i]
		path := fmt.Sprintf("steps[%d]", i)
		errs = append(errs, validateStep(path, s, sc)...)

		if s.Type == StepAPIAssert && s.APIAssert != nil && s.APIAssert.Response != "" {
			if !saved[s.APIAssert.Response] {
				errs = append(errs, warningf("domain", path+".api_assert.response",
					"step %q asserts on response %q which no earlier api-request step saves", s.ID, s.APIAssert.Response))
			}
		}
		if s.Type == StepAPIRequest && s.Request != nil && s.Request.SaveAs != "" {
			saved[s.Request.SaveAs] = true
		}
	}

	return errs
}

// stepConfigs maps each step to its populated config fields.
func stepConfigs(s *Step) map[StepType]bool {
	set := make(map[StepType]bool)
	if s.Navigate != nil {
		set[StepNavigate] = true
	}
	if s.Click != nil {
		set[StepClick] = true
	}
	if s.Fill != nil {
		set[StepFill] = true
	}
	if s.Select != nil {
		set[StepSelect] = true
	}
	if s.Hover != nil {
		set[StepHover] = true
	}
	if s.Wait != nil {
		set[StepWait] = true
	}
	if s.Assert != nil {
		set[StepAssert] = true
	}
	if s.Screenshot != nil {
		set[StepScreenshot] = true
	}
	if s.Request != nil {
		set[StepAPIRequest] = true
	}
	if s.APIAssert != nil {
		set[StepAPIAssert] = true
	}
	if s.Component != nil {
		set[StepComponent] = true
	}
	if s.Script != nil {
		set[StepScript] = true
	}
	return set
}

// validateStep checks one step's type/config pairing and its payload.
// sc may be nil when validating steps inside a component; element refs
// are then left for the consuming scenario to satisfy.
func validateStep(path string, s *Step, sc *Scenario) []*ValidationError {
	var errs []*ValidationError

	known := false
	for _, t := range StepTypes {
		if s.Type == t {
			known = true
			break
		}
	}
	if !known {
		errs = append(errs, errorf("domain", path+".type", "unknown step type %q", s.Type))
		return errs
	}

	configs := stepConfigs(s)
	if !configs[s.Type] {
		errs = append(errs, errorf("domain", path, "step %q of type %q is missing its %q configuration", s.ID, s.Type, configKey(s.Type)))
	}
	for t := range configs {
		if t != s.Type {
			errs = append(errs, errorf("domain", path, "step %q of type %q also carries a %q configuration", s.ID, s.Type, configKey(t)))
		}
	}

	if s.Timeout != "" {
		if _, err := time.ParseDuration(s.Timeout); err != nil {
			errs = append(errs, errorf("domain", path+".timeout", "invalid timeout %q: %v", s.Timeout, err))
		}
	}

	switch s.Type {
	case StepClick:
		if s.Click != nil {
			errs = append(errs, validateTarget(path+".click.element", &s.Click.Element, sc)...)
		}
	case StepFill:
		if s.Fill != nil {
			errs = append(errs, validateTarget(path+".fill.element", &s.Fill.Element, sc)...)
		}
	case StepSelect:
		if s.Select != nil {
			errs = append(errs, validateTarget(path+".select.element", &s.Select.Element, sc)...)
		}
	case StepHover:
		if s.Hover != nil {
			errs = append(errs, validateTarget(path+".hover.element", &s.Hover.Element, sc)...)
		}
	case StepWait:
		if s.Wait != nil {
			errs = append(errs, validateWait(path+".wait", s.Wait, sc)...)
		}
	case StepAssert:
		if s.Assert != nil {
			errs = append(errs, validateAssert(path+".assert", s.Assert, sc)...)
		}
	case StepAPIRequest:
		if s.Request != nil && s.Request.Timeout != "" {
			if _, err := time.ParseDuration(s.Request.Timeout); err != nil {
				errs = append(errs, errorf("domain", path+".request.timeout", "invalid timeout %q: %v", s.Request.Timeout, err))
			}
		}
	case StepAPIAssert:
		if s.APIAssert != nil {
			errs = append(errs, validateAPIAssert(path+".api_assert", s.APIAssert)...)
		}
	}

	return errs
}

func configKey(t StepType) string {
	switch t {
	case StepAPIRequest:
		return "request"
	case StepAPIAssert:
		return "api_assert"
	default:
		return string(t)
	}
}

// validateTarget enforces the ref-or-inline rule on an element target.
func validateTarget(path string, t *ElementTarget, sc *Scenario) []*ValidationError {
	var errs []*ValidationError

	hasRef := t.Ref != ""
	hasInline := len(t.Strategies) > 0

	switch {
	case hasRef && hasInline:
		errs = append(errs, errorf("domain", path, "element target has both 'ref' and inline strategies; use exactly one"))
	case !hasRef && !hasInline:
		errs = append(errs, errorf("domain", path, "element target requires either 'ref' or inline strategies"))
	case hasRef && sc != nil:
		if _, ok := sc.Element(t.Ref); !ok {
			errs = append(errs, errorf("domain", path+".ref", "element ref %q is not declared in 'elements'", t.Ref))
		}
	case hasInline:
		errs = append(errs, validateLocator(path, t.Strategies, t.Healing)...)
	}

	return errs
}

// validateLocator checks a strategy list and its healing policy.
func validateLocator(path string, strategies []LocatorStrategy, healing *HealingConfig) []*ValidationError {
	var errs []*ValidationError

	if len(strategies) == 0 {
		errs = append(errs, errorf("domain", path+".strategies", "at least one strategy is required"))
	}
	for i, st := range strategies {
		spath := fmt.Sprintf("%s.strategies[%d]", path, i)
		known := false
		for _, t := range StrategyTypes {
			if st.Type == t {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, errorf("domain", spath+".type", "unknown strategy type %q", st.Type))
		}
		if st.Value == "" {
			errs = append(errs, errorf("domain", spath+".value", "strategy value is required"))
		}
		if st.Type == StrategyAPIPath {
			errs = append(errs, warningf("domain", spath+".type", "api-path strategies describe healed response paths and cannot locate page elements"))
		}
		if st.Name != "" && st.Type != StrategyRole {
			errs = append(errs, warningf("domain", spath+".name", "accessible name is only honored by role strategies"))
		}
	}
	if healing != nil {
		if healing.ConfidenceThreshold < 0 || healing.ConfidenceThreshold > 1 {
			errs = append(errs, errorf("domain", path+".healing.confidence_threshold", "confidence threshold %v is outside [0,1]", healing.ConfidenceThreshold))
		}
	}

	return errs
}

func validateWait(path string, w *WaitConfig, sc *Scenario) []*ValidationError {
	var errs []*ValidationError

	forms := 0
	if w.Duration > 0 {
		forms++
	}
	if w.Element != nil {
		forms++
		errs = append(errs, validateTarget(path+".element", w.Element, sc)...)
		if w.State == "" {
			errs = append(errs, errorf("domain", path+".state", "element waits require 'state' (visible or hidden)"))
		}
	}
	if w.LoadState != "" {
		forms++
	}
	if forms == 0 {
		errs = append(errs, errorf("domain", path, "wait requires one of 'duration', 'element', or 'load_state'"))
	}
	if forms > 1 {
		errs = append(errs, errorf("domain", path, "wait accepts exactly one of 'duration', 'element', or 'load_state'"))
	}
	if w.State != "" && w.Element == nil {
		errs = append(errs, errorf("domain", path+".state", "'state' requires an 'element'"))
	}

	return errs
}

func validateAssert(path string, a *AssertConfig, sc *Scenario) []*ValidationError {
	var errs []*ValidationError

	errs = append(errs, validateTarget(path+".element", &a.Element, sc)...)

	switch a.Condition {
	case "visible", "hidden":
		if a.Expected != "" {
			errs = append(errs, warningf("domain", path+".expected", "'expected' is ignored for %s assertions", a.Condition))
		}
	case "text":
		if a.Expected == "" {
			errs = append(errs, errorf("domain", path+".expected", "text assertions require 'expected'"))
		}
		if a.Operator != "" && a.Operator != "equals" && a.Operator != "contains" {
			errs = append(errs, errorf("domain", path+".operator", "invalid operator %q: must be equals or contains", a.Operator))
		}
	case "":
		errs = append(errs, errorf("domain", path+".condition", "assert condition is required"))
	default:
		errs = append(errs, errorf("domain", path+".condition", "invalid condition %q: must be visible, hidden, or text", a.Condition))
	}

	return errs
}

func validateAPIAssert(path string, a *APIAssertConfig) []*ValidationError {
	var errs []*ValidationError

	if a.Response == "" {
		errs = append(errs, errorf("domain", path+".response", "api-assert requires the name of a saved response"))
	}
	if len(a.Checks) == 0 {
		errs = append(errs, errorf("domain", path+".checks", "at least one check is required"))
	}
	for i, c := range a.Checks {
		cpath := fmt.Sprintf("%s.checks[%d]", path, i)
		switch c.Kind {
		case "status":
			// status compares the code; no extra fields needed
		case "header":
			if c.Header == "" {
				errs = append(errs, errorf("domain", cpath+".header", "header checks require 'header'"))
			}
		case "body":
			if c.Path == "" {
				errs = append(errs, errorf("domain", cpath+".path", "body checks require 'path'"))
			}
		default:
			errs = append(errs, errorf("domain", cpath+".kind", "invalid check kind %q: must be status, header, or body", c.Kind))
		}

		switch c.Operator {
		case "", "equals", "contains", "matches", "exists", "type":
		default:
			errs = append(errs, errorf("domain", cpath+".operator", "invalid operator %q", c.Operator))
		}
		if c.Operator == "matches" {
			if pattern, ok := c.Expected.(string); ok {
				if _, err := regexp.Compile(pattern); err != nil {
					errs = append(errs, errorf("domain", cpath+".expected", "invalid regex in 'matches' check: %v", err))
				}
			} else {
				errs = append(errs, errorf("domain", cpath+".expected", "'matches' checks require a string pattern"))
			}
		}
		if c.MinConfidence < 0 || c.MinConfidence > 1 {
			errs = append(errs, errorf("domain", cpath+".min_confidence", "min_confidence %v is outside [0,1]", c.MinConfidence))
		}
	}

	return errs
}
