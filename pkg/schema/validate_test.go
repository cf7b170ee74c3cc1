package schema

import (
	"strings"
	"testing"
)

func loadValid(t *testing.T) *Scenario {
	t.Helper()
	sc, err := LoadScenario(strings.NewReader(validScenario))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	return sc
}

func TestValidateScenarioPasses(t *testing.T) {
	sc := loadValid(t)
	errs := ValidateScenario(sc)
	for _, e := range errs {
		if e.Severity == "error" {
			t.Errorf("unexpected error: %v", e)
		}
	}
}

func TestValidateRejectsWrongAPIVersion(t *testing.T) {
	sc := loadValid(t)
	sc.APIVersion = "scenario/v9"
	errs := ValidateScenario(sc)
	if !HasErrors(errs) {
		t.Fatal("expected errors for bad apiVersion")
	}
}

func TestValidateDuplicateStepIDs(t *testing.T) {
	sc := loadValid(t)
	sc.Steps[1].ID = sc.Steps[0].ID
	errs := ValidateScenario(sc)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "duplicate step ID") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate step ID error, got %v", errs)
	}
}

func TestValidateConfigTypeMismatch(t *testing.T) {
	sc := loadValid(t)

	// click step missing its config
	sc.Steps[2].Click = nil
	errs := ValidateScenario(sc)
	if !HasErrors(errs) {
		t.Fatal("expected error for missing click config")
	}

	// navigate step carrying a foreign config
	sc = loadValid(t)
	sc.Steps[0].Script = &ScriptConfig{Expression: "1"}
	errs = ValidateScenario(sc)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "also carries") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected foreign config error, got %v", errs)
	}
}

func TestValidateElementTargetForms(t *testing.T) {
	sc := loadValid(t)

	// both ref and inline
	sc.Steps[2].Click.Element.Strategies = []LocatorStrategy{{Type: StrategyCSS, Value: "a", Priority: 1}}
	errs := ValidateScenario(sc)
	if !HasErrors(errs) {
		t.Error("expected error for ref+inline target")
	}

	// neither
	sc = loadValid(t)
	sc.Steps[2].Click.Element = ElementTarget{}
	errs = ValidateScenario(sc)
	if !HasErrors(errs) {
		t.Error("expected error for empty target")
	}

	// unknown ref
	sc = loadValid(t)
	sc.Steps[2].Click.Element.Ref = "missing"
	errs = ValidateScenario(sc)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, `element ref "missing"`) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unknown ref error, got %v", errs)
	}
}

func TestValidateStrategyRules(t *testing.T) {
	sc := loadValid(t)
	sc.Elements["submit-button"].Strategies[0].Type = "qa-hook"
	errs := ValidateScenario(sc)
	if !HasErrors(errs) {
		t.Error("expected error for unknown strategy type")
	}

	sc = loadValid(t)
	sc.Elements["submit-button"].Strategies[0].Value = ""
	errs = ValidateScenario(sc)
	if !HasErrors(errs) {
		t.Error("expected error for empty strategy value")
	}

	sc = loadValid(t)
	sc.Elements["submit-button"].Healing = &HealingConfig{ConfidenceThreshold: 1.5}
	errs = ValidateScenario(sc)
	if !HasErrors(errs) {
		t.Error("expected error for threshold outside [0,1]")
	}
}

func TestValidateWaitForms(t *testing.T) {
	cases := []struct {
		name    string
		wait    WaitConfig
		wantErr bool
	}{
		{"duration", WaitConfig{Duration: 500}, false},
		{"load state", WaitConfig{LoadState: "load"}, false},
		{"element with state", WaitConfig{
			Element: &ElementTarget{Strategies: []LocatorStrategy{{Type: StrategyCSS, Value: ".x", Priority: 1}}},
			State:   "visible",
		}, false},
		{"empty", WaitConfig{}, true},
		{"two forms", WaitConfig{Duration: 100, LoadState: "load"}, true},
		{"element without state", WaitConfig{
			Element: &ElementTarget{Strategies: []LocatorStrategy{{Type: StrategyCSS, Value: ".x", Priority: 1}}},
		}, true},
		{"state without element", WaitConfig{Duration: 100, State: "visible"}, true},
	}

	for _, tc := range cases {
		sc := loadValid(t)
		w := tc.wait
		sc.Steps = append(sc.Steps, Step{ID: "w", Type: StepWait, Wait: &w})
		errs := ValidateScenario(sc)
		if got := HasErrors(errs); got != tc.wantErr {
			t.Errorf("%s: HasErrors = %v, want %v (%v)", tc.name, got, tc.wantErr, errs)
		}
	}
}

func TestValidateAPIAssertChecks(t *testing.T) {
	mk := func(c APICheck) *Scenario {
		sc := loadValid(t)
		sc.Steps = append(sc.Steps,
			Step{ID: "req", Type: StepAPIRequest, Request: &RequestConfig{Method: "GET", URL: "/api", SaveAs: "resp"}},
			Step{ID: "chk", Type: StepAPIAssert, APIAssert: &APIAssertConfig{Response: "resp", Checks: []APICheck{c}}},
		)
		return sc
	}

	ok := mk(APICheck{Kind: "status", Operator: "equals", Expected: 200})
	if HasErrors(ValidateScenario(ok)) {
		t.Error("status check should validate")
	}

	badKind := mk(APICheck{Kind: "cookie"})
	if !HasErrors(ValidateScenario(badKind)) {
		t.Error("expected error for unknown check kind")
	}

	noHeader := mk(APICheck{Kind: "header", Operator: "equals", Expected: "x"})
	if !HasErrors(ValidateScenario(noHeader)) {
		t.Error("expected error for header check without header name")
	}

	noPath := mk(APICheck{Kind: "body", Operator: "exists"})
	if !HasErrors(ValidateScenario(noPath)) {
		t.Error("expected error for body check without path")
	}

	badRegex := mk(APICheck{Kind: "body", Path: "a.b", Operator: "matches", Expected: "[unclosed"})
	if !HasErrors(ValidateScenario(badRegex)) {
		t.Error("expected error for invalid matches regex")
	}

	badConf := mk(APICheck{Kind: "body", Path: "a.b", Operator: "exists", MinConfidence: 2})
	if !HasErrors(ValidateScenario(badConf)) {
		t.Error("expected error for min_confidence outside [0,1]")
	}
}

func TestValidateWarnsOnUnsavedResponse(t *testing.T) {
	sc := loadValid(t)
	sc.Steps = append(sc.Steps, Step{
		ID:        "chk",
		Type:      StepAPIAssert,
		APIAssert: &APIAssertConfig{Response: "never-saved", Checks: []APICheck{{Kind: "status", Expected: 200}}},
	})
	errs := ValidateScenario(sc)
	if HasErrors(errs) {
		t.Fatalf("unsaved response should be a warning, got errors: %v", errs)
	}
	found := false
	for _, e := range errs {
		if e.Severity == "warning" && strings.Contains(e.Message, "never-saved") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unsaved-response warning, got %v", errs)
	}
}

func TestValidateComponent(t *testing.T) {
	c := &Component{
		APIVersion: "component/v1",
		ID:         "login",
		Parameters: []ParameterDef{{Name: "user", Required: true}},
		Steps: []Step{{
			ID:   "s1",
			Type: StepFill,
			Fill: &FillConfig{
				Element: ElementTarget{Strategies: []LocatorStrategy{{Type: StrategyTestID, Value: "u", Priority: 1}}},
				Value:   "{{user}}",
			},
		}},
	}
	if errs := ValidateComponent(c); HasErrors(errs) {
		t.Errorf("valid component rejected: %v", errs)
	}

	dup := *c
	dup.Parameters = []ParameterDef{{Name: "user"}, {Name: "user"}}
	if errs := ValidateComponent(&dup); !HasErrors(errs) {
		t.Error("expected error for duplicate parameter")
	}

	noID := *c
	noID.ID = ""
	if errs := ValidateComponent(&noID); !HasErrors(errs) {
		t.Error("expected error for missing component id")
	}
}
