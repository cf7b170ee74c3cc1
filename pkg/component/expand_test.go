package component

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ormasoftchile/splint/pkg/schema"
)

func loginComponent() *schema.Component {
	return &schema.Component{
		APIVersion: "component/v1",
		ID:         "login",
		Name:       "Login",
		Parameters: []schema.ParameterDef{
			{Name: "username", Type: "string", Required: true},
			{Name: "password", Type: "string", Required: true},
			{Name: "submitLabel", Type: "string", Default: "Sign in"},
		},
		Steps: []schema.Step{
			{
				ID:   "fill-user",
				Type: schema.StepFill,
				Fill: &schema.FillConfig{
					Element: schema.ElementTarget{Ref: "username-input"},
					Value:   "{{username}}",
				},
			},
			{
				ID:   "fill-pass",
				Type: schema.StepFill,
				Fill: &schema.FillConfig{
					Element: schema.ElementTarget{Ref: "password-input"},
					Value:   "{{password}}",
				},
			},
			{
				ID:          "submit",
				Type:        schema.StepClick,
				Description: "click {{submitLabel}}",
				Click: &schema.ClickConfig{
					Element: schema.ElementTarget{Ref: "submit-button"},
				},
			},
		},
	}
}

func expander(components ...*schema.Component) *Expander {
	m := make(map[string]*schema.Component)
	for _, c := range components {
		m[c.ID] = c
	}
	return &Expander{Loader: &MemoryLoader{Components: m}}
}

func componentStep(id string, params map[string]any) schema.Step {
	return schema.Step{
		ID:        id,
		Type:      schema.StepComponent,
		Component: &schema.ComponentConfig{ID: "login", Params: params},
	}
}

func TestExpand_InlinesComponentSteps(t *testing.T) {
	e := expander(loginComponent())
	steps := []schema.Step{
		{ID: "open", Type: schema.StepNavigate, Navigate: &schema.NavigateConfig{URL: "/login"}},
		componentStep("do-login", map[string]any{"username": "alice", "password": "s3cret"}),
		{ID: "check", Type: schema.StepAssert},
	}

	out, err := e.Expand(context.Background(), steps, map[string]any{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expanded to %d steps, want 5", len(out))
	}
	if out[0].ID != "open" || out[4].ID != "check" {
		t.Errorf("surrounding steps disturbed: %v, %v", out[0].ID, out[4].ID)
	}
	if out[1].Fill.Value != "alice" {
		t.Errorf("username not bound: %q", out[1].Fill.Value)
	}
	if out[2].Fill.Value != "s3cret" {
		t.Errorf("password not bound: %q", out[2].Fill.Value)
	}
	if out[3].Description != "click Sign in" {
		t.Errorf("description = %q", out[3].Description)
	}
}

func TestExpand_FreshIdentities(t *testing.T) {
	e := expander(loginComponent())
	params := map[string]any{"username": "a", "password": "b"}
	steps := []schema.Step{
		componentStep("first", params),
		componentStep("second", params),
	}

	out, err := e.Expand(context.Background(), steps, map[string]any{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	seen := map[string]bool{}
	for _, s := range out {
		if seen[s.ID] {
			t.Errorf("duplicate expanded id %q", s.ID)
		}
		seen[s.ID] = true
		if s.ID == "fill-user" || s.ID == "fill-pass" || s.ID == "submit" {
			t.Errorf("component's own id %q reused", s.ID)
		}
	}
	if !strings.HasPrefix(out[0].ID, "fill-user-") {
		t.Errorf("expanded id %q should keep the declared prefix", out[0].ID)
	}
}

func TestExpand_CallerScopeInterpolation(t *testing.T) {
	e := expander(loginComponent())
	steps := []schema.Step{
		componentStep("login-as-admin", map[string]any{
			"username": "{{adminUser}}",
			"password": "{{adminPass}}",
		}),
	}
	scope := map[string]any{"adminUser": "root", "adminPass": "hunter2"}

	out, err := e.Expand(context.Background(), steps, scope)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if out[0].Fill.Value != "root" || out[1].Fill.Value != "hunter2" {
		t.Errorf("caller scope not applied: %q, %q", out[0].Fill.Value, out[1].Fill.Value)
	}
}

func TestExpand_BoundParamsShadowInheritedScope(t *testing.T) {
	e := expander(loginComponent())
	steps := []schema.Step{
		componentStep("login", map[string]any{"username": "fromParam", "password": "p"}),
	}
	// Inherited scope has a conflicting username.
	out, err := e.Expand(context.Background(), steps, map[string]any{"username": "fromScenario"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if out[0].Fill.Value != "fromParam" {
		t.Errorf("binding should shadow inherited variable, got %q", out[0].Fill.Value)
	}
}

func TestExpand_RequiredParameterMissing(t *testing.T) {
	e := expander(loginComponent())
	steps := []schema.Step{componentStep("login", map[string]any{"username": "alice"})}

	_, err := e.Expand(context.Background(), steps, map[string]any{})
	if err == nil {
		t.Fatal("expected required-parameter error")
	}
	if !strings.Contains(err.Error(), "password") || !strings.Contains(err.Error(), "login") {
		t.Errorf("error should name the parameter and the component: %v", err)
	}
}

func TestExpand_DefaultApplies(t *testing.T) {
	comp := loginComponent()
	e := expander(comp)
	steps := []schema.Step{
		componentStep("login", map[string]any{"username": "a", "password": "b"}),
	}
	out, err := e.Expand(context.Background(), steps, map[string]any{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if out[2].Description != "click Sign in" {
		t.Errorf("default not applied: %q", out[2].Description)
	}
}

func TestExpand_UnknownComponent(t *testing.T) {
	e := expander(loginComponent())
	steps := []schema.Step{{
		ID:        "bad",
		Type:      schema.StepComponent,
		Component: &schema.ComponentConfig{ID: "missing"},
	}}

	_, err := e.Expand(context.Background(), steps, map[string]any{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("error should name the id: %v", err)
	}
}

func TestExpand_NoLoader(t *testing.T) {
	e := &Expander{}
	steps := []schema.Step{componentStep("login", nil)}

	_, err := e.Expand(context.Background(), steps, map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "no component loader") {
		t.Fatalf("error = %v", err)
	}
}

func TestExpand_Nested(t *testing.T) {
	inner := &schema.Component{
		APIVersion: "component/v1",
		ID:         "type-and-check",
		Parameters: []schema.ParameterDef{{Name: "value", Type: "string", Required: true}},
		Steps: []schema.Step{
			{ID: "type", Type: schema.StepFill, Fill: &schema.FillConfig{
				Element: schema.ElementTarget{Ref: "field"}, Value: "{{value}}",
			}},
		},
	}
	outer := &schema.Component{
		APIVersion: "component/v1",
		ID:         "outer",
		Parameters: []schema.ParameterDef{{Name: "email", Type: "string", Required: true}},
		Steps: []schema.Step{
			{ID: "use-inner", Type: schema.StepComponent, Component: &schema.ComponentConfig{
				ID:     "type-and-check",
				Params: map[string]any{"value": "{{email}}"},
			}},
		},
	}
	e := expander(inner, outer)
	steps := []schema.Step{{
		ID:   "run-outer",
		Type: schema.StepComponent,
		Component: &schema.ComponentConfig{
			ID:     "outer",
			Params: map[string]any{"email": "a@b.c"},
		},
	}}

	out, err := e.Expand(context.Background(), steps, map[string]any{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expanded to %d steps, want 1", len(out))
	}
	if out[0].Fill.Value != "a@b.c" {
		t.Errorf("nested binding = %q", out[0].Fill.Value)
	}
}

func TestExpand_CycleHitsDepthCap(t *testing.T) {
	selfRef := &schema.Component{
		APIVersion: "component/v1",
		ID:         "loop",
		Steps: []schema.Step{
			{ID: "again", Type: schema.StepComponent, Component: &schema.ComponentConfig{ID: "loop"}},
		},
	}
	e := expander(selfRef)
	steps := []schema.Step{{
		ID:        "start",
		Type:      schema.StepComponent,
		Component: &schema.ComponentConfig{ID: "loop"},
	}}

	_, err := e.Expand(context.Background(), steps, map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "depth") {
		t.Fatalf("error = %v, want depth cap", err)
	}
}
