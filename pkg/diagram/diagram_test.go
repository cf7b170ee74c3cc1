package diagram

import (
	"strings"
	"testing"

	"github.com/ormasoftchile/splint/pkg/schema"
)

func TestGenerateMermaid_LinearFlow(t *testing.T) {
	sc := &schema.Scenario{
		Name: "linear-test",
		Steps: []schema.Step{
			{ID: "open-cart", Type: schema.StepNavigate, Navigate: &schema.NavigateConfig{URL: "/cart"}},
			{ID: "pay", Type: schema.StepClick, Click: &schema.ClickConfig{Element: schema.ElementTarget{Ref: "pay"}}},
		},
	}

	out, err := Generate(sc, FormatMermaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "flowchart TD") {
		t.Error("missing flowchart header")
	}
	if !strings.Contains(out, "START --> open_cart") {
		t.Errorf("missing start edge, got:\n%s", out)
	}
	if !strings.Contains(out, "open_cart --> pay") {
		t.Errorf("missing sequential edge, got:\n%s", out)
	}
	if !strings.Contains(out, "pay --> END") {
		t.Errorf("missing end edge, got:\n%s", out)
	}
}

func TestGenerateMermaid_WhenGuard(t *testing.T) {
	sc := &schema.Scenario{
		Name: "guard-test",
		Steps: []schema.Step{
			{ID: "login", Type: schema.StepNavigate, Navigate: &schema.NavigateConfig{URL: "/login"}},
			{ID: "accept-cookies", Type: schema.StepClick, When: "region == \"eu\"",
				Click: &schema.ClickConfig{Element: schema.ElementTarget{Ref: "consent"}}},
			{ID: "dashboard", Type: schema.StepNavigate, Navigate: &schema.NavigateConfig{URL: "/dashboard"}},
		},
	}

	out, err := Generate(sc, FormatMermaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "accept_cookies") {
		t.Error("missing guarded step node")
	}
	if !strings.Contains(out, `login -.->|"skip"| dashboard`) {
		t.Errorf("missing bypass edge, got:\n%s", out)
	}
	if !strings.Contains(out, "region ==") {
		t.Errorf("missing guard label, got:\n%s", out)
	}
}

func TestGenerateMermaid_APILane(t *testing.T) {
	sc := &schema.Scenario{
		Name: "api-test",
		Steps: []schema.Step{
			{ID: "create-order", Type: schema.StepAPIRequest,
				Request: &schema.RequestConfig{Method: "POST", URL: "/api/orders", SaveAs: "order"}},
			{ID: "check-order", Type: schema.StepAPIAssert,
				APIAssert: &schema.APIAssertConfig{Response: "order", Checks: []schema.APICheck{{Kind: "status", Expected: 201}}}},
		},
	}

	out, err := Generate(sc, FormatMermaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "POST /api/orders") {
		t.Errorf("missing request title, got:\n%s", out)
	}
	if !strings.Contains(out, "→ order") {
		t.Errorf("missing capture in diagram, got:\n%s", out)
	}
	if !strings.Contains(out, "style create_order fill:") {
		t.Error("missing API node style")
	}
}

func TestGenerateMermaid_ComponentShape(t *testing.T) {
	sc := &schema.Scenario{
		Name: "component-test",
		Steps: []schema.Step{
			{ID: "login", Type: schema.StepComponent,
				Component: &schema.ComponentConfig{ID: "login-flow"}},
		},
	}

	out, err := Generate(sc, FormatMermaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `login[["📎 component login-flow"]]`) {
		t.Errorf("missing subroutine shape, got:\n%s", out)
	}
}

func TestGenerateASCII(t *testing.T) {
	sc := &schema.Scenario{
		Name: "ASCII Test",
		Steps: []schema.Step{
			{ID: "s1", Type: schema.StepNavigate, Description: "Step One",
				Navigate: &schema.NavigateConfig{URL: "/one"}},
			{ID: "s2", Type: schema.StepClick, Description: "Step Two",
				Click: &schema.ClickConfig{Element: schema.ElementTarget{Ref: "two"}}},
		},
	}

	out, err := Generate(sc, FormatASCII)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "ASCII Test") {
		t.Error("missing scenario name")
	}
	if !strings.Contains(out, "🌐") {
		t.Error("missing navigate icon")
	}
	if !strings.Contains(out, "⚡") {
		t.Error("missing interaction icon")
	}
	if !strings.Contains(out, "✓ End") {
		t.Error("missing end marker")
	}
}

func TestGenerateASCII_GuardAndCapture(t *testing.T) {
	sc := &schema.Scenario{
		Name: "Guard ASCII",
		Steps: []schema.Step{
			{ID: "fetch", Type: schema.StepAPIRequest, When: "env == \"prod\"",
				Request: &schema.RequestConfig{Method: "GET", URL: "/health", SaveAs: "health"}},
		},
	}

	out, err := Generate(sc, FormatASCII)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "? env ==") {
		t.Errorf("missing guard line, got:\n%s", out)
	}
	if !strings.Contains(out, "→ health") {
		t.Errorf("missing capture line, got:\n%s", out)
	}
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	sc := &schema.Scenario{}
	_, err := Generate(sc, "svg")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGenerate_NilScenario(t *testing.T) {
	_, err := Generate(nil, FormatMermaid)
	if err == nil {
		t.Fatal("expected error for nil scenario")
	}
}

func TestCollectSteps_FallbackIDs(t *testing.T) {
	sc := &schema.Scenario{
		Steps: []schema.Step{
			{Type: schema.StepNavigate, Navigate: &schema.NavigateConfig{URL: "/a"}},
			{ID: "named", Type: schema.StepScreenshot, Screenshot: &schema.ScreenshotConfig{}},
		},
	}

	steps := collectSteps(sc)
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].id != "step_1" {
		t.Errorf("expected generated id step_1, got %s", steps[0].id)
	}
	if steps[1].id != "named" {
		t.Errorf("expected authored id, got %s", steps[1].id)
	}
}
