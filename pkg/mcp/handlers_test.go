package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/splint/pkg/healing"
	"github.com/ormasoftchile/splint/pkg/schema"
)

const validScenario = `apiVersion: scenario/v1
id: login-smoke
name: Login smoke test
variables:
  - name: username
    default: admin
elements:
  submit:
    strategies:
      - type: testId
        value: submit
        priority: 1
      - type: css
        value: "#submit"
        priority: 2
steps:
  - id: open
    type: navigate
    navigate:
      url: https://app.local/login
  - id: press
    type: click
    click:
      element:
        ref: submit
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want text", res.Content[0])
	}
	return tc.Text
}

func TestHandleValidate_MissingPath(t *testing.T) {
	svc := NewService(nil)

	result, err := svc.HandleValidate(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for missing path")
	}
}

func TestHandleValidate_ValidScenario(t *testing.T) {
	svc := NewService(nil)
	path := writeScenario(t, validScenario)

	result, err := svc.HandleValidate(context.Background(), callRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected validation failure: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "is valid") {
		t.Errorf("result = %q, want valid message", text)
	}
}

func TestHandleValidate_BrokenScenario(t *testing.T) {
	svc := NewService(nil)
	path := writeScenario(t, `apiVersion: scenario/v1
id: broken
name: Broken
steps:
  - id: press
    type: click
    click:
      element:
        ref: ghost
`)

	result, err := svc.HandleValidate(context.Background(), callRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected validation failure for undeclared ref")
	}
	if text := resultText(t, result); !strings.Contains(text, "ghost") {
		t.Errorf("result = %q, want mention of the bad ref", text)
	}
}

func TestHandleSchema_Scenario(t *testing.T) {
	svc := NewService(nil)

	result, err := svc.HandleSchema(context.Background(), callRequest(map[string]any{"type": "scenario"}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Error("expected success for scenario schema")
	}
	if len(result.Content) == 0 {
		t.Error("expected schema content")
	}
}

func TestHandleSchema_UnknownType(t *testing.T) {
	svc := NewService(nil)

	result, err := svc.HandleSchema(context.Background(), callRequest(map[string]any{"type": "foo"}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for unknown schema type")
	}
}

func TestHandleRun_DryRunDefault(t *testing.T) {
	svc := NewService(nil)
	path := writeScenario(t, validScenario)

	result, err := svc.HandleRun(context.Background(), callRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("dry run failed: %s", resultText(t, result))
	}

	text := resultText(t, result)
	if !strings.Contains(text, `"status": "passed"`) {
		t.Errorf("response missing passed status: %s", text)
	}
	if !strings.Contains(text, `"driver": "dry-run"`) {
		t.Errorf("response missing driver: %s", text)
	}
}

func TestHandleRun_UnknownDriver(t *testing.T) {
	svc := NewService(nil)
	path := writeScenario(t, validScenario)

	result, err := svc.HandleRun(context.Background(), callRequest(map[string]any{"path": path, "driver": "firefox"}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for unknown driver")
	}
}

func TestHealingFlow_PendingThenApprove(t *testing.T) {
	svc := NewService(nil)
	eventID := svc.tracker.RecordEvent(healing.Event{
		ScenarioID: "checkout",
		StepID:     "click-pay",
		RunID:      "run-1",
		Original:   schema.LocatorStrategy{Type: "testId", Value: "pay"},
		Healed:     schema.LocatorStrategy{Type: "css", Value: "#pay"},
		Confidence: 0.8,
	})

	pending, err := svc.HandleHealingPending(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, pending); !strings.Contains(text, eventID) {
		t.Errorf("pending list missing event: %s", text)
	}

	approved, err := svc.HandleHealingApprove(context.Background(), callRequest(map[string]any{
		"event_id": eventID,
		"note":     "selector rename",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if approved.IsError {
		t.Fatalf("approve failed: %s", resultText(t, approved))
	}

	d := svc.tracker.Decision(eventID)
	if d == nil || d.Status != healing.StatusApproved {
		t.Fatalf("decision = %+v, want approved", d)
	}
	if d.Note != "selector rename" {
		t.Errorf("note = %q", d.Note)
	}

	// Approved events leave the pending list
	pending, err = svc.HandleHealingPending(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, pending); !strings.Contains(text, `"count": 0`) {
		t.Errorf("pending list should be empty: %s", text)
	}
}

func TestHealingDecide_UnknownEvent(t *testing.T) {
	svc := NewService(nil)

	result, err := svc.HandleHealingReject(context.Background(), callRequest(map[string]any{"event_id": "nope:nope"}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for unknown event id")
	}
}
