package main

import (
	"strings"
	"testing"
	"time"

	"github.com/ormasoftchile/splint/pkg/trace"
)

// reportEvents is one failed run with a healed step, shaped like a decoded
// JSONL trace (numbers as float64, strategies as maps).
func reportEvents() []trace.Event {
	start := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return []trace.Event{
		{Type: trace.EventRunStart, Timestamp: start, RunID: "run-1", Data: map[string]any{
			"scenario_id":   "checkout-smoke",
			"scenario_name": "Checkout smoke test",
		}},
		{Type: trace.EventStepComplete, RunID: "run-1", Data: map[string]any{
			"step_id":  "open-cart",
			"status":   "passed",
			"duration": "1.2s",
		}},
		{Type: trace.EventStepComplete, RunID: "run-1", Data: map[string]any{
			"step_id":  "pay",
			"status":   "healed",
			"duration": "650ms",
		}},
		{Type: trace.EventStepHealed, RunID: "run-1", Data: map[string]any{
			"scenario_id":       "checkout-smoke",
			"step_id":           "pay",
			"original_strategy": map[string]any{"type": "css", "value": "#pay-old"},
			"healed_strategy":   map[string]any{"type": "testId", "value": "pay"},
			"confidence":        0.87,
			"status":            "pending",
		}},
		{Type: trace.EventStepComplete, RunID: "run-1", Data: map[string]any{
			"step_id":  "confirm",
			"status":   "failed",
			"duration": "30s",
			"failure":  map[string]any{"kind": "timeout", "message": "step exceeded 30s"},
		}},
		{Type: trace.EventRunComplete, RunID: "run-1", Data: map[string]any{
			"status":   "failed",
			"duration": "31.9s",
			"summary": map[string]any{
				"total":   float64(3),
				"passed":  float64(1),
				"failed":  float64(1),
				"skipped": float64(0),
				"healed":  float64(1),
			},
		}},
	}
}

func TestCollectRuns(t *testing.T) {
	runs := collectRuns(reportEvents())
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.ID != "run-1" {
		t.Errorf("run ID = %q", r.ID)
	}
	if r.Scenario != "Checkout smoke test" {
		t.Errorf("scenario = %q", r.Scenario)
	}
	if r.Status != "failed" {
		t.Errorf("status = %q", r.Status)
	}
	if len(r.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(r.Steps))
	}
	if r.Steps[2].Error != "timeout: step exceeded 30s" {
		t.Errorf("step error = %q", r.Steps[2].Error)
	}
	if len(r.Healings) != 1 {
		t.Fatalf("expected 1 healing, got %d", len(r.Healings))
	}
	h := r.Healings[0]
	if h.Healed != "testId=pay" || h.Original != "css=#pay-old" {
		t.Errorf("healing strategies = %q replaced %q", h.Healed, h.Original)
	}
	if h.Confidence != 0.87 {
		t.Errorf("confidence = %v", h.Confidence)
	}
}

func TestCollectRunsGroupsAppendedRuns(t *testing.T) {
	events := reportEvents()
	events = append(events,
		trace.Event{Type: trace.EventRunStart, RunID: "run-2", Data: map[string]any{
			"scenario_name": "Checkout smoke test",
		}},
		trace.Event{Type: trace.EventRunComplete, RunID: "run-2", Data: map[string]any{
			"status":   "passed",
			"duration": "2s",
		}},
	)

	runs := collectRuns(events)
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-1" || runs[1].ID != "run-2" {
		t.Errorf("run order = %q, %q", runs[0].ID, runs[1].ID)
	}
	if runs[1].Status != "passed" {
		t.Errorf("second run status = %q", runs[1].Status)
	}
}

func TestBuildReportContent(t *testing.T) {
	md := buildReport("traces/demo.jsonl", collectRuns(reportEvents()))

	for _, want := range []string{
		"# Run Report",
		"`traces/demo.jsonl`",
		"## Checkout smoke test — run `run-1`",
		"**Status**: ✗ failed",
		"**Started**: 2026-03-14 09:30:00",
		"| Total steps | 3 |",
		"| Healed | 1 |",
		"| 1 | `open-cart` | passed | 1.2s | — |",
		"| 3 | `confirm` | failed | 30s | timeout: step exceeded 30s |",
		"- ◆ `pay`: `testId=pay` replaced `css=#pay-old` (confidence 0.87, pending)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestBuildReportTruncatedRun(t *testing.T) {
	events := reportEvents()[:2] // trace cut off before run_complete
	md := buildReport("t.jsonl", collectRuns(events))
	if !strings.Contains(md, "**Status**: ! running") {
		t.Errorf("truncated run should report running status:\n%s", md)
	}
}

func TestBuildReportRunError(t *testing.T) {
	events := []trace.Event{
		{Type: trace.EventRunStart, RunID: "run-3", Data: map[string]any{
			"scenario_name": "Checkout smoke test",
		}},
		{Type: trace.EventRunComplete, RunID: "run-3", Data: map[string]any{
			"status":   "failed",
			"duration": "80ms",
			"failure":  map[string]any{"kind": "session", "message": "chrome failed to start"},
		}},
	}
	md := buildReport("t.jsonl", collectRuns(events))
	if !strings.Contains(md, "> **Run error**: session: chrome failed to start") {
		t.Errorf("run-level failure missing from report:\n%s", md)
	}
}
