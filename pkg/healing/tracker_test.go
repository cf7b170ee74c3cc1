package healing

import (
	"testing"

	"github.com/ormasoftchile/splint/pkg/schema"
)

func testEvent(runID, stepID string, confidence float64) Event {
	return Event{
		ScenarioID: "login-flow",
		StepID:     stepID,
		RunID:      runID,
		Original:   schema.LocatorStrategy{Type: schema.StrategyTestID, Value: "submit"},
		Healed:     schema.LocatorStrategy{Type: schema.StrategyCSS, Value: "button[type=submit]"},
		Confidence: confidence,
	}
}

func TestRecordEvent_AutoApproveAtThreshold(t *testing.T) {
	tr := NewTracker()

	id := tr.RecordEvent(testEvent("run-1", "s1", 0.9))
	d := tr.Decision(id)
	if d == nil {
		t.Fatal("expected auto-approved decision at 0.9")
	}
	if d.Status != StatusAutoApproved {
		t.Errorf("status = %q, want auto_approved", d.Status)
	}
}

func TestRecordEvent_BelowThresholdStaysPending(t *testing.T) {
	tr := NewTracker()

	id := tr.RecordEvent(testEvent("run-1", "s1", 0.89))
	if d := tr.Decision(id); d != nil {
		t.Errorf("expected no decision below threshold, got %+v", d)
	}
	pending := tr.PendingEvents()
	if len(pending) != 1 || pending[0].StepID != "s1" {
		t.Errorf("pending = %+v", pending)
	}
}

func TestApproveAndReject(t *testing.T) {
	tr := NewTracker()
	id := tr.RecordEvent(testEvent("run-1", "s1", 0.7))

	d := tr.Approve(id, "carol", "selector drifted after redesign")
	if d == nil {
		t.Fatal("Approve returned nil for known event")
	}
	if d.Status != StatusApproved || d.Reviewer != "carol" {
		t.Errorf("decision = %+v", d)
	}
	if len(tr.PendingEvents()) != 0 {
		t.Error("approved event still pending")
	}

	d = tr.Reject(id, "dave", "")
	if d == nil || d.Status != StatusRejected {
		t.Errorf("reject overwrite = %+v", d)
	}
}

func TestApproveUnknownEventReturnsNil(t *testing.T) {
	tr := NewTracker()
	if d := tr.Approve("run-x:s9", "", ""); d != nil {
		t.Errorf("expected nil for unknown event, got %+v", d)
	}
	if d := tr.Reject("run-x:s9", "", ""); d != nil {
		t.Errorf("expected nil for unknown event, got %+v", d)
	}
}

func TestHealedStrategy(t *testing.T) {
	tr := NewTracker()

	// Rejected first, approved second: scan must skip the rejected one.
	first := tr.RecordEvent(testEvent("run-1", "s1", 0.7))
	tr.Reject(first, "", "")

	second := testEvent("run-2", "s1", 0.7)
	second.Healed = schema.LocatorStrategy{Type: schema.StrategyXPath, Value: "//button"}
	tr.Approve(tr.RecordEvent(second), "carol", "")

	got := tr.HealedStrategy("login-flow", "s1")
	if got == nil {
		t.Fatal("expected healed strategy")
	}
	if got.Type != schema.StrategyXPath {
		t.Errorf("strategy type = %q, want xpath", got.Type)
	}

	if tr.HealedStrategy("login-flow", "other-step") != nil {
		t.Error("expected nil for step without events")
	}
	if tr.HealedStrategy("other-scenario", "s1") != nil {
		t.Error("expected nil for foreign scenario")
	}
}

func TestHealedStrategyIgnoresPending(t *testing.T) {
	tr := NewTracker()
	tr.RecordEvent(testEvent("run-1", "s1", 0.5))
	if tr.HealedStrategy("login-flow", "s1") != nil {
		t.Error("pending event must not pin a strategy")
	}
}

func TestSetAutoApproveThresholdClamps(t *testing.T) {
	tr := NewTracker()

	tr.SetAutoApproveThreshold(1.5)
	id := tr.RecordEvent(testEvent("run-1", "s1", 1.0))
	if d := tr.Decision(id); d == nil || d.Status != StatusAutoApproved {
		t.Errorf("threshold should clamp to 1; decision = %+v", d)
	}

	tr.Clear()
	tr.SetAutoApproveThreshold(-0.2)
	id = tr.RecordEvent(testEvent("run-2", "s1", 0))
	if d := tr.Decision(id); d == nil || d.Status != StatusAutoApproved {
		t.Errorf("threshold should clamp to 0; decision = %+v", d)
	}
}

func TestClear(t *testing.T) {
	tr := NewTracker()
	id := tr.RecordEvent(testEvent("run-1", "s1", 0.95))
	tr.Clear()

	if len(tr.Events()) != 0 || len(tr.PendingEvents()) != 0 {
		t.Error("stores not emptied")
	}
	if tr.Decision(id) != nil {
		t.Error("decision survived Clear")
	}
}
