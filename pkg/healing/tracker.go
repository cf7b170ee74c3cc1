// Package healing records locator healing events and runs their approval
// workflow. Every event needs a human or threshold decision before its
// healed strategy is trusted for later runs.
package healing

import (
	"sync"
	"time"

	"github.com/ormasoftchile/splint/pkg/schema"
)

// DefaultAutoApproveThreshold auto-approves healing events at or above this
// confidence when no threshold is configured.
const DefaultAutoApproveThreshold = 0.9

// DecisionStatus is the review state of a healing event.
type DecisionStatus string

const (
	StatusPending      DecisionStatus = "pending"
	StatusApproved     DecisionStatus = "approved"
	StatusRejected     DecisionStatus = "rejected"
	StatusAutoApproved DecisionStatus = "auto_approved"
)

// Event records that a non-primary strategy located an element during a run.
type Event struct {
	ScenarioID string                 `json:"scenario_id"`
	StepID     string                 `json:"step_id"`
	RunID      string                 `json:"run_id"`
	Original   schema.LocatorStrategy `json:"original"`
	Healed     schema.LocatorStrategy `json:"healed"`
	Confidence float64                `json:"confidence"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Key is the composite identifier an event is stored and decided under.
func (e Event) Key() string {
	return e.RunID + ":" + e.StepID
}

// Decision is the current review outcome for an event.
type Decision struct {
	Status    DecisionStatus `json:"status"`
	Reviewer  string         `json:"reviewer,omitempty"`
	Note      string         `json:"note,omitempty"`
	DecidedAt time.Time      `json:"decided_at"`
}

// Tracker stores healing events and decisions for review. Safe for
// concurrent use; each run should still own its own tracker.
type Tracker struct {
	mu        sync.Mutex
	order     []string
	events    map[string]Event
	decisions map[string]Decision
	threshold float64
}

// NewTracker creates an empty tracker with the default auto-approve
// threshold.
func NewTracker() *Tracker {
	return &Tracker{
		events:    make(map[string]Event),
		decisions: make(map[string]Decision),
		threshold: DefaultAutoApproveThreshold,
	}
}

// RecordEvent stores an event and returns its identifier. Events at or above
// the auto-approve threshold receive an auto_approved decision immediately.
func (t *Tracker) RecordEvent(evt Event) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	key := evt.Key()
	if _, seen := t.events[key]; !seen {
		t.order = append(t.order, key)
	}
	t.events[key] = evt

	if evt.Confidence >= t.threshold {
		t.decisions[key] = Decision{Status: StatusAutoApproved, DecidedAt: time.Now().UTC()}
	}
	return key
}

// Approve records an approved decision for a known event. Unknown events
// return nil.
func (t *Tracker) Approve(eventID, reviewer, note string) *Decision {
	return t.decide(eventID, StatusApproved, reviewer, note)
}

// Reject records a rejected decision for a known event. Unknown events
// return nil.
func (t *Tracker) Reject(eventID, reviewer, note string) *Decision {
	return t.decide(eventID, StatusRejected, reviewer, note)
}

func (t *Tracker) decide(eventID string, status DecisionStatus, reviewer, note string) *Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.events[eventID]; !ok {
		return nil
	}
	d := Decision{Status: status, Reviewer: reviewer, Note: note, DecidedAt: time.Now().UTC()}
	t.decisions[eventID] = d
	return &d
}

// PendingEvents lists every event without a decision, or whose decision is
// still pending, in recording order.
func (t *Tracker) PendingEvents() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pending []Event
	for _, key := range t.order {
		d, ok := t.decisions[key]
		if !ok || d.Status == StatusPending {
			pending = append(pending, t.events[key])
		}
	}
	return pending
}

// Events lists every recorded event in recording order.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Event, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.events[key])
	}
	return out
}

// Decision returns the current decision for an event, or nil.
func (t *Tracker) Decision(eventID string) *Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.decisions[eventID]
	if !ok {
		return nil
	}
	return &d
}

// HealedStrategy returns the healed strategy of the first approved or
// auto-approved event recorded for a scenario step, or nil when none
// qualifies. Resolvers consult this to pin a reviewed strategy ahead of the
// declared ones.
func (t *Tracker) HealedStrategy(scenarioID, stepID string) *schema.LocatorStrategy {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, key := range t.order {
		evt := t.events[key]
		if evt.ScenarioID != scenarioID || evt.StepID != stepID {
			continue
		}
		d, ok := t.decisions[key]
		if !ok {
			continue
		}
		if d.Status == StatusApproved || d.Status == StatusAutoApproved {
			healed := evt.Healed
			return &healed
		}
	}
	return nil
}

// SetAutoApproveThreshold updates the auto-approve threshold, clamped to
// [0, 1].
func (t *Tracker) SetAutoApproveThreshold(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	t.threshold = v
}

// Clear empties both stores.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = nil
	t.events = make(map[string]Event)
	t.decisions = make(map[string]Decision)
}
