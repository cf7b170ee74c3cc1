// Package engine executes scenarios: it expands components, walks the step
// list strictly sequentially, dispatches each step to its handler, and
// collects results, healing events and trace output along the way.
package engine

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/ormasoftchile/splint/pkg/healing"
	"github.com/ormasoftchile/splint/pkg/schema"
)

// Run statuses.
const (
	RunRunning = "running"
	RunPassed  = "passed"
	RunFailed  = "failed"
)

// Step statuses. Healed means the step passed through a non-primary locator
// strategy or an alternative response path.
const (
	StepPassed  = "passed"
	StepFailed  = "failed"
	StepSkipped = "skipped"
	StepHealed  = "healed"
)

// TestRun is the record of one scenario execution.
type TestRun struct {
	ID           string         `json:"id"`
	ScenarioID   string         `json:"scenario_id"`
	ScenarioName string         `json:"scenario_name"`
	Status       string         `json:"status"` // running, passed, failed
	BaseURL      string         `json:"base_url,omitempty"`
	Variables    map[string]any `json:"variables,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
	Summary      StepsSummary   `json:"summary"`
}

// Duration is the wall time between start and completion.
func (r *TestRun) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// StepsSummary counts step results by status. Total is the scenario's
// authored step count; component expansion can make the executed list
// longer.
type StepsSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Healed  int `json:"healed"`
}

// StepResult is the write-once outcome of one executed step.
type StepResult struct {
	RunID      string          `json:"run_id"`
	StepID     string          `json:"step_id"`
	StepIndex  int             `json:"step_index"`
	Type       schema.StepType `json:"type"`
	Status     string          `json:"status"` // passed, failed, skipped, healed
	StartedAt  time.Time       `json:"started_at"`
	EndedAt    time.Time       `json:"ended_at"`
	DurationMs int64           `json:"duration_ms"`
	Error      *StepError      `json:"error,omitempty"`
	Healing    *HealingInfo    `json:"healing,omitempty"`
	Context    *StepContext    `json:"context,omitempty"`
}

// StepError describes why a step failed.
type StepError struct {
	Kind    string `json:"kind"` // timeout, assertion, element_not_found, request, script, panic, ...
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// HealingInfo records that a step located its element (or response path)
// through something other than the primary strategy.
type HealingInfo struct {
	Original   schema.LocatorStrategy `json:"original"`
	Used       schema.LocatorStrategy `json:"used"`
	Confidence float64                `json:"confidence"`
	EventID    string                 `json:"event_id,omitempty"`
}

// StepContext carries captured page context for a step: console lines
// emitted while it ran and the path of any screenshot it took.
type StepContext struct {
	Logs       []string `json:"logs,omitempty"`
	Screenshot string   `json:"screenshot,omitempty"`
}

// ExecutionResult bundles everything a run produced. Error is set only for
// run-level failures (session acquisition, component expansion); step
// failures live in StepResults.
type ExecutionResult struct {
	Run           *TestRun
	StepResults   []*StepResult
	HealingEvents []healing.Event
	Error         error
}

// Failed reports whether the run ended in a failed status.
func (r *ExecutionResult) Failed() bool {
	return r.Run == nil || r.Run.Status != RunPassed
}

// GenerateRunID creates a run ID in format YYYYMMDDTHHmmss-xxxx.
func GenerateRunID() string {
	ts := time.Now().Format("20060102T150405")
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%s-%x", ts, suffix)
}
