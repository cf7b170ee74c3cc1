// Package trace implements the append-only JSONL progress stream emitted
// while a scenario runs. Every consumer of live progress, the CLI, the TUI
// and the MCP server included, reads this stream.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ormasoftchile/splint/pkg/healing"
)

// EventType enumerates all trace event types.
type EventType string

const (
	EventRunStart     EventType = "run_start"
	EventRunComplete  EventType = "run_complete"
	EventStepStart    EventType = "step_start"
	EventStepComplete EventType = "step_complete"
	EventStepHealed   EventType = "step_healed"
)

// Event is a single trace event written to the JSONL stream.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Failure describes why a step failed.
type Failure struct {
	Kind    string `json:"kind"` // timeout, assertion, element_not_found, request, script, panic, ...
	Message string `json:"message"`
}

// Writer writes trace events to an append-only JSONL stream.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	runID string
	enc   *json.Encoder
}

// NewWriter creates a trace writer that writes to the given io.Writer.
func NewWriter(w io.Writer, runID string) *Writer {
	return &Writer{
		w:     w,
		runID: runID,
		enc:   json.NewEncoder(w),
	}
}

// NewFileWriter creates a trace writer that appends to a JSONL file.
func NewFileWriter(path, runID string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return NewWriter(f, runID), nil
}

// Emit writes a single trace event.
func (tw *Writer) Emit(eventType EventType, data map[string]any) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	evt := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     tw.runID,
		Data:      data,
	}
	return tw.enc.Encode(evt)
}

// EmitRunStart emits a run_start event with scenario info and the resolved
// variable scope.
func (tw *Writer) EmitRunStart(scenarioID, scenarioName string, variables map[string]any) error {
	data := map[string]any{
		"scenario_id":   scenarioID,
		"scenario_name": scenarioName,
	}
	if variables != nil {
		data["variables"] = variables
	}
	return tw.Emit(EventRunStart, data)
}

// EmitStepStart emits a step_start event.
func (tw *Writer) EmitStepStart(stepID, stepType, description string) error {
	data := map[string]any{
		"step_id": stepID,
		"type":    stepType,
	}
	if description != "" {
		data["description"] = description
	}
	return tw.Emit(EventStepStart, data)
}

// EmitStepComplete emits a step_complete event.
func (tw *Writer) EmitStepComplete(stepID, status string, duration time.Duration, failure *Failure) error {
	data := map[string]any{
		"step_id":  stepID,
		"status":   status,
		"duration": duration.String(),
	}
	if failure != nil {
		data["failure"] = map[string]any{
			"kind":    failure.Kind,
			"message": failure.Message,
		}
	}
	return tw.Emit(EventStepComplete, data)
}

// EmitStepHealed emits a step_healed event after the completion event of the
// step it belongs to. The strategies are written in full so a review session
// can rebuild the healing event from the stream.
func (tw *Writer) EmitStepHealed(evt healing.Event, status string) error {
	return tw.Emit(EventStepHealed, map[string]any{
		"scenario_id":       evt.ScenarioID,
		"step_id":           evt.StepID,
		"original_strategy": evt.Original,
		"healed_strategy":   evt.Healed,
		"confidence":        evt.Confidence,
		"status":            status,
	})
}

// EmitRunComplete emits a run_complete event. A non-nil failure carries the
// run-level error for runs that died outside the step loop.
func (tw *Writer) EmitRunComplete(status string, summary map[string]any, duration time.Duration, failure *Failure) error {
	data := map[string]any{
		"status":   status,
		"duration": duration.String(),
	}
	if summary != nil {
		data["summary"] = summary
	}
	if failure != nil {
		data["failure"] = map[string]any{
			"kind":    failure.Kind,
			"message": failure.Message,
		}
	}
	return tw.Emit(EventRunComplete, data)
}
