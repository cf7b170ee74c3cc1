package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ormasoftchile/splint/pkg/healing"
	"github.com/ormasoftchile/splint/pkg/schema"
)

// ReadEvents decodes a JSONL trace stream, calling fn for each event in
// order. Blank lines are skipped. Reading stops at the first malformed line.
func ReadEvents(r io.Reader, fn func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max line
	line := 0
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		line++
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			return fmt.Errorf("event %d: invalid JSON: %w", line, err)
		}
		fn(evt)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read trace: %w", err)
	}
	return nil
}

// ReadFile decodes every event in a JSONL trace file.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()
	var events []Event
	if err := ReadEvents(f, func(evt Event) { events = append(events, evt) }); err != nil {
		return nil, err
	}
	return events, nil
}

// HealedEvent reconstructs the healing event a step_healed trace event
// carries, plus the decision status it had when emitted. Returns false for
// any other event type.
func HealedEvent(evt Event) (healing.Event, string, bool) {
	if evt.Type != EventStepHealed {
		return healing.Event{}, "", false
	}
	out := healing.Event{
		RunID:     evt.RunID,
		CreatedAt: evt.Timestamp,
	}
	if s, ok := evt.Data["scenario_id"].(string); ok {
		out.ScenarioID = s
	}
	if s, ok := evt.Data["step_id"].(string); ok {
		out.StepID = s
	}
	if c, ok := evt.Data["confidence"].(float64); ok {
		out.Confidence = c
	}
	decodeStrategy(evt.Data["original_strategy"], &out.Original)
	decodeStrategy(evt.Data["healed_strategy"], &out.Healed)
	status, _ := evt.Data["status"].(string)
	return out, status, true
}

// decodeStrategy converts the loosely typed strategy payload of a decoded
// trace event back into its struct form.
func decodeStrategy(v any, dst *schema.LocatorStrategy) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	json.Unmarshal(raw, dst)
}
