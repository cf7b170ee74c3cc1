package trace

import (
	"bytes"
	"io"
	"testing"
)

func TestChannelWriter_DeliversDecodedEvents(t *testing.T) {
	cw := NewChannelWriter(8)
	var file bytes.Buffer
	tw := NewWriter(io.MultiWriter(&file, cw), "run-1")

	if err := tw.EmitRunStart("checkout", "Checkout", nil); err != nil {
		t.Fatalf("EmitRunStart: %v", err)
	}
	if err := tw.EmitStepStart("open", "navigate", ""); err != nil {
		t.Fatalf("EmitStepStart: %v", err)
	}
	cw.Close()

	var got []Event
	for evt := range cw.Events() {
		got = append(got, evt)
	}
	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0].Type != EventRunStart || got[1].Type != EventStepStart {
		t.Errorf("types = %s, %s", got[0].Type, got[1].Type)
	}
	if got[0].RunID != "run-1" {
		t.Errorf("run id = %q", got[0].RunID)
	}
	if got[1].Data["step_id"] != "open" {
		t.Errorf("step_id = %v", got[1].Data["step_id"])
	}

	// The file sink saw the same stream.
	if n := bytes.Count(file.Bytes(), []byte("\n")); n != 2 {
		t.Errorf("file sink holds %d lines, want 2", n)
	}
}

func TestChannelWriter_BuffersPartialLines(t *testing.T) {
	cw := NewChannelWriter(4)
	line := []byte(`{"type":"step_start","run_id":"run-2","data":{"step_id":"a"}}` + "\n")

	if _, err := cw.Write(line[:20]); err != nil {
		t.Fatalf("partial write: %v", err)
	}
	select {
	case evt := <-cw.Events():
		t.Fatalf("incomplete line delivered %+v", evt)
	default:
	}

	if _, err := cw.Write(line[20:]); err != nil {
		t.Fatalf("rest of write: %v", err)
	}
	evt := <-cw.Events()
	if evt.Type != EventStepStart || evt.RunID != "run-2" {
		t.Errorf("event = %+v", evt)
	}
}

func TestChannelWriter_RejectsMalformedLine(t *testing.T) {
	cw := NewChannelWriter(4)
	if _, err := cw.Write([]byte("not json\n")); err == nil {
		t.Fatal("malformed line must error")
	}
	// The bad line is consumed; the stream recovers.
	if _, err := cw.Write([]byte(`{"type":"run_complete","run_id":"run-3"}` + "\n")); err != nil {
		t.Fatalf("write after malformed line: %v", err)
	}
	evt := <-cw.Events()
	if evt.Type != EventRunComplete {
		t.Errorf("event = %+v", evt)
	}
}
