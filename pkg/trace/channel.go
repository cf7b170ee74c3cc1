package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// ChannelWriter turns a JSONL trace stream into a channel of decoded events.
// Stack it into an io.MultiWriter next to a file sink to watch a run live
// while the file keeps the durable copy. Writes block once the channel
// buffer fills, so consumers must keep draining until Close.
type ChannelWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
	ch  chan Event
}

// NewChannelWriter creates a channel sink. buffer <= 0 selects a default
// deep enough for a burst of step events.
func NewChannelWriter(buffer int) *ChannelWriter {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelWriter{ch: make(chan Event, buffer)}
}

// Events is the receive side of the stream. It closes after Close.
func (cw *ChannelWriter) Events() <-chan Event { return cw.ch }

// Write buffers p and delivers every completed line as a decoded event.
// Partial lines wait for the rest of their bytes.
func (cw *ChannelWriter) Write(p []byte) (int, error) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.buf.Write(p)
	for {
		data := cw.buf.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := bytes.TrimSpace(data[:i])
		var evt Event
		deliver := len(line) > 0
		if deliver {
			if err := json.Unmarshal(line, &evt); err != nil {
				cw.buf.Next(i + 1)
				return len(p), fmt.Errorf("invalid trace line: %w", err)
			}
		}
		cw.buf.Next(i + 1)
		if deliver {
			cw.ch <- evt
		}
	}
}

// Close ends the stream by closing the events channel. Write after Close
// panics; the sink is done once the run is.
func (cw *ChannelWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	close(cw.ch)
	return nil
}
