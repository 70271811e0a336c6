// Package analytics provides a fire-and-forget local event sink. Events are
// appended as JSONL; logging never blocks the caller.
package analytics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event is one analytics record.
type Event struct {
	Timestamp string            `json:"ts"`
	Name      string            `json:"name"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// NewEvent creates an event stamped with the current UTC time.
func NewEvent(name string, fields map[string]string) Event {
	return Event{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Name:      name,
		Fields:    fields,
	}
}

// Sink accepts events. Implementations must not block the caller.
type Sink interface {
	Log(e Event)
}

// Nop discards all events.
type Nop struct{}

// Log implements Sink.
func (Nop) Log(Event) {}

// bufferSize bounds the in-flight event queue. Events past the bound are
// dropped: analytics is best-effort and must never stall validation.
const bufferSize = 256

// FileSink writes events to a JSONL file from a single writer goroutine.
type FileSink struct {
	ch   chan Event
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewFileSink opens (or creates) the JSONL file at path and starts the
// writer goroutine.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("analytics: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("analytics: open file: %w", err)
	}

	s := &FileSink{
		ch:   make(chan Event, bufferSize),
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer f.Close()
		for e := range s.ch {
			line, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if _, err := f.Write(append(line, '\n')); err != nil {
				fmt.Fprintf(os.Stderr, "analytics: write event: %v\n", err)
			}
		}
	}()

	return s, nil
}

// Log enqueues an event. Drops the event when the buffer is full or the
// sink is closed.
func (s *FileSink) Log(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default:
	}
}

// Close flushes queued events and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	<-s.done
	return nil
}
