// Package telemetry records operational events emitted by the worldline core.
//
// Events are advisory: they describe mutations that already happened and are
// never allowed to fail or roll back the operation that produced them.
package telemetry

import (
	"log"
	"time"
)

// Event is a single operational event.
type Event struct {
	Name      string
	Timestamp time.Time
	Payload   map[string]any
}

// Sink receives emitted events.
type Sink interface {
	Record(event Event) error
}

// Emitter records operational events through a sink.
type Emitter struct {
	sink  Sink
	clock func() time.Time
	logf  func(format string, args ...any)
}

// NewEmitter creates a new event emitter. A nil sink yields a no-op emitter.
func NewEmitter(sink Sink) *Emitter {
	return &Emitter{sink: sink, clock: time.Now, logf: log.Printf}
}

// Emit records an event. Sink failures are logged and swallowed so callers
// never observe them.
func (e *Emitter) Emit(name string, payload map[string]any) {
	if e == nil || e.sink == nil {
		return
	}

	clock := e.clock
	if clock == nil {
		clock = time.Now
	}

	event := Event{
		Name:      name,
		Timestamp: clock().UTC(),
		Payload:   payload,
	}
	if err := e.sink.Record(event); err != nil {
		logf := e.logf
		if logf == nil {
			logf = log.Printf
		}
		logf("telemetry: record %s: %v", name, err)
	}
}

// LogSink writes events to a standard logger.
type LogSink struct {
	Logger *log.Logger
}

// Record implements Sink by printing the event.
func (s *LogSink) Record(event Event) error {
	logger := log.Default()
	if s != nil && s.Logger != nil {
		logger = s.Logger
	}
	logger.Printf("event %s at %s: %v", event.Name, event.Timestamp.Format(time.RFC3339), event.Payload)
	return nil
}
