package eventlogmock

import (
	"context"
	"sync"

	"github.com/appforge/appforge/internal/model"
)

// RecordedEvent is one event captured by the recorder sink.
type RecordedEvent struct {
	BuildID  string
	Message  string
	Severity model.EventSeverity
}

// RecorderSink is an in-memory eventlog.Sink that records appended events in
// order, for asserting on the event narrative in tests.
type RecorderSink struct {
	mu     sync.Mutex
	events []RecordedEvent
}

func (r *RecorderSink) Append(ctx context.Context, buildID, message string, severity model.EventSeverity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{BuildID: buildID, Message: message, Severity: severity})
}

// Events returns a copy of the recorded events.
func (r *RecorderSink) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent{}, r.events...)
}

// Messages returns only the recorded messages, in order.
func (r *RecorderSink) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := make([]string, 0, len(r.events))
	for _, e := range r.events {
		msgs = append(msgs, e.Message)
	}
	return msgs
}
