package agent

import (
	"encoding/json"
)

// streamLine is one structured progress line on the agent's output channel.
type streamLine struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Path    string `json:"path"`
	Summary string `json:"summary"`
}

// ParseStreamLine converts one agent output line into an event. Unstructured
// lines are forwarded as status events so nothing the agent says is lost.
func ParseStreamLine(line string) Event {
	var sl streamLine
	if err := json.Unmarshal([]byte(line), &sl); err != nil {
		return Event{Type: EventTypeStatus, Message: line}
	}

	switch sl.Type {
	case "file":
		return Event{Type: EventTypeFile, Message: sl.Message, Path: sl.Path}
	case "error":
		return Event{Type: EventTypeError, Message: sl.Message}
	case "done", "result":
		msg := sl.Summary
		if msg == "" {
			msg = sl.Message
		}
		return Event{Type: EventTypeDone, Message: msg}
	default:
		return Event{Type: EventTypeStatus, Message: sl.Message}
	}
}
