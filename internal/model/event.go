package model

import (
	"time"
)

// EventSeverity represents the severity of a progress event.
type EventSeverity string

const (
	EventSeverityInfo  EventSeverity = "info"
	EventSeverityError EventSeverity = "error"
)

// ProgressEvent is one append-only observation emitted during a build.
// Events are a narrative for observers, the orchestrator never reads them
// back to make decisions.
type ProgressEvent struct {
	ID        string
	BuildID   string
	Message   string
	Severity  EventSeverity
	CreatedAt time.Time
}
