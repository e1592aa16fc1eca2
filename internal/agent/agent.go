package agent

import (
	"context"
	"time"
)

// EventType classifies progress events produced by the agent.
type EventType string

const (
	// EventTypeStatus is a free-text progress line.
	EventTypeStatus EventType = "status"
	// EventTypeFile signals a created or changed file.
	EventTypeFile EventType = "file"
	// EventTypeError is a non-terminal error report.
	EventTypeError EventType = "error"
	// EventTypeDone is the agent's completion marker.
	EventTypeDone EventType = "done"
)

// Event is one observation from an in-flight agent invocation.
type Event struct {
	Type    EventType
	Message string
	// Path is set for file events.
	Path string
}

// DefaultTimeout is the wall-clock limit per invocation when the request
// doesn't set one. A hung agent must not stall a build forever.
const DefaultTimeout = 15 * time.Minute

// Request is one agent invocation for one prompt against one workspace.
type Request struct {
	WorkspacePath string
	Prompt        string
	// Env is extra environment for the agent process (e.g. backing service
	// credentials for the generated project).
	Env     map[string]string
	Timeout time.Duration
	// Events receives progress events in the order the agent produced them.
	// Optional. It is called from the invoking goroutine, implementations
	// must not block for long.
	Events func(Event)
}

// Result is the terminal outcome of a successful invocation.
type Result struct {
	ExitCode     int
	Summary      string
	ChangedFiles []string
}

// Runner invokes the external generation agent, once per call. Failures are
// classified with the model sentinel errors: model.ErrAgentUnavailable when
// the agent is not installed or reachable, model.ErrAgentTimeout when the
// wall-clock limit was hit.
type Runner interface {
	Run(ctx context.Context, req Request) (*Result, error)
}
