package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrAgentUnavailable is returned when the generation agent is not
	// installed or not reachable.
	ErrAgentUnavailable = errors.New("agent unavailable")
	// ErrAgentTimeout is returned when an agent invocation exceeds its
	// wall-clock limit.
	ErrAgentTimeout = errors.New("agent timed out")
	// ErrWorkspaceMissing is returned when the build workspace directory is
	// gone. It is fatal to the whole build, not just the current step.
	ErrWorkspaceMissing = errors.New("workspace missing")
)
