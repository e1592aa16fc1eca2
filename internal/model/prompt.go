package model

import (
	"time"
)

// Prompt represents one ordered unit of generation work within a project.
type Prompt struct {
	ID        string
	ProjectID string
	// Sequence defines the total order of prompts within a project.
	Sequence int
	Body     string
	// Implemented is monotonic: once true it is never reverted by the engine.
	Implemented bool
	CreatedAt   time.Time
}
