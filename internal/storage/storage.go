package storage

import (
	"context"

	"github.com/appforge/appforge/internal/model"
)

// PromptFilter filters prompt listings.
type PromptFilter struct {
	// OnlyUnimplemented returns only prompts not yet implemented. Used when
	// resuming a build.
	OnlyUnimplemented bool
}

// Repository is the interface for build persistence.
//
// Implementations must never persist model.RuntimeSecrets, those are
// runtime-only values.
type Repository interface {
	CreateBuild(ctx context.Context, b model.Build) error
	GetBuild(ctx context.Context, id string) (*model.Build, error)
	ListBuilds(ctx context.Context) ([]model.Build, error)
	UpdateBuild(ctx context.Context, b model.Build) error

	CreatePrompts(ctx context.Context, prompts []model.Prompt) error
	ListPrompts(ctx context.Context, projectID string, filter PromptFilter) ([]model.Prompt, error)

	// CompletePromptStep marks the prompt implemented and increments the
	// build's current step in a single transaction, so a crash can't leave
	// one visible without the other.
	CompletePromptStep(ctx context.Context, buildID, promptID string) error

	AppendEvent(ctx context.Context, e model.ProgressEvent) error
	ListEvents(ctx context.Context, buildID string, limit int) ([]model.ProgressEvent, error)
}
