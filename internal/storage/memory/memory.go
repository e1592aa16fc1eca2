package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	builds  map[string]model.Build
	prompts map[string]model.Prompt
	events  []model.ProgressEvent
	mu      sync.RWMutex
	logger  log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		builds:  make(map[string]model.Build),
		prompts: make(map[string]model.Prompt),
		logger:  cfg.Logger,
	}, nil
}

// CreateBuild creates a new build in the repository.
func (r *Repository) CreateBuild(ctx context.Context, b model.Build) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.builds[b.ID]; ok {
		return fmt.Errorf("build with id %s: %w", b.ID, model.ErrAlreadyExists)
	}

	// Secrets are runtime-only, never stored.
	b.Config.Secrets = model.RuntimeSecrets{}
	r.builds[b.ID] = b
	r.logger.Debugf("Created build in repository: %s", b.ID)

	return nil
}

// GetBuild retrieves a build by ID.
func (r *Repository) GetBuild(ctx context.Context, id string) (*model.Build, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	build, ok := r.builds[id]
	if !ok {
		return nil, fmt.Errorf("build %s: %w", id, model.ErrNotFound)
	}

	// Return a copy.
	buildCopy := build
	return &buildCopy, nil
}

// ListBuilds returns all builds ordered by creation time.
func (r *Repository) ListBuilds(ctx context.Context) ([]model.Build, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	builds := make([]model.Build, 0, len(r.builds))
	for _, b := range r.builds {
		builds = append(builds, b)
	}
	sort.Slice(builds, func(i, j int) bool { return builds[i].CreatedAt.Before(builds[j].CreatedAt) })

	return builds, nil
}

// UpdateBuild updates an existing build.
func (r *Repository) UpdateBuild(ctx context.Context, b model.Build) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.builds[b.ID]; !ok {
		return fmt.Errorf("build %s: %w", b.ID, model.ErrNotFound)
	}

	b.Config.Secrets = model.RuntimeSecrets{}
	r.builds[b.ID] = b
	r.logger.Debugf("Updated build in repository: %s", b.ID)

	return nil
}

// CreatePrompts stores the prompts of a project.
func (r *Repository) CreatePrompts(ctx context.Context, prompts []model.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range prompts {
		if _, ok := r.prompts[p.ID]; ok {
			return fmt.Errorf("prompt with id %s: %w", p.ID, model.ErrAlreadyExists)
		}
	}
	for _, p := range prompts {
		r.prompts[p.ID] = p
	}

	return nil
}

// ListPrompts returns a project's prompts ordered by sequence.
func (r *Repository) ListPrompts(ctx context.Context, projectID string, filter storage.PromptFilter) ([]model.Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prompts := []model.Prompt{}
	for _, p := range r.prompts {
		if p.ProjectID != projectID {
			continue
		}
		if filter.OnlyUnimplemented && p.Implemented {
			continue
		}
		prompts = append(prompts, p)
	}
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Sequence < prompts[j].Sequence })

	return prompts, nil
}

// CompletePromptStep marks a prompt implemented and increments the build's
// current step under a single lock.
func (r *Repository) CompletePromptStep(ctx context.Context, buildID, promptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	build, ok := r.builds[buildID]
	if !ok {
		return fmt.Errorf("build %s: %w", buildID, model.ErrNotFound)
	}
	prompt, ok := r.prompts[promptID]
	if !ok {
		return fmt.Errorf("prompt %s: %w", promptID, model.ErrNotFound)
	}

	prompt.Implemented = true
	build.CurrentStep++
	r.prompts[promptID] = prompt
	r.builds[buildID] = build
	r.logger.Debugf("Completed step %d/%d of build %s", build.CurrentStep, build.TotalSteps, buildID)

	return nil
}

// AppendEvent appends a progress event.
func (r *Repository) AppendEvent(ctx context.Context, e model.ProgressEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)

	return nil
}

// ListEvents returns a build's progress events in append order.
func (r *Repository) ListEvents(ctx context.Context, buildID string, limit int) ([]model.ProgressEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []model.ProgressEvent{}
	for _, e := range r.events {
		if e.BuildID == buildID {
			events = append(events, e)
		}
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	return events, nil
}
