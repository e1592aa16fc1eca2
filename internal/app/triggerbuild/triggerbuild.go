package triggerbuild

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
)

// ServiceConfig is the configuration for the trigger service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.TriggerBuild"})
	return nil
}

// Service creates builds. A trigger only records the work to do, running it
// is a separate operation.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new trigger service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// TriggerOptions are the options for triggering a build.
type TriggerOptions struct {
	Config model.BuildConfig
	// Prompts are the ordered instruction texts for the project. When the
	// project already has prompts stored, this may be empty.
	Prompts []string
}

// Trigger creates a new pending build and, when prompt texts are given,
// stores them as the project's ordered instruction list.
func (s *Service) Trigger(ctx context.Context, opts TriggerOptions) (*model.Build, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	now := time.Now()

	if len(opts.Prompts) > 0 {
		prompts := make([]model.Prompt, 0, len(opts.Prompts))
		for i, body := range opts.Prompts {
			body = strings.TrimSpace(body)
			if body == "" {
				return nil, fmt.Errorf("prompt %d is empty: %w", i+1, model.ErrNotValid)
			}
			prompts = append(prompts, model.Prompt{
				ID:        ulid.Make().String(),
				ProjectID: opts.Config.ProjectID,
				Sequence:  i + 1,
				Body:      body,
				CreatedAt: now,
			})
		}
		if err := s.repo.CreatePrompts(ctx, prompts); err != nil {
			return nil, fmt.Errorf("could not store prompts: %w", err)
		}
	}

	stored, err := s.repo.ListPrompts(ctx, opts.Config.ProjectID, storage.PromptFilter{})
	if err != nil {
		return nil, fmt.Errorf("could not list prompts: %w", err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("project %s has no prompts: %w", opts.Config.ProjectID, model.ErrNotValid)
	}

	// Snapshot the prompt texts onto the build config so the record is
	// self-describing even if the prompt list changes later.
	opts.Config.Prompts = make([]string, 0, len(stored))
	for _, p := range stored {
		opts.Config.Prompts = append(opts.Config.Prompts, p.Body)
	}

	build := model.Build{
		ID:        ulid.Make().String(),
		ProjectID: opts.Config.ProjectID,
		Status:    model.BuildStatusPending,
		Config:    opts.Config,
		CreatedAt: now,
	}

	if err := s.repo.CreateBuild(ctx, build); err != nil {
		return nil, fmt.Errorf("could not save build: %w", err)
	}

	s.logger.Infof("Triggered build %s for project %s (%d prompts)", build.ID, build.ProjectID, len(stored))

	return &build, nil
}
