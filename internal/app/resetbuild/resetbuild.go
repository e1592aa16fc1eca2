package resetbuild

import (
	"context"
	"fmt"

	"github.com/appforge/appforge/internal/eventlog"
	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
)

// ServiceConfig is the configuration for the reset service.
type ServiceConfig struct {
	Repository storage.Repository
	Events     eventlog.Sink
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Events == nil {
		c.Events = eventlog.Noop
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.ResetBuild"})
	return nil
}

// Service resets failed builds back to pending so they can be run again.
// This is the only way out of the failed status, the run loop never does
// it on its own.
type Service struct {
	repo   storage.Repository
	events eventlog.Sink
	logger log.Logger
}

// NewService creates a new reset service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		events: cfg.Events,
		logger: cfg.Logger,
	}, nil
}

// Reset moves a failed build back to pending and clears its failure
// reason. Progress (workspace, current step, implemented prompts) is kept,
// a later run resumes from where the failure happened.
func (s *Service) Reset(ctx context.Context, buildID string) (*model.Build, error) {
	build, err := s.repo.GetBuild(ctx, buildID)
	if err != nil {
		return nil, fmt.Errorf("could not get build: %w", err)
	}

	if build.Status != model.BuildStatusFailed {
		return nil, fmt.Errorf("build %s is %s, only failed builds can be reset: %w", build.ID, build.Status, model.ErrNotValid)
	}

	build.Status = model.BuildStatusPending
	build.FailureReason = ""
	build.FinishedAt = nil
	if err := s.repo.UpdateBuild(ctx, *build); err != nil {
		return nil, fmt.Errorf("could not update build: %w", err)
	}

	s.logger.Infof("Reset build %s to pending (step %d/%d)", build.ID, build.CurrentStep, build.TotalSteps)
	s.events.Append(ctx, build.ID, "Build reset to pending", model.EventSeverityInfo)

	return build, nil
}
