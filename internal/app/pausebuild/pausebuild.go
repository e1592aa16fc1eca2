package pausebuild

import (
	"context"
	"fmt"

	"github.com/appforge/appforge/internal/eventlog"
	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
)

// ServiceConfig is the configuration for the pause service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.PauseBuild"})
	return nil
}

// Service requests a pause of a running build. The run loop observes the
// new status at its next step boundary, in-flight steps are not preempted.
type Service struct {
	repo   storage.Repository
	events eventlog.Sink
	logger log.Logger
}

// NewService creates a new pause service.
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

// Pause marks a running build paused.
func (s *Service) Pause(ctx context.Context, buildID string) (*model.Build, error) {
	build, err := s.repo.GetBuild(ctx, buildID)
	if err != nil {
		return nil, fmt.Errorf("could not get build: %w", err)
	}

	if build.Status != model.BuildStatusRunning {
		return nil, fmt.Errorf("build %s is %s, only running builds can be paused: %w", build.ID, build.Status, model.ErrNotValid)
	}

	build.Status = model.BuildStatusPaused
	if err := s.repo.UpdateBuild(ctx, *build); err != nil {
		return nil, fmt.Errorf("could not update build: %w", err)
	}

	s.logger.Infof("Pause requested for build %s", build.ID)
	s.events.Append(ctx, build.ID, "Pause requested, stopping at next step boundary", model.EventSeverityInfo)

	return build, nil
}
