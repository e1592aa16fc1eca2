package buildstatus

import (
	"context"
	"fmt"

	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
)

// ServiceConfig is the configuration for the status service.
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
	return nil
}

// Service retrieves build status and its progress event log.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Status retrieves a build by ID.
func (s *Service) Status(ctx context.Context, buildID string) (*model.Build, error) {
	s.logger.Debugf("getting status for build: %s", buildID)

	build, err := s.repo.GetBuild(ctx, buildID)
	if err != nil {
		return nil, fmt.Errorf("could not get build: %w", err)
	}

	return build, nil
}

// Events retrieves the build's progress event log in append order. A limit
// of zero returns everything, a positive limit returns the newest entries.
func (s *Service) Events(ctx context.Context, buildID string, limit int) ([]model.ProgressEvent, error) {
	// Make sure the build exists so a typo'd ID doesn't read as an empty
	// log.
	if _, err := s.repo.GetBuild(ctx, buildID); err != nil {
		return nil, fmt.Errorf("could not get build: %w", err)
	}

	events, err := s.repo.ListEvents(ctx, buildID, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list events: %w", err)
	}

	return events, nil
}
