package listbuilds

import (
	"context"
	"fmt"

	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
)

// ServiceConfig is the configuration for the list service.
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

// Service lists builds with optional filtering.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// StatusFilter only shows builds with this status when set.
	StatusFilter *model.BuildStatus
	// ProjectID only shows builds of this project when set.
	ProjectID string
}

// List lists all builds, optionally filtered.
func (s *Service) List(ctx context.Context, req Request) ([]model.Build, error) {
	builds, err := s.repo.ListBuilds(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list builds: %w", err)
	}

	filtered := make([]model.Build, 0, len(builds))
	for _, b := range builds {
		if req.StatusFilter != nil && b.Status != *req.StatusFilter {
			continue
		}
		if req.ProjectID != "" && b.ProjectID != req.ProjectID {
			continue
		}
		filtered = append(filtered, b)
	}

	s.logger.Debugf("found %d builds", len(filtered))
	return filtered, nil
}
