package runbuild

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appforge/appforge/internal/eventlog"
	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/stepper"
	"github.com/appforge/appforge/internal/storage"
	"github.com/appforge/appforge/internal/workspace"
)

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Repository storage.Repository
	Workspaces workspace.Accessor
	Stepper    stepper.Executor
	Events     eventlog.Sink
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Workspaces == nil {
		return fmt.Errorf("workspace accessor is required")
	}
	if c.Stepper == nil {
		return fmt.Errorf("step executor is required")
	}
	if c.Events == nil {
		c.Events = eventlog.Noop
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.RunBuild"})
	return nil
}

// Service drives a build through its remaining steps: it owns every status
// transition of the build and survives process restarts by resuming from
// the persisted current step.
type Service struct {
	repo       storage.Repository
	workspaces workspace.Accessor
	stepper    stepper.Executor
	events     eventlog.Sink
	logger     log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:       cfg.Repository,
		workspaces: cfg.Workspaces,
		stepper:    cfg.Stepper,
		events:     cfg.Events,
		logger:     cfg.Logger,
	}, nil
}

// RunOptions are the options for running a build.
type RunOptions struct {
	BuildID string
	// Secrets are merged over the build config for this run only, they are
	// never written back to the repository.
	Secrets model.RuntimeSecrets
	// AgentEnv is extra environment passed to every agent invocation.
	AgentEnv map[string]string
}

// Run executes or resumes the build until it reaches a terminal status,
// is paused externally, or the context is cancelled. The returned build
// reflects the status the run ended on.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*model.Build, error) {
	build, err := s.repo.GetBuild(ctx, opts.BuildID)
	if err != nil {
		return nil, fmt.Errorf("could not get build: %w", err)
	}

	// Re-running a finished build is a no-op, not an error.
	if build.Status == model.BuildStatusCompleted {
		s.logger.Infof("Build %s already completed", build.ID)
		return build, nil
	}

	// Failed is terminal, it only becomes runnable again through an
	// explicit reset back to pending.
	if build.Status == model.BuildStatusFailed {
		return nil, fmt.Errorf("build %s has failed and must be reset before running again: %w", build.ID, model.ErrNotValid)
	}

	// Missing required config is an operator problem, report it without
	// burning a status transition.
	if err := build.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build config: %w", err)
	}

	isResume := build.WorkspacePath != ""

	// Secrets live only in this copy of the build for the duration of the
	// run.
	build.Config.Secrets = build.Config.Secrets.Merge(opts.Secrets)

	remaining, err := s.remainingPrompts(ctx, build, isResume)
	if err != nil {
		return nil, err
	}

	if isResume {
		build.TotalSteps = build.CurrentStep + len(remaining)
	} else {
		// Workspace creation counts as the first unit of work.
		build.TotalSteps = len(remaining) + 1
	}

	// A resume with nothing left means a previous run finished the work but
	// died before recording the terminal status.
	if isResume && len(remaining) == 0 {
		return s.finish(ctx, build, model.BuildStatusCompleted, "")
	}

	if err := s.prepareWorkspace(ctx, build, isResume); err != nil {
		return build, err
	}

	build, err = s.transition(ctx, build, model.BuildStatusRunning)
	if err != nil {
		return nil, err
	}
	if isResume {
		s.emit(ctx, build.ID, fmt.Sprintf("Resuming build at step %d/%d", build.CurrentStep+1, build.TotalSteps))
	} else {
		s.emit(ctx, build.ID, fmt.Sprintf("Build started, %d steps", build.TotalSteps))
	}

	for _, prompt := range remaining {
		// The run loop only advances while the stored status is still
		// running, an external pause lands here at the next boundary.
		fresh, err := s.repo.GetBuild(ctx, build.ID)
		if err != nil {
			return build, fmt.Errorf("could not refresh build: %w", err)
		}
		if fresh.Status != model.BuildStatusRunning {
			s.logger.Infof("Build %s is %s, stopping run loop", build.ID, fresh.Status)
			s.emit(ctx, build.ID, fmt.Sprintf("Run stopped at step %d, build is %s", fresh.CurrentStep, fresh.Status))
			fresh.Config.Secrets = build.Config.Secrets
			return fresh, nil
		}
		build.Status = fresh.Status
		build.CurrentStep = fresh.CurrentStep

		err = s.stepper.Execute(ctx, stepper.Request{
			Build:    *build,
			Prompt:   prompt,
			StepNum:  build.CurrentStep + 1,
			AgentEnv: opts.AgentEnv,
		})
		if err != nil {
			return s.finish(ctx, build, model.BuildStatusFailed, failureReason(err))
		}

		if err := s.repo.CompletePromptStep(ctx, build.ID, prompt.ID); err != nil {
			return s.finish(ctx, build, model.BuildStatusFailed, fmt.Sprintf("could not record step completion: %v", err))
		}
		build.CurrentStep++
	}

	return s.finish(ctx, build, model.BuildStatusCompleted, "")
}

func (s *Service) remainingPrompts(ctx context.Context, build *model.Build, isResume bool) ([]model.Prompt, error) {
	filter := storage.PromptFilter{OnlyUnimplemented: isResume}
	prompts, err := s.repo.ListPrompts(ctx, build.ProjectID, filter)
	if err != nil {
		return nil, fmt.Errorf("could not list prompts: %w", err)
	}
	return prompts, nil
}

// prepareWorkspace creates the workspace on a fresh run and verifies it on
// resume. A missing workspace on resume is a hard failure, recreating it
// would silently drop every already-implemented step.
func (s *Service) prepareWorkspace(ctx context.Context, build *model.Build, isResume bool) error {
	if !isResume {
		path, err := s.workspaces.Create(ctx, build.Config.ProjectName)
		if err != nil {
			reason := fmt.Sprintf("could not create workspace: %v", err)
			_, ferr := s.finish(ctx, build, model.BuildStatusFailed, reason)
			if ferr != nil {
				return ferr
			}
			return fmt.Errorf("%s", reason)
		}
		// CurrentStep stays at zero: it counts completed instructions, the
		// creation unit only widens TotalSteps.
		build.WorkspacePath = path
		s.emit(ctx, build.ID, fmt.Sprintf("Workspace created at %s", path))
		return nil
	}

	if err := s.workspaces.Verify(ctx, build.WorkspacePath); err != nil {
		reason := fmt.Sprintf("workspace not found, cannot resume: %v", err)
		_, ferr := s.finish(ctx, build, model.BuildStatusFailed, reason)
		if ferr != nil {
			return ferr
		}
		return fmt.Errorf("%s", reason)
	}
	return nil
}

// transition persists a status change and its timestamps.
func (s *Service) transition(ctx context.Context, build *model.Build, status model.BuildStatus) (*model.Build, error) {
	now := time.Now()
	build.Status = status
	switch status {
	case model.BuildStatusRunning:
		if build.StartedAt == nil {
			build.StartedAt = &now
		}
	case model.BuildStatusCompleted, model.BuildStatusFailed:
		build.FinishedAt = &now
	}

	if err := s.repo.UpdateBuild(ctx, *build); err != nil {
		return nil, fmt.Errorf("could not update build status to %s: %w", status, err)
	}

	return build, nil
}

// finish moves the build to a terminal status and emits the closing event.
func (s *Service) finish(ctx context.Context, build *model.Build, status model.BuildStatus, reason string) (*model.Build, error) {
	build.FailureReason = reason
	b, err := s.transition(ctx, build, status)
	if err != nil {
		return build, err
	}

	switch status {
	case model.BuildStatusCompleted:
		s.logger.Infof("Build %s completed (%d/%d steps)", b.ID, b.CurrentStep, b.TotalSteps)
		s.emit(ctx, b.ID, "Build completed")
	case model.BuildStatusFailed:
		s.logger.Errorf("Build %s failed: %s", b.ID, reason)
		s.events.Append(ctx, b.ID, fmt.Sprintf("Build failed: %s", reason), model.EventSeverityError)
	}

	return b, nil
}

// failureReason renders a step error into the stored failure reason,
// keeping the retryable-vs-permanent distinction visible to the operator.
func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrAgentUnavailable):
		return fmt.Sprintf("agent unavailable: %v", err)
	case errors.Is(err, model.ErrAgentTimeout):
		return fmt.Sprintf("agent timed out: %v", err)
	case errors.Is(err, model.ErrWorkspaceMissing):
		return fmt.Sprintf("workspace missing: %v", err)
	default:
		return err.Error()
	}
}

func (s *Service) emit(ctx context.Context, buildID, message string) {
	s.events.Append(ctx, buildID, message, model.EventSeverityInfo)
}
