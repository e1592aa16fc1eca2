package stepper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/appforge/appforge/internal/agent"
	"github.com/appforge/appforge/internal/eventlog"
	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/vcs"
	"github.com/appforge/appforge/internal/workspace"
)

// Executor executes one build step.
type Executor interface {
	Execute(ctx context.Context, req Request) error
}

// ServiceConfig is the configuration for the step executor service.
type ServiceConfig struct {
	Agent      agent.Runner
	Workspaces workspace.Accessor
	// Committer is optional. When nil, change-sets are not committed and
	// the skip is logged, not failed.
	Committer vcs.Committer
	Events    eventlog.Sink
	// StepTimeout is the wall-clock limit per agent invocation.
	StepTimeout time.Duration
	// MaxEventLen bounds forwarded event messages.
	MaxEventLen int
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Agent == nil {
		return fmt.Errorf("agent runner is required")
	}
	if c.Workspaces == nil {
		return fmt.Errorf("workspace accessor is required")
	}
	if c.Events == nil {
		c.Events = eventlog.Noop
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = agent.DefaultTimeout
	}
	if c.MaxEventLen <= 0 {
		c.MaxEventLen = eventlog.DefaultMaxMessageLen
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "stepper.Service"})
	return nil
}

// Service executes one instruction's full lifecycle: pre-checks, agent
// invocation, output validation and change-set persistence.
type Service struct {
	agent       agent.Runner
	workspaces  workspace.Accessor
	committer   vcs.Committer
	events      eventlog.Sink
	stepTimeout time.Duration
	maxEventLen int
	logger      log.Logger
}

// NewService creates a new step executor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		agent:       cfg.Agent,
		workspaces:  cfg.Workspaces,
		committer:   cfg.Committer,
		events:      cfg.Events,
		stepTimeout: cfg.StepTimeout,
		maxEventLen: cfg.MaxEventLen,
		logger:      cfg.Logger,
	}, nil
}

// Request is one step execution.
type Request struct {
	Build  model.Build
	Prompt model.Prompt
	// StepNum is the 1-based display number of this step within the build.
	StepNum int
	// AgentEnv is extra environment for the agent process.
	AgentEnv map[string]string
}

// Execute runs one step. Failure classification: model.ErrWorkspaceMissing
// is fatal to the whole build, model.ErrAgentUnavailable and
// model.ErrAgentTimeout are retryable by a later resume, anything else is a
// step failure.
func (s *Service) Execute(ctx context.Context, req Request) error {
	buildID := req.Build.ID
	ws := req.Build.WorkspacePath

	s.emit(ctx, buildID, fmt.Sprintf("Step %d/%d: %s", req.StepNum, req.Build.TotalSteps, summary(req.Prompt.Body)), model.EventSeverityInfo)

	// The workspace can disappear under us (external deletion), check before
	// spending an agent invocation on it.
	if err := s.workspaces.Verify(ctx, ws); err != nil {
		s.emit(ctx, buildID, fmt.Sprintf("Workspace check failed: %v", err), model.EventSeverityError)
		if errors.Is(err, model.ErrWorkspaceMissing) {
			return err
		}
		return fmt.Errorf("workspace %s: %w", ws, model.ErrWorkspaceMissing)
	}

	// Version control identity is optional context, a missing committer or
	// identity only skips the commit at the end.
	commitEnabled := s.committer != nil
	if commitEnabled {
		if err := s.committer.EnsureRepo(ctx, ws); err != nil {
			s.logger.Warningf("Skipping change tracking: %v", err)
			s.emit(ctx, buildID, "Change tracking unavailable, skipping commits", model.EventSeverityInfo)
			commitEnabled = false
		}
	}
	if commitEnabled {
		id, err := s.committer.Identity(ctx, ws)
		if err != nil {
			s.logger.Warningf("No commit identity configured, skipping commits: %v", err)
			s.emit(ctx, buildID, "Commit identity unavailable, skipping commits", model.EventSeverityInfo)
			commitEnabled = false
		} else {
			s.logger.Debugf("Committing as %s <%s>", id.Name, id.Email)
		}
	}

	// Drive the agent, forwarding its events in arrival order.
	result, err := s.agent.Run(ctx, agent.Request{
		WorkspacePath: ws,
		Prompt:        req.Prompt.Body,
		Env:           s.agentEnv(req),
		Timeout:       s.stepTimeout,
		Events: func(ev agent.Event) {
			severity := model.EventSeverityInfo
			if ev.Type == agent.EventTypeError {
				severity = model.EventSeverityError
			}
			msg := ev.Message
			if ev.Type == agent.EventTypeFile && ev.Path != "" {
				msg = fmt.Sprintf("%s (%s)", ev.Message, ev.Path)
			}
			s.emit(ctx, buildID, eventlog.Truncate(msg, s.maxEventLen), severity)
		},
	})
	if err != nil {
		s.emit(ctx, buildID, fmt.Sprintf("Agent failed on step %d: %v", req.StepNum, err), model.EventSeverityError)
		return fmt.Errorf("agent invocation failed: %w", err)
	}

	// Lightweight structural validation of what the agent left behind.
	if err := s.validate(ws, req.Build.Config, result); err != nil {
		s.emit(ctx, buildID, fmt.Sprintf("Validation failed on step %d: %v", req.StepNum, err), model.EventSeverityError)
		return fmt.Errorf("step validation failed: %w", err)
	}

	if commitEnabled {
		msg := fmt.Sprintf("Implement step %d: %s", req.StepNum, summary(req.Prompt.Body))
		if err := s.committer.CommitAll(ctx, ws, msg); err != nil {
			// Commit problems don't undo a validated step.
			s.logger.Warningf("Could not commit step %d: %v", req.StepNum, err)
			s.emit(ctx, buildID, fmt.Sprintf("Could not commit step %d changes", req.StepNum), model.EventSeverityInfo)
		}
	}

	s.emit(ctx, buildID, fmt.Sprintf("Step %d/%d completed", req.StepNum, req.Build.TotalSteps), model.EventSeverityInfo)
	return nil
}

// validate checks the workspace structure the agent left behind. It is
// deliberately lightweight, a full toolchain build is the agent's job.
func (s *Service) validate(ws string, cfg model.BuildConfig, result *agent.Result) error {
	if result.Summary == "" && len(result.ChangedFiles) == 0 {
		return fmt.Errorf("agent produced no completion marker and no changed files")
	}

	manifest := manifestFile(cfg.PackageManager)
	if manifest == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(ws, manifest)); err != nil {
		return fmt.Errorf("project manifest %s missing after step", manifest)
	}

	return nil
}

// manifestFile maps a package manager to the manifest its projects carry.
func manifestFile(packageManager string) string {
	switch packageManager {
	case "npm", "pnpm", "yarn", "bun":
		return "package.json"
	case "go":
		return "go.mod"
	case "cargo":
		return "Cargo.toml"
	case "pip", "poetry", "uv":
		return "pyproject.toml"
	default:
		return ""
	}
}

func (s *Service) agentEnv(req Request) map[string]string {
	env := map[string]string{}
	for k, v := range req.AgentEnv {
		env[k] = v
	}

	secrets := req.Build.Config.Secrets
	if secrets.ConnectionURL != "" {
		env["APPFORGE_CONNECTION_URL"] = secrets.ConnectionURL
	}
	if secrets.AnonKey != "" {
		env["APPFORGE_ANON_KEY"] = secrets.AnonKey
	}
	if secrets.AccessToken != "" {
		env["APPFORGE_ACCESS_TOKEN"] = secrets.AccessToken
	}

	return env
}

func (s *Service) emit(ctx context.Context, buildID, message string, severity model.EventSeverity) {
	s.events.Append(ctx, buildID, message, severity)
}

// summary returns the first line of a prompt, bounded for log lines.
func summary(body string) string {
	for i, r := range body {
		if r == '\n' || i >= 80 {
			return body[:i] + "…"
		}
	}
	return body
}
