package vcs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/appforge/appforge/internal/log"
)

// ErrUnavailable is returned when no version control tooling is installed.
// Callers treat it as a skipped optional action, not a failure.
var ErrUnavailable = errors.New("version control unavailable")

// Identity is the author identity used for generated change-sets.
type Identity struct {
	Name  string
	Email string
}

// Committer tracks workspace change-sets.
type Committer interface {
	// Identity returns the configured author identity for a workspace.
	Identity(ctx context.Context, workspacePath string) (*Identity, error)
	// EnsureRepo initializes version control in the workspace if needed.
	EnsureRepo(ctx context.Context, workspacePath string) error
	// CommitAll commits every pending change. Committing with no changes is
	// a no-op.
	CommitAll(ctx context.Context, workspacePath, message string) error
}

// GitCommitterConfig is the configuration for the git committer.
type GitCommitterConfig struct {
	// Binary is the git binary name or path.
	Binary string
	Logger log.Logger
}

func (c *GitCommitterConfig) defaults() error {
	if c.Binary == "" {
		c.Binary = "git"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "vcs.Git"})
	return nil
}

// GitCommitter is the git implementation of Committer.
type GitCommitter struct {
	binary string
	logger log.Logger
}

// NewGitCommitter creates a new git committer.
func NewGitCommitter(cfg GitCommitterConfig) (*GitCommitter, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &GitCommitter{
		binary: cfg.Binary,
		logger: cfg.Logger,
	}, nil
}

// Identity returns the git author identity configured for the workspace.
func (g *GitCommitter) Identity(ctx context.Context, workspacePath string) (*Identity, error) {
	if _, err := exec.LookPath(g.binary); err != nil {
		return nil, fmt.Errorf("git binary %q not found: %w", g.binary, ErrUnavailable)
	}

	name, err := g.git(ctx, workspacePath, "config", "--get", "user.name")
	if err != nil {
		return nil, fmt.Errorf("could not read git user.name: %w", err)
	}
	email, err := g.git(ctx, workspacePath, "config", "--get", "user.email")
	if err != nil {
		return nil, fmt.Errorf("could not read git user.email: %w", err)
	}

	return &Identity{Name: name, Email: email}, nil
}

// EnsureRepo initializes a git repository in the workspace if there is none.
func (g *GitCommitter) EnsureRepo(ctx context.Context, workspacePath string) error {
	if _, err := exec.LookPath(g.binary); err != nil {
		return fmt.Errorf("git binary %q not found: %w", g.binary, ErrUnavailable)
	}

	if _, err := g.git(ctx, workspacePath, "rev-parse", "--git-dir"); err == nil {
		return nil
	}

	if _, err := g.git(ctx, workspacePath, "init"); err != nil {
		return fmt.Errorf("could not init git repository: %w", err)
	}

	g.logger.Debugf("Initialized git repository in %s", workspacePath)
	return nil
}

// CommitAll commits all pending changes in the workspace.
func (g *GitCommitter) CommitAll(ctx context.Context, workspacePath, message string) error {
	if _, err := exec.LookPath(g.binary); err != nil {
		return fmt.Errorf("git binary %q not found: %w", g.binary, ErrUnavailable)
	}

	if _, err := g.git(ctx, workspacePath, "add", "-A"); err != nil {
		return fmt.Errorf("could not stage changes: %w", err)
	}

	// Nothing staged means nothing to commit.
	if _, err := g.git(ctx, workspacePath, "diff", "--cached", "--quiet"); err == nil {
		g.logger.Debugf("No changes to commit in %s", workspacePath)
		return nil
	}

	if _, err := g.git(ctx, workspacePath, "commit", "-m", message); err != nil {
		return fmt.Errorf("could not commit changes: %w", err)
	}

	g.logger.Debugf("Committed changes in %s: %s", workspacePath, message)
	return nil
}

func (g *GitCommitter) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}
