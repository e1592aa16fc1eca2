package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/appforge/appforge/internal/conventions"
	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
)

// Accessor manages on-disk project workspaces.
type Accessor interface {
	// Create creates a fresh workspace directory for a project and returns
	// its absolute path.
	Create(ctx context.Context, projectName string) (string, error)
	// Verify checks that an existing workspace is present and writable.
	Verify(ctx context.Context, path string) error
}

// DirAccessorConfig is the configuration for the directory accessor.
type DirAccessorConfig struct {
	// Root is the directory all workspaces are created under.
	Root   string
	Logger log.Logger
}

func (c *DirAccessorConfig) defaults() error {
	if c.Root == "" {
		return fmt.Errorf("workspace root is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "workspace.DirAccessor"})
	return nil
}

// DirAccessor is the filesystem implementation of Accessor.
type DirAccessor struct {
	root   string
	logger log.Logger
}

// NewDirAccessor creates a new directory accessor.
func NewDirAccessor(cfg DirAccessorConfig) (*DirAccessor, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &DirAccessor{
		root:   cfg.Root,
		logger: cfg.Logger,
	}, nil
}

// Create creates a fresh workspace directory.
func (a *DirAccessor) Create(ctx context.Context, projectName string) (string, error) {
	name := conventions.WorkspaceDirName(projectName, ulid.Make().String())
	path := filepath.Join(a.root, name)

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("could not resolve workspace path: %w", err)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("could not create workspace directory: %w", err)
	}

	a.logger.Infof("Created workspace: %s", abs)
	return abs, nil
}

// Verify checks that the workspace exists, is a directory and is writable.
func (a *DirAccessor) Verify(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("workspace %s: %w", path, model.ErrWorkspaceMissing)
	}
	if err != nil {
		return fmt.Errorf("could not stat workspace: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace %s is not a directory: %w", path, model.ErrWorkspaceMissing)
	}

	// Writability probe, a read-only workspace can't take generated code.
	probe, err := os.CreateTemp(path, ".appforge-probe-*")
	if err != nil {
		return fmt.Errorf("workspace %s is not writable: %w", path, err)
	}
	probeName := probe.Name()
	probe.Close()
	os.Remove(probeName)

	return nil
}
