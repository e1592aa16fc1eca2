package fake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/appforge/appforge/internal/agent"
	"github.com/appforge/appforge/internal/log"
)

// RunnerConfig is the configuration for the fake runner.
type RunnerConfig struct {
	Logger log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "agent.Fake"})
	return nil
}

// Runner is a fake agent that pretends to implement every prompt. Useful for
// development and for exercising the orchestration loop without the real
// agent installed.
type Runner struct {
	mu       sync.Mutex
	requests []agent.Request
	logger   log.Logger
}

// NewRunner creates a new fake runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{logger: cfg.Logger}, nil
}

// Run simulates one agent invocation.
func (r *Runner) Run(ctx context.Context, req agent.Request) (*agent.Result, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	r.logger.Infof("Fake agent implementing prompt in %s", req.WorkspacePath)

	emit := req.Events
	if emit == nil {
		emit = func(agent.Event) {}
	}
	emit(agent.Event{Type: agent.EventTypeStatus, Message: "analyzing prompt"})

	// Leave real files behind so downstream workspace checks hold.
	changed := []string{}
	manifest := filepath.Join(req.WorkspacePath, "package.json")
	if _, err := os.Stat(manifest); os.IsNotExist(err) {
		if err := os.WriteFile(manifest, []byte("{\n  \"name\": \"generated\",\n  \"private\": true\n}\n"), 0644); err != nil {
			return nil, fmt.Errorf("could not write manifest: %w", err)
		}
		changed = append(changed, "package.json")
	}

	if err := os.MkdirAll(filepath.Join(req.WorkspacePath, "src"), 0755); err != nil {
		return nil, fmt.Errorf("could not create src dir: %w", err)
	}
	name := fmt.Sprintf("src/generated-%d.txt", len(r.Requests()))
	if err := os.WriteFile(filepath.Join(req.WorkspacePath, name), []byte(req.Prompt+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("could not write generated file: %w", err)
	}
	changed = append(changed, name)

	emit(agent.Event{Type: agent.EventTypeFile, Message: "generated file", Path: name})
	emit(agent.Event{Type: agent.EventTypeDone, Message: "prompt implemented"})

	return &agent.Result{
		Summary:      "prompt implemented",
		ChangedFiles: changed,
	}, nil
}

// Requests returns the invocations seen so far.
func (r *Runner) Requests() []agent.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]agent.Request{}, r.requests...)
}
