package claudecli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/appforge/appforge/internal/agent"
	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
)

const (
	// eventBuffer bounds the queue between the process reader and the
	// caller, decoupling agent output bursts from event handling latency.
	eventBuffer = 64

	// stderrTailLen is how much trailing stderr is kept for diagnostics.
	stderrTailLen = 2048

	waitDelay = 5 * time.Second
)

// RunnerConfig is the configuration for the claude CLI runner.
type RunnerConfig struct {
	// Binary is the agent CLI binary name or path.
	Binary string
	// ExtraArgs are appended to every invocation.
	ExtraArgs []string
	Logger    log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Binary == "" {
		c.Binary = "claude"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "agent.ClaudeCLI"})
	return nil
}

// Runner drives the claude CLI as the generation agent, one process per
// prompt.
type Runner struct {
	binary    string
	extraArgs []string
	logger    log.Logger
}

// NewRunner creates a new claude CLI runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		binary:    cfg.Binary,
		extraArgs: cfg.ExtraArgs,
		logger:    cfg.Logger,
	}, nil
}

// Run invokes the agent once and forwards its events in arrival order.
func (r *Runner) Run(ctx context.Context, req agent.Request) (*agent.Result, error) {
	if _, err := exec.LookPath(r.binary); err != nil {
		return nil, fmt.Errorf("agent binary %q not found: %w", r.binary, model.ErrAgentUnavailable)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = agent.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"-p", req.Prompt, "--output-format", "stream-json", "--verbose"}
	args = append(args, r.extraArgs...)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = req.WorkspacePath
	cmd.Env = mergedEnv(req.Env)
	cmd.WaitDelay = waitDelay

	stderr := &tailBuffer{max: stderrTailLen}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("could not open agent stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start agent: %w", err)
	}
	r.logger.Debugf("Started agent process %d in %s", cmd.Process.Pid, req.WorkspacePath)

	// The reader goroutine produces into a bounded channel, Run consumes and
	// forwards, so process lifecycle is decoupled from event handling.
	events := make(chan agent.Event, eventBuffer)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			events <- agent.ParseStreamLine(scanner.Text())
		}
	}()

	result := &agent.Result{}
	for ev := range events {
		switch ev.Type {
		case agent.EventTypeFile:
			result.ChangedFiles = append(result.ChangedFiles, ev.Path)
		case agent.EventTypeDone:
			result.Summary = ev.Message
		}
		if req.Events != nil {
			req.Events(ev)
		}
	}

	err = cmd.Wait()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("agent exceeded %s: %w", timeout, model.ErrAgentTimeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return nil, fmt.Errorf("agent exited with code %d: %s", exitErr.ExitCode(), stderr.String())
		}
		return nil, fmt.Errorf("agent process failed: %w", err)
	}

	return result, nil
}

func mergedEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

// tailBuffer keeps only the last max bytes written.
type tailBuffer struct {
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.max {
		b.buf = b.buf[len(b.buf)-b.max:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return strings.TrimSpace(string(b.buf))
}
