package dockerrunner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/oklog/ulid/v2"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/appforge/appforge/internal/agent"
	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
)

// containerWorkspace is where the build workspace is mounted inside the
// agent container.
const containerWorkspace = "/workspace"

// DockerClient is the interface for the Docker operations that we use.
// This allows us to mock the Docker client for testing.
type DockerClient interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// RunnerConfig is the configuration for the Docker runner.
type RunnerConfig struct {
	Client DockerClient
	// Image is the agent container image.
	Image string
	// Binary is the agent CLI binary inside the image.
	Binary string
	// PullImage pulls the image before every invocation.
	PullImage bool
	Logger    log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Image == "" {
		return fmt.Errorf("agent image is required")
	}
	if c.Binary == "" {
		c.Binary = "claude"
	}
	if c.Client == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return fmt.Errorf("could not create Docker client: %w", err)
		}
		c.Client = cli
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "agent.Docker"})
	return nil
}

// Runner runs the generation agent inside a Docker container with the build
// workspace bind-mounted, one container per prompt.
type Runner struct {
	client    DockerClient
	image     string
	binary    string
	pullImage bool
	logger    log.Logger
}

// NewRunner creates a new Docker runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		client:    cfg.Client,
		image:     cfg.Image,
		binary:    cfg.Binary,
		pullImage: cfg.PullImage,
		logger:    cfg.Logger,
	}, nil
}

// Run invokes the agent once in a fresh container.
func (r *Runner) Run(ctx context.Context, req agent.Request) (*agent.Result, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = agent.DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if r.pullImage {
		reader, err := r.client.ImagePull(runCtx, r.image, image.PullOptions{})
		if err != nil {
			return nil, fmt.Errorf("could not pull agent image %s: %w", r.image, model.ErrAgentUnavailable)
		}
		_, _ = io.Copy(io.Discard, reader)
		reader.Close()
	}

	containerName := fmt.Sprintf("appforge-agent-%s", strings.ToLower(ulid.Make().String()))
	created, err := r.client.ContainerCreate(
		runCtx,
		&container.Config{
			Image:      r.image,
			Cmd:        append([]string{r.binary}, "-p", req.Prompt, "--output-format", "stream-json", "--verbose"),
			Env:        envSlice(req.Env),
			WorkingDir: containerWorkspace,
		},
		&container.HostConfig{
			Binds: []string{req.WorkspacePath + ":" + containerWorkspace},
		},
		nil,
		nil,
		containerName,
	)
	if err != nil {
		return nil, fmt.Errorf("could not create agent container: %w", model.ErrAgentUnavailable)
	}
	defer func() {
		// Cleanup runs on a fresh context, the run context may be done.
		rmCtx, rmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer rmCancel()
		if err := r.client.ContainerRemove(rmCtx, created.ID, container.RemoveOptions{Force: true}); err != nil {
			r.logger.Warningf("Could not remove agent container %s: %v", containerName, err)
		}
	}()

	if err := r.client.ContainerStart(runCtx, created.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("could not start agent container: %w", err)
	}
	r.logger.Debugf("Started agent container %s for %s", containerName, req.WorkspacePath)

	logs, err := r.client.ContainerLogs(runCtx, created.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not attach to agent logs: %w", err)
	}
	defer logs.Close()

	// Demultiplex the log stream into a pipe and parse line by line into a
	// bounded channel, same producer/consumer split as the CLI runner.
	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, logs)
		pw.CloseWithError(err)
	}()

	events := make(chan agent.Event, 64)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(pr)
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

	waitCh, errCh := r.client.ContainerWait(runCtx, created.ID, container.WaitConditionNotRunning)
	select {
	case status := <-waitCh:
		if status.StatusCode != 0 {
			result.ExitCode = int(status.StatusCode)
			return nil, fmt.Errorf("agent container exited with code %d", status.StatusCode)
		}
	case err := <-errCh:
		if cerr := runCtx.Err(); cerr != nil {
			r.stopContainer(created.ID)
			if cerr == context.DeadlineExceeded {
				return nil, fmt.Errorf("agent exceeded %s: %w", timeout, model.ErrAgentTimeout)
			}
			return nil, fmt.Errorf("agent invocation cancelled: %w", cerr)
		}
		return nil, fmt.Errorf("could not wait for agent container: %w", err)
	case <-runCtx.Done():
		r.stopContainer(created.ID)
		// Only the step deadline counts as a timeout, a caller cancel (e.g.
		// SIGINT) is reported as such.
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("agent exceeded %s: %w", timeout, model.ErrAgentTimeout)
		}
		return nil, fmt.Errorf("agent invocation cancelled: %w", runCtx.Err())
	}

	return result, nil
}

func (r *Runner) stopContainer(id string) {
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stopTimeout := 5
	if err := r.client.ContainerStop(stopCtx, id, container.StopOptions{Timeout: &stopTimeout}); err != nil {
		r.logger.Warningf("Could not stop agent container %s: %v", id, err)
	}
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
