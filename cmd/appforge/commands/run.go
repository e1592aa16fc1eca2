package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/appforge/appforge/internal/agent"
	"github.com/appforge/appforge/internal/agent/claudecli"
	"github.com/appforge/appforge/internal/agent/dockerrunner"
	agentfake "github.com/appforge/appforge/internal/agent/fake"
	"github.com/appforge/appforge/internal/app/runbuild"
	"github.com/appforge/appforge/internal/config"
	"github.com/appforge/appforge/internal/eventlog"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/printer"
	"github.com/appforge/appforge/internal/stepper"
	"github.com/appforge/appforge/internal/storage/sqlite"
	utilsenv "github.com/appforge/appforge/internal/utils/env"
	"github.com/appforge/appforge/internal/vcs"
	"github.com/appforge/appforge/internal/workspace"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	buildID       string
	connectionURL string
	anonKey       string
	accessToken   string
	envFile       string
	envSpecs      []string
	runner        string
	agentBinary   string
	agentImage    string
	stepTimeout   time.Duration
	noCommit      bool
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run or resume a build until it finishes, fails or is paused.")
	c.Cmd.Arg("build-id", "Build ID.").Required().StringVar(&c.buildID)
	c.Cmd.Flag("connection-url", "Backend connection URL passed to the agent, never persisted.").Envar("APPFORGE_CONNECTION_URL").StringVar(&c.connectionURL)
	c.Cmd.Flag("anon-key", "Backend anonymous key passed to the agent, never persisted.").Envar("APPFORGE_ANON_KEY").StringVar(&c.anonKey)
	c.Cmd.Flag("access-token", "Backend access token passed to the agent, never persisted.").Envar("APPFORGE_ACCESS_TOKEN").StringVar(&c.accessToken)
	c.Cmd.Flag("env-file", "Load secrets and agent environment from a dotenv file.").StringVar(&c.envFile)
	c.Cmd.Flag("agent-env", "Extra agent environment variables (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("runner", "Agent runner to use.").EnumVar(&c.runner, "cli", "docker", "fake")
	c.Cmd.Flag("agent-binary", "Agent CLI binary for the cli runner.").StringVar(&c.agentBinary)
	c.Cmd.Flag("agent-image", "Agent container image for the docker runner.").StringVar(&c.agentImage)
	c.Cmd.Flag("step-timeout", "Wall-clock limit per step.").DurationVar(&c.stepTimeout)
	c.Cmd.Flag("no-commit", "Disable per-step git commits in the workspace.").BoolVar(&c.noCommit)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// File config fills whatever flags didn't set.
	fileCfg, err := config.Load(c.rootCmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	runnerType := c.runner
	if runnerType == "" {
		runnerType = fileCfg.Runner
	}
	agentBinary := c.agentBinary
	if agentBinary == "" {
		agentBinary = fileCfg.AgentBinary
	}
	agentImage := c.agentImage
	if agentImage == "" {
		agentImage = fileCfg.AgentImage
	}
	stepTimeout := c.stepTimeout
	if stepTimeout == 0 {
		stepTimeout = fileCfg.StepTimeout
	}
	workspaceRoot := c.rootCmd.WorkspaceRoot
	if fileCfg.WorkspaceRoot != "" {
		workspaceRoot = fileCfg.WorkspaceRoot
	}

	// Dotenv is loaded into the process environment so both secret lookup
	// and --agent-env KEY passthrough see it.
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			return fmt.Errorf("could not load env file %s: %w", c.envFile, err)
		}
	}

	agentEnv, err := utilsenv.ParseSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --agent-env value: %w", err)
	}

	secrets := model.RuntimeSecrets{
		ConnectionURL: firstNonEmpty(c.connectionURL, os.Getenv("APPFORGE_CONNECTION_URL")),
		AnonKey:       firstNonEmpty(c.anonKey, os.Getenv("APPFORGE_ANON_KEY")),
		AccessToken:   firstNonEmpty(c.accessToken, os.Getenv("APPFORGE_ACCESS_TOKEN")),
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	events, err := eventlog.NewStoreSink(eventlog.StoreSinkConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create event sink: %w", err)
	}

	workspaces, err := workspace.NewDirAccessor(workspace.DirAccessorConfig{
		Root:   workspaceRoot,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create workspace accessor: %w", err)
	}

	runner, err := c.newAgentRunner(runnerType, agentBinary, agentImage)
	if err != nil {
		return fmt.Errorf("could not create agent runner: %w", err)
	}

	var committer vcs.Committer
	if !c.noCommit {
		committer, err = vcs.NewGitCommitter(vcs.GitCommitterConfig{Logger: logger})
		if err != nil {
			return fmt.Errorf("could not create committer: %w", err)
		}
	}

	steps, err := stepper.NewService(stepper.ServiceConfig{
		Agent:       runner,
		Workspaces:  workspaces,
		Committer:   committer,
		Events:      events,
		StepTimeout: stepTimeout,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create step executor: %w", err)
	}

	svc, err := runbuild.NewService(runbuild.ServiceConfig{
		Repository: repo,
		Workspaces: workspaces,
		Stepper:    steps,
		Events:     events,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	build, err := svc.Run(ctx, runbuild.RunOptions{
		BuildID:  c.buildID,
		Secrets:  secrets,
		AgentEnv: agentEnv,
	})
	if err != nil {
		return fmt.Errorf("could not run build: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	msg := fmt.Sprintf("Build %s is %s (%s)", build.ID, build.Status, printer.Progress(*build))
	if build.FailureReason != "" {
		msg = fmt.Sprintf("%s: %s", msg, build.FailureReason)
	}
	if err := p.PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}

func (c RunCommand) newAgentRunner(runnerType, binary, image string) (agent.Runner, error) {
	switch runnerType {
	case "cli":
		return claudecli.NewRunner(claudecli.RunnerConfig{
			Binary: binary,
			Logger: c.rootCmd.Logger,
		})
	case "docker":
		return dockerrunner.NewRunner(dockerrunner.RunnerConfig{
			Image:  image,
			Binary: binary,
			Logger: c.rootCmd.Logger,
		})
	case "fake":
		return agentfake.NewRunner(agentfake.RunnerConfig{Logger: c.rootCmd.Logger})
	default:
		return nil, fmt.Errorf("unknown runner type %q", runnerType)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
