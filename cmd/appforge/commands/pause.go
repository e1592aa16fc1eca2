package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/appforge/appforge/internal/app/pausebuild"
	"github.com/appforge/appforge/internal/eventlog"
	"github.com/appforge/appforge/internal/printer"
	"github.com/appforge/appforge/internal/storage/sqlite"
)

type PauseCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	buildID string
}

// NewPauseCommand returns the pause command.
func NewPauseCommand(rootCmd *RootCommand, app *kingpin.Application) *PauseCommand {
	c := &PauseCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("pause", "Pause a running build at its next step boundary.")
	c.Cmd.Arg("build-id", "Build ID.").Required().StringVar(&c.buildID)

	return c
}

func (c PauseCommand) Name() string { return c.Cmd.FullCommand() }

func (c PauseCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

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

	svc, err := pausebuild.NewService(pausebuild.ServiceConfig{
		Repository: repo,
		Events:     events,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	build, err := svc.Pause(ctx, c.buildID)
	if err != nil {
		return fmt.Errorf("could not pause build: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Pause requested for build %s, it stops at the next step boundary", build.ID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
