package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/appforge/appforge/internal/app/resetbuild"
	"github.com/appforge/appforge/internal/eventlog"
	"github.com/appforge/appforge/internal/printer"
	"github.com/appforge/appforge/internal/storage/sqlite"
)

type ResetCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	buildID string
}

// NewResetCommand returns the reset command.
func NewResetCommand(rootCmd *RootCommand, app *kingpin.Application) *ResetCommand {
	c := &ResetCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("reset", "Reset a failed build back to pending so it can run again.")
	c.Cmd.Arg("build-id", "Build ID.").Required().StringVar(&c.buildID)

	return c
}

func (c ResetCommand) Name() string { return c.Cmd.FullCommand() }

func (c ResetCommand) Run(ctx context.Context) error {
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

	svc, err := resetbuild.NewService(resetbuild.ServiceConfig{
		Repository: repo,
		Events:     events,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	build, err := svc.Reset(ctx, c.buildID)
	if err != nil {
		return fmt.Errorf("could not reset build: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Build %s reset to pending (resumes at step %d/%d)", build.ID, build.CurrentStep+1, build.TotalSteps)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
