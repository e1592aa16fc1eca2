package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/appforge/appforge/internal/app/triggerbuild"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/printer"
	"github.com/appforge/appforge/internal/storage/sqlite"
)

type TriggerCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	projectID      string
	projectName    string
	framework      string
	packageManager string
	prompts        []string
}

// NewTriggerCommand returns the trigger command.
func NewTriggerCommand(rootCmd *RootCommand, app *kingpin.Application) *TriggerCommand {
	c := &TriggerCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("trigger", "Create a new pending build for a project.")
	c.Cmd.Flag("project", "Project ID.").Required().StringVar(&c.projectID)
	c.Cmd.Flag("name", "Project name, used for the workspace directory.").StringVar(&c.projectName)
	c.Cmd.Flag("framework", "Target framework (e.g. react, vue, go).").Required().StringVar(&c.framework)
	c.Cmd.Flag("package-manager", "Package manager of the project (e.g. npm, pnpm, go, cargo).").Required().StringVar(&c.packageManager)
	c.Cmd.Flag("prompt", "Ordered instruction text. Can be repeated.").Short('p').StringsVar(&c.prompts)

	return c
}

func (c TriggerCommand) Name() string { return c.Cmd.FullCommand() }

func (c TriggerCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	// Create trigger service.
	svc, err := triggerbuild.NewService(triggerbuild.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	name := c.projectName
	if name == "" {
		name = c.projectID
	}

	build, err := svc.Trigger(ctx, triggerbuild.TriggerOptions{
		Config: model.BuildConfig{
			ProjectID:      c.projectID,
			ProjectName:    name,
			Framework:      c.framework,
			PackageManager: c.packageManager,
		},
		Prompts: c.prompts,
	})
	if err != nil {
		return fmt.Errorf("could not trigger build: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Triggered build: %s", build.ID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
