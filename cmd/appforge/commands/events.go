package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/appforge/appforge/internal/app/buildstatus"
	"github.com/appforge/appforge/internal/printer"
	"github.com/appforge/appforge/internal/storage/sqlite"
)

type EventsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	buildID string
	tail    int
	format  string
}

// NewEventsCommand returns the events command.
func NewEventsCommand(rootCmd *RootCommand, app *kingpin.Application) *EventsCommand {
	c := &EventsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("events", "Show the progress event log of a build.")
	c.Cmd.Arg("build-id", "Build ID.").Required().StringVar(&c.buildID)
	c.Cmd.Flag("tail", "Only show the last N events (0 shows everything).").Default("0").IntVar(&c.tail)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c EventsCommand) Name() string { return c.Cmd.FullCommand() }

func (c EventsCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	svc, err := buildstatus.NewService(buildstatus.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	events, err := svc.Events(ctx, c.buildID, c.tail)
	if err != nil {
		return fmt.Errorf("could not get build events: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default:
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if len(events) == 0 && c.format == "table" {
		return p.PrintMessage("No events recorded")
	}

	if err := p.PrintEvents(events); err != nil {
		return fmt.Errorf("could not print events: %w", err)
	}

	return nil
}
