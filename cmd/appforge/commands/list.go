package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/appforge/appforge/internal/app/listbuilds"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/printer"
	"github.com/appforge/appforge/internal/storage/sqlite"
)

type ListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	statusFilter string
	projectID    string
	format       string
}

// NewListCommand returns the list command.
func NewListCommand(rootCmd *RootCommand, app *kingpin.Application) *ListCommand {
	c := &ListCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("list", "List all builds.")
	c.Cmd.Flag("status", "Filter by status (pending, running, paused, completed, failed).").StringVar(&c.statusFilter)
	c.Cmd.Flag("project", "Filter by project ID.").StringVar(&c.projectID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c ListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Parse status filter if provided.
	var statusFilter *model.BuildStatus
	if c.statusFilter != "" {
		status := model.BuildStatus(strings.ToLower(c.statusFilter))
		switch status {
		case model.BuildStatusPending, model.BuildStatusRunning, model.BuildStatusPaused, model.BuildStatusCompleted, model.BuildStatusFailed:
			statusFilter = &status
		default:
			return fmt.Errorf("invalid status filter: %s (must be: pending, running, paused, completed, failed)", c.statusFilter)
		}
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	svc, err := listbuilds.NewService(listbuilds.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	builds, err := svc.List(ctx, listbuilds.Request{
		StatusFilter: statusFilter,
		ProjectID:    c.projectID,
	})
	if err != nil {
		return fmt.Errorf("could not list builds: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default:
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if len(builds) == 0 && c.format == "table" {
		return p.PrintMessage("No builds found")
	}

	if err := p.PrintList(builds); err != nil {
		return fmt.Errorf("could not print builds: %w", err)
	}

	return nil
}
