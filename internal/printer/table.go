package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/appforge/appforge/internal/model"
)

// TablePrinter prints build information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintList prints builds in a table format.
func (t *TablePrinter) PrintList(builds []model.Build) error {
	if len(builds) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header
	fmt.Fprintln(tw, "ID\tPROJECT\tSTATUS\tPROGRESS\tCREATED")

	// Print rows
	for _, b := range builds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Config.ProjectName, b.Status, Progress(b), TimeAgo(b.CreatedAt))
	}

	return nil
}

// PrintStatus prints detailed build status.
func (t *TablePrinter) PrintStatus(build model.Build) error {
	fmt.Fprintf(t.writer, "ID:          %s\n", build.ID)
	fmt.Fprintf(t.writer, "Project:     %s (%s)\n", build.Config.ProjectName, build.ProjectID)
	fmt.Fprintf(t.writer, "Status:      %s\n", build.Status)
	fmt.Fprintf(t.writer, "Progress:    %s\n", Progress(build))
	fmt.Fprintf(t.writer, "Framework:   %s\n", build.Config.Framework)
	fmt.Fprintf(t.writer, "Pkg manager: %s\n", build.Config.PackageManager)

	if build.WorkspacePath != "" {
		fmt.Fprintf(t.writer, "Workspace:   %s\n", build.WorkspacePath)
	}
	if build.FailureReason != "" {
		fmt.Fprintf(t.writer, "Failure:     %s\n", build.FailureReason)
	}

	fmt.Fprintf(t.writer, "Created:     %s\n", FormatTimestamp(build.CreatedAt))

	if build.StartedAt != nil {
		fmt.Fprintf(t.writer, "Started:     %s\n", FormatTimestamp(*build.StartedAt))
	}
	if build.FinishedAt != nil {
		fmt.Fprintf(t.writer, "Finished:    %s\n", FormatTimestamp(*build.FinishedAt))
	}

	return nil
}

// PrintEvents prints the build's progress log, oldest first.
func (t *TablePrinter) PrintEvents(events []model.ProgressEvent) error {
	if len(events) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	for _, e := range events {
		marker := " "
		if e.Severity == model.EventSeverityError {
			marker = "!"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", FormatTimestamp(e.CreatedAt), marker, e.Message)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

// Progress renders "step/total (pct%)" for a build, handling the
// zero-total state before a run has sized the build.
func Progress(b model.Build) string {
	if b.TotalSteps <= 0 {
		return "-"
	}
	pct := (b.CurrentStep * 100) / b.TotalSteps
	return fmt.Sprintf("%d/%d (%d%%)", b.CurrentStep, b.TotalSteps, pct)
}
