package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/appforge/appforge/internal/model"
)

// JSONPrinter prints build information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// listItem represents a build in the list output (subset of fields).
type listItem struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	ProjectName string    `json:"project_name"`
	Status      string    `json:"status"`
	CurrentStep int       `json:"current_step"`
	TotalSteps  int       `json:"total_steps"`
	CreatedAt   time.Time `json:"created_at"`
}

// statusOutput represents the full build status output.
type statusOutput struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	ProjectName    string     `json:"project_name"`
	Status         string     `json:"status"`
	Framework      string     `json:"framework"`
	PackageManager string     `json:"package_manager"`
	WorkspacePath  string     `json:"workspace_path,omitempty"`
	CurrentStep    int        `json:"current_step"`
	TotalSteps     int        `json:"total_steps"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
}

// eventOutput represents one progress event in the log output.
type eventOutput struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintList prints builds in JSON format with a subset of fields.
func (j *JSONPrinter) PrintList(builds []model.Build) error {
	items := make([]listItem, len(builds))
	for i, b := range builds {
		items[i] = listItem{
			ID:          b.ID,
			ProjectID:   b.ProjectID,
			ProjectName: b.Config.ProjectName,
			Status:      string(b.Status),
			CurrentStep: b.CurrentStep,
			TotalSteps:  b.TotalSteps,
			CreatedAt:   b.CreatedAt.UTC(),
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintStatus prints detailed build status in JSON format.
func (j *JSONPrinter) PrintStatus(build model.Build) error {
	output := statusOutput{
		ID:             build.ID,
		ProjectID:      build.ProjectID,
		ProjectName:    build.Config.ProjectName,
		Status:         string(build.Status),
		Framework:      build.Config.Framework,
		PackageManager: build.Config.PackageManager,
		WorkspacePath:  build.WorkspacePath,
		CurrentStep:    build.CurrentStep,
		TotalSteps:     build.TotalSteps,
		FailureReason:  build.FailureReason,
		CreatedAt:      build.CreatedAt.UTC(),
	}

	if build.StartedAt != nil {
		utcTime := build.StartedAt.UTC()
		output.StartedAt = &utcTime
	}
	if build.FinishedAt != nil {
		utcTime := build.FinishedAt.UTC()
		output.FinishedAt = &utcTime
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintEvents prints the build's progress log in JSON format.
func (j *JSONPrinter) PrintEvents(events []model.ProgressEvent) error {
	items := make([]eventOutput, len(events))
	for i, e := range events {
		items[i] = eventOutput{
			ID:        e.ID,
			Severity:  string(e.Severity),
			Message:   e.Message,
			CreatedAt: e.CreatedAt.UTC(),
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	output := messageOutput{Message: msg}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
