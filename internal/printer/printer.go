package printer

import "github.com/appforge/appforge/internal/model"

// Printer knows how to print build information in different formats.
type Printer interface {
	PrintList(builds []model.Build) error
	PrintStatus(build model.Build) error
	PrintEvents(events []model.ProgressEvent) error
	PrintMessage(msg string) error
}
