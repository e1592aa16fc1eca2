package printer_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/printer"
)

func buildFixture() model.Build {
	createdAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return model.Build{
		ID:            "01234567890ABCDEFGHIJKLMNOP",
		ProjectID:     "prj-1",
		Status:        model.BuildStatusRunning,
		WorkspacePath: "/home/user/.appforge/workspaces/shop-01",
		CurrentStep:   2,
		TotalSteps:    4,
		CreatedAt:     createdAt,
		Config: model.BuildConfig{
			ProjectID:      "prj-1",
			ProjectName:    "shop",
			Framework:      "react",
			PackageManager: "npm",
		},
	}
}

func TestTablePrinterPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintStatus(buildFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Project:     shop (prj-1)")
	assert.Contains(t, out, "Status:      running")
	assert.Contains(t, out, "Progress:    2/4 (50%)")
	assert.Contains(t, out, "Workspace:   /home/user/.appforge/workspaces/shop-01")
	assert.NotContains(t, out, "Failure:")
}

func TestJSONPrinterPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintStatus(buildFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"status": "running"`)
	assert.Contains(t, out, `"current_step": 2`)
	assert.Contains(t, out, `"total_steps": 4`)
	assert.Contains(t, out, `"workspace_path": "/home/user/.appforge/workspaces/shop-01"`)
}

func TestTablePrinterPrintEvents(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintEvents([]model.ProgressEvent{
		{ID: "e-1", Severity: model.EventSeverityInfo, Message: "Build started", CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)},
		{ID: "e-2", Severity: model.EventSeverityError, Message: "Agent failed on step 2", CreatedAt: time.Date(2026, 8, 30, 10, 5, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Build started")
	assert.Contains(t, out, "!")
	assert.Contains(t, out, "Agent failed on step 2")
}

func TestProgress(t *testing.T) {
	tests := map[string]struct {
		build model.Build
		exp   string
	}{
		"unsized build should render a placeholder": {
			build: model.Build{},
			exp:   "-",
		},
		"partial progress should render step and percent": {
			build: model.Build{CurrentStep: 1, TotalSteps: 3},
			exp:   "1/3 (33%)",
		},
		"finished build should render full progress": {
			build: model.Build{CurrentStep: 4, TotalSteps: 4},
			exp:   "4/4 (100%)",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.Progress(test.build))
		})
	}
}

func TestPrintListEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(t, p.PrintList(nil))
	assert.Empty(t, buf.String())
}
