package fake_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/agent"
	"github.com/appforge/appforge/internal/agent/fake"
)

func TestRunnerRun(t *testing.T) {
	ws := t.TempDir()

	runner, err := fake.NewRunner(fake.RunnerConfig{})
	require.NoError(t, err)

	var events []agent.Event
	result, err := runner.Run(context.Background(), agent.Request{
		WorkspacePath: ws,
		Prompt:        "scaffold the app",
		Events:        func(ev agent.Event) { events = append(events, ev) },
	})
	require.NoError(t, err)

	// First run scaffolds the manifest too.
	assert.Contains(t, result.ChangedFiles, "package.json")
	_, err = os.Stat(filepath.Join(ws, "package.json"))
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.Equal(t, agent.EventTypeStatus, events[0].Type)
	assert.Equal(t, agent.EventTypeDone, events[len(events)-1].Type)

	// Second run keeps the existing manifest untouched.
	result, err = runner.Run(context.Background(), agent.Request{
		WorkspacePath: ws,
		Prompt:        "add a page",
	})
	require.NoError(t, err)
	assert.NotContains(t, result.ChangedFiles, "package.json")

	require.Len(t, runner.Requests(), 2)
}
