package claudecli_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/agent"
	"github.com/appforge/appforge/internal/agent/claudecli"
	"github.com/appforge/appforge/internal/model"
)

// fakeAgentScript writes an executable script that plays the agent role and
// returns its path.
func fakeAgentScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-agent")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestRunnerForwardsEventsInOrder(t *testing.T) {
	bin := fakeAgentScript(t, `
echo '{"type":"status","message":"thinking"}'
echo '{"type":"file","message":"wrote page","path":"src/App.tsx"}'
echo 'plain text line'
echo '{"type":"done","summary":"all good"}'
`)

	runner, err := claudecli.NewRunner(claudecli.RunnerConfig{Binary: bin})
	require.NoError(t, err)

	var got []agent.Event
	res, err := runner.Run(context.Background(), agent.Request{
		WorkspacePath: t.TempDir(),
		Prompt:        "create a landing page",
		Timeout:       10 * time.Second,
		Events:        func(e agent.Event) { got = append(got, e) },
	})
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, agent.EventTypeStatus, got[0].Type)
	assert.Equal(t, "thinking", got[0].Message)
	assert.Equal(t, agent.EventTypeFile, got[1].Type)
	assert.Equal(t, "src/App.tsx", got[1].Path)
	assert.Equal(t, agent.EventTypeStatus, got[2].Type)
	assert.Equal(t, "plain text line", got[2].Message)
	assert.Equal(t, agent.EventTypeDone, got[3].Type)

	assert.Equal(t, []string{"src/App.tsx"}, res.ChangedFiles)
	assert.Equal(t, "all good", res.Summary)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunnerTimeout(t *testing.T) {
	bin := fakeAgentScript(t, `sleep 30`)

	runner, err := claudecli.NewRunner(claudecli.RunnerConfig{Binary: bin})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), agent.Request{
		WorkspacePath: t.TempDir(),
		Prompt:        "anything",
		Timeout:       200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAgentTimeout))
}

func TestRunnerUnavailable(t *testing.T) {
	runner, err := claudecli.NewRunner(claudecli.RunnerConfig{Binary: "definitely-not-installed-agent"})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), agent.Request{
		WorkspacePath: t.TempDir(),
		Prompt:        "anything",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAgentUnavailable))
}

func TestRunnerNonZeroExit(t *testing.T) {
	bin := fakeAgentScript(t, `
echo '{"type":"status","message":"starting"}'
echo 'boom' >&2
exit 3
`)

	runner, err := claudecli.NewRunner(claudecli.RunnerConfig{Binary: bin})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), agent.Request{
		WorkspacePath: t.TempDir(),
		Prompt:        "anything",
		Timeout:       10 * time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 3")
	assert.Contains(t, err.Error(), "boom")
}
