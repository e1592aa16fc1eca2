package vcs_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/vcs"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitOut(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return string(out)
}

func TestGitCommitter(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	ws := t.TempDir()
	committer, err := vcs.NewGitCommitter(vcs.GitCommitterConfig{})
	require.NoError(t, err)

	require.NoError(t, committer.EnsureRepo(ctx, ws))
	// Idempotent.
	require.NoError(t, committer.EnsureRepo(ctx, ws))

	gitOut(t, ws, "config", "user.name", "Test User")
	gitOut(t, ws, "config", "user.email", "test@example.com")

	id, err := committer.Identity(ctx, ws)
	require.NoError(t, err)
	assert.Equal(t, "Test User", id.Name)
	assert.Equal(t, "test@example.com", id.Email)

	// Empty commit is a no-op.
	require.NoError(t, committer.CommitAll(ctx, ws, "Implement step 1"))

	require.NoError(t, os.WriteFile(filepath.Join(ws, "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, committer.CommitAll(ctx, ws, "Implement step 1"))

	log := gitOut(t, ws, "log", "--oneline")
	assert.Contains(t, log, "Implement step 1")
}

func TestGitCommitterUnavailable(t *testing.T) {
	committer, err := vcs.NewGitCommitter(vcs.GitCommitterConfig{Binary: "definitely-not-git"})
	require.NoError(t, err)

	err = committer.EnsureRepo(context.Background(), t.TempDir())
	require.ErrorIs(t, err, vcs.ErrUnavailable)
}
