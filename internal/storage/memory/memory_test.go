package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
	"github.com/appforge/appforge/internal/storage/memory"
)

func newRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	return repo
}

func TestRepositoryBuilds(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	b := model.Build{
		ID:        "bld-1",
		ProjectID: "prj-1",
		Status:    model.BuildStatusPending,
		Config: model.BuildConfig{
			ProjectID:      "prj-1",
			Framework:      "react",
			PackageManager: "npm",
			Secrets:        model.RuntimeSecrets{AccessToken: "must-not-persist"},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateBuild(ctx, b))

	err := repo.CreateBuild(ctx, b)
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))

	got, err := repo.GetBuild(ctx, "bld-1")
	require.NoError(t, err)
	assert.Equal(t, model.BuildStatusPending, got.Status)
	assert.Equal(t, model.RuntimeSecrets{}, got.Config.Secrets)

	got.Status = model.BuildStatusRunning
	require.NoError(t, repo.UpdateBuild(ctx, *got))

	got2, err := repo.GetBuild(ctx, "bld-1")
	require.NoError(t, err)
	assert.Equal(t, model.BuildStatusRunning, got2.Status)

	_, err = repo.GetBuild(ctx, "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestRepositoryPromptsAndCompletion(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.CreateBuild(ctx, model.Build{ID: "bld-1", ProjectID: "prj-1", CreatedAt: time.Now().UTC()}))
	require.NoError(t, repo.CreatePrompts(ctx, []model.Prompt{
		{ID: "p-2", ProjectID: "prj-1", Sequence: 2, Body: "add auth"},
		{ID: "p-1", ProjectID: "prj-1", Sequence: 1, Body: "create landing page"},
	}))

	all, err := repo.ListPrompts(ctx, "prj-1", storage.PromptFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p-1", all[0].ID, "prompts should be ordered by sequence")

	require.NoError(t, repo.CompletePromptStep(ctx, "bld-1", "p-1"))

	remaining, err := repo.ListPrompts(ctx, "prj-1", storage.PromptFilter{OnlyUnimplemented: true})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "p-2", remaining[0].ID)

	b, err := repo.GetBuild(ctx, "bld-1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.CurrentStep)
}

func TestRepositoryEvents(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, repo.AppendEvent(ctx, model.ProgressEvent{BuildID: "bld-1", Message: msg}))
	}
	require.NoError(t, repo.AppendEvent(ctx, model.ProgressEvent{BuildID: "bld-other", Message: "noise"}))

	events, err := repo.ListEvents(ctx, "bld-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "one", events[0].Message)

	events, err = repo.ListEvents(ctx, "bld-1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "two", events[0].Message)
}
