package triggerbuild_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/app/triggerbuild"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
	"github.com/appforge/appforge/internal/storage/memory"
)

func validConfig() model.BuildConfig {
	return model.BuildConfig{
		ProjectID:      "prj-1",
		ProjectName:    "shop",
		Framework:      "react",
		PackageManager: "npm",
	}
}

func newService(t *testing.T) (*triggerbuild.Service, *memory.Repository) {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	svc, err := triggerbuild.NewService(triggerbuild.ServiceConfig{Repository: repo})
	require.NoError(t, err)
	return svc, repo
}

func TestService_Trigger(t *testing.T) {
	tests := map[string]struct {
		config   model.BuildConfig
		prompts  []string
		expErr   bool
		expErrIs error
	}{
		"valid config with prompts should create a pending build": {
			config:  validConfig(),
			prompts: []string{"scaffold the app", "add a product list"},
		},
		"missing framework should fail": {
			config: model.BuildConfig{
				ProjectID: "prj-1", PackageManager: "npm",
			},
			prompts:  []string{"scaffold the app"},
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"empty prompt text should fail": {
			config:   validConfig(),
			prompts:  []string{"scaffold the app", "   "},
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"no prompts anywhere should fail": {
			config:   validConfig(),
			prompts:  nil,
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, repo := newService(t)

			build, err := svc.Trigger(context.Background(), triggerbuild.TriggerOptions{
				Config:  test.config,
				Prompts: test.prompts,
			})

			if test.expErr {
				require.Error(err)
				if test.expErrIs != nil {
					assert.True(t, errors.Is(err, test.expErrIs))
				}
				return
			}

			require.NoError(err)
			assert.NotEmpty(t, build.ID)
			assert.Equal(t, model.BuildStatusPending, build.Status)
			assert.Empty(t, build.WorkspacePath)
			assert.Equal(t, test.prompts, build.Config.Prompts)

			stored, err := repo.ListPrompts(context.Background(), "prj-1", storage.PromptFilter{})
			require.NoError(err)
			require.Len(stored, len(test.prompts))
			for i, p := range stored {
				assert.Equal(t, i+1, p.Sequence)
				assert.Equal(t, test.prompts[i], p.Body)
				assert.False(t, p.Implemented)
			}
		})
	}
}

func TestService_TriggerExistingPrompts(t *testing.T) {
	svc, repo := newService(t)

	// Prompts stored by an earlier trigger for the same project.
	require.NoError(t, repo.CreatePrompts(context.Background(), []model.Prompt{
		{ID: "p-1", ProjectID: "prj-1", Sequence: 1, Body: "scaffold the app"},
	}))

	build, err := svc.Trigger(context.Background(), triggerbuild.TriggerOptions{Config: validConfig()})
	require.NoError(t, err)
	assert.Equal(t, []string{"scaffold the app"}, build.Config.Prompts)
}

func TestService_TriggerNeverPersistsSecrets(t *testing.T) {
	svc, repo := newService(t)

	cfg := validConfig()
	cfg.Secrets = model.RuntimeSecrets{ConnectionURL: "postgres://db", AnonKey: "anon"}

	build, err := svc.Trigger(context.Background(), triggerbuild.TriggerOptions{
		Config:  cfg,
		Prompts: []string{"scaffold the app"},
	})
	require.NoError(t, err)

	stored, err := repo.GetBuild(context.Background(), build.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Config.Secrets.ConnectionURL)
	assert.Empty(t, stored.Config.Secrets.AnonKey)
}
