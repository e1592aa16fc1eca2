package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/model"
)

func TestBuildConfigValidate(t *testing.T) {
	tests := map[string]struct {
		config model.BuildConfig
		expErr bool
	}{
		"valid config should pass": {
			config: model.BuildConfig{
				ProjectID:      "prj-1",
				ProjectName:    "todo-app",
				Framework:      "react",
				PackageManager: "npm",
			},
			expErr: false,
		},
		"missing project id should fail": {
			config: model.BuildConfig{
				Framework:      "react",
				PackageManager: "npm",
			},
			expErr: true,
		},
		"missing framework should fail": {
			config: model.BuildConfig{
				ProjectID:      "prj-1",
				PackageManager: "npm",
			},
			expErr: true,
		},
		"missing package manager should fail": {
			config: model.BuildConfig{
				ProjectID: "prj-1",
				Framework: "react",
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.config.Validate()
			if test.expErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRuntimeSecretsMerge(t *testing.T) {
	tests := map[string]struct {
		base       model.RuntimeSecrets
		overlay    model.RuntimeSecrets
		expSecrets model.RuntimeSecrets
	}{
		"empty overlay keeps base values": {
			base:       model.RuntimeSecrets{ConnectionURL: "postgres://db", AnonKey: "anon"},
			overlay:    model.RuntimeSecrets{},
			expSecrets: model.RuntimeSecrets{ConnectionURL: "postgres://db", AnonKey: "anon"},
		},
		"overlay values win over base values": {
			base:    model.RuntimeSecrets{ConnectionURL: "postgres://db", AnonKey: "anon"},
			overlay: model.RuntimeSecrets{ConnectionURL: "postgres://other", AccessToken: "tok"},
			expSecrets: model.RuntimeSecrets{
				ConnectionURL: "postgres://other",
				AnonKey:       "anon",
				AccessToken:   "tok",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := test.base.Merge(test.overlay)
			assert.Equal(t, test.expSecrets, got)
		})
	}
}

func TestBuildTerminal(t *testing.T) {
	tests := map[string]struct {
		status      model.BuildStatus
		expTerminal bool
	}{
		"pending is not terminal":   {status: model.BuildStatusPending, expTerminal: false},
		"running is not terminal":   {status: model.BuildStatusRunning, expTerminal: false},
		"paused is not terminal":    {status: model.BuildStatusPaused, expTerminal: false},
		"completed is terminal":     {status: model.BuildStatusCompleted, expTerminal: true},
		"failed is terminal":        {status: model.BuildStatusFailed, expTerminal: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			b := model.Build{Status: test.status}
			assert.Equal(t, test.expTerminal, b.Terminal())
		})
	}
}
