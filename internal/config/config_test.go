package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/config"
)

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		content *string
		expCfg  config.Config
		expErr  bool
	}{
		"missing file should yield defaults": {
			content: nil,
			expCfg: config.Config{
				Runner:      "cli",
				AgentBinary: "claude",
			},
		},
		"full file should be loaded": {
			content: strPtr(`
workspace_root: /data/workspaces
runner: docker
agent_image: ghcr.io/acme/agent:latest
step_timeout: 10m
`),
			expCfg: config.Config{
				WorkspaceRoot: "/data/workspaces",
				Runner:        "docker",
				AgentBinary:   "claude",
				AgentImage:    "ghcr.io/acme/agent:latest",
				StepTimeout:   10 * time.Minute,
			},
		},
		"partial file should keep defaults for the rest": {
			content: strPtr("workspace_root: /data/workspaces\n"),
			expCfg: config.Config{
				WorkspaceRoot: "/data/workspaces",
				Runner:        "cli",
				AgentBinary:   "claude",
			},
		},
		"unknown runner should fail": {
			content: strPtr("runner: kubernetes\n"),
			expErr:  true,
		},
		"broken yaml should fail": {
			content: strPtr("runner: [\n"),
			expErr:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if test.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*test.content), 0644))
			}

			cfg, err := config.Load(path)
			if test.expErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expCfg, *cfg)
		})
	}
}

func strPtr(s string) *string { return &s }
