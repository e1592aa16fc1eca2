package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional file configuration. Everything in it can also be
// set per invocation with flags, flags win.
type Config struct {
	// WorkspaceRoot is the directory workspaces are created under.
	WorkspaceRoot string
	// Runner selects the agent runner: cli, docker or fake.
	Runner string
	// AgentBinary is the agent executable used by the cli runner.
	AgentBinary string
	// AgentImage is the container image used by the docker runner.
	AgentImage string
	// StepTimeout is the wall-clock limit per step.
	StepTimeout time.Duration
}

// fileConfig is the on-disk YAML shape. Durations are strings ("10m") so
// the file stays human-editable.
type fileConfig struct {
	WorkspaceRoot string `yaml:"workspace_root"`
	Runner        string `yaml:"runner"`
	AgentBinary   string `yaml:"agent_binary"`
	AgentImage    string `yaml:"agent_image"`
	StepTimeout   string `yaml:"step_timeout"`
}

const (
	// DefaultRunner is the agent runner used when nothing selects one.
	DefaultRunner = "cli"
	// DefaultAgentBinary is the agent executable used by the cli runner.
	DefaultAgentBinary = "claude"
)

var validRunners = map[string]bool{"cli": true, "docker": true, "fake": true}

// Load reads the config file at path. A missing file is not an error, it
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	fc := fileConfig{}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	cfg.WorkspaceRoot = fc.WorkspaceRoot
	cfg.Runner = fc.Runner
	cfg.AgentBinary = fc.AgentBinary
	cfg.AgentImage = fc.AgentImage
	if fc.StepTimeout != "" {
		d, err := time.ParseDuration(fc.StepTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid step_timeout in %s: %w", path, err)
		}
		cfg.StepTimeout = d
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Runner == "" {
		c.Runner = DefaultRunner
	}
	if c.AgentBinary == "" {
		c.AgentBinary = DefaultAgentBinary
	}
}

func (c *Config) validate() error {
	if !validRunners[c.Runner] {
		return fmt.Errorf("unknown runner %q", c.Runner)
	}
	if c.StepTimeout < 0 {
		return fmt.Errorf("step_timeout cannot be negative")
	}
	return nil
}
