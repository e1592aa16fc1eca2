package model

import (
	"fmt"
	"time"
)

// BuildStatus represents the status of a build.
type BuildStatus string

const (
	// BuildStatusPending indicates the build has been triggered but not started.
	BuildStatusPending BuildStatus = "pending"
	// BuildStatusRunning indicates the build is executing steps.
	BuildStatusRunning BuildStatus = "running"
	// BuildStatusPaused indicates the build was paused externally.
	BuildStatusPaused BuildStatus = "paused"
	// BuildStatusCompleted indicates all steps finished successfully.
	BuildStatusCompleted BuildStatus = "completed"
	// BuildStatusFailed indicates the build stopped on an error.
	BuildStatusFailed BuildStatus = "failed"
)

// Build represents one automation run of a project's prompts.
type Build struct {
	ID            string
	ProjectID     string
	Status        BuildStatus
	WorkspacePath string // Empty until the workspace has been created.
	CurrentStep   int    // Count of steps durably completed, not "in progress".
	TotalSteps    int
	Config        BuildConfig
	FailureReason string
	CreatedAt     time.Time
	StartedAt     *time.Time
	FinishedAt    *time.Time
}

// BuildConfig is the static configuration for a build.
type BuildConfig struct {
	ProjectID      string
	ProjectName    string
	Framework      string
	PackageManager string
	// Prompts is the ordered snapshot taken at trigger time. It may be stale
	// versus the live prompt list, the orchestrator always refetches.
	Prompts []string

	// Secrets are runtime-only values merged per run. They must never reach
	// durable storage.
	Secrets RuntimeSecrets
}

// RuntimeSecrets are per-run credentials for the generated project's backing
// services. They live only for the duration of one orchestrator run.
type RuntimeSecrets struct {
	ConnectionURL string
	AnonKey       string
	AccessToken   string
}

// Merge overlays the non-empty values of other over s.
func (s RuntimeSecrets) Merge(other RuntimeSecrets) RuntimeSecrets {
	if other.ConnectionURL != "" {
		s.ConnectionURL = other.ConnectionURL
	}
	if other.AnonKey != "" {
		s.AnonKey = other.AnonKey
	}
	if other.AccessToken != "" {
		s.AccessToken = other.AccessToken
	}
	return s
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project id is required: %w", ErrNotValid)
	}
	if c.Framework == "" {
		return fmt.Errorf("framework is required: %w", ErrNotValid)
	}
	if c.PackageManager == "" {
		return fmt.Errorf("package manager is required: %w", ErrNotValid)
	}

	return nil
}

// Terminal reports whether the build is in a terminal status.
func (b *Build) Terminal() bool {
	return b.Status == BuildStatusCompleted || b.Status == BuildStatusFailed
}
