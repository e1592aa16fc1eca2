package conventions

import (
	"path/filepath"
	"strings"
)

const (
	// DefaultDataDir is the default appforge data directory name (relative to home).
	DefaultDataDir = ".appforge"
	// WorkspacesDir is the subdirectory for generated project workspaces.
	WorkspacesDir = "workspaces"
	// DBFile is the SQLite database filename.
	DBFile = "appforge.db"
	// ConfigFile is the default tool configuration filename.
	ConfigFile = "config.yaml"
)

// DBPath returns the path to the SQLite database.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// ConfigPath returns the path to the tool configuration file.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}

// WorkspacesRoot returns the directory holding all project workspaces.
func WorkspacesRoot(dataDir string) string {
	return filepath.Join(dataDir, WorkspacesDir)
}

// WorkspaceDirName returns the directory name for a project workspace. The ID
// suffix keeps repeated fresh builds of the same project from colliding.
func WorkspaceDirName(projectName, id string) string {
	slug := strings.ToLower(strings.TrimSpace(projectName))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "project"
	}
	return slug + "-" + strings.ToLower(id)
}
