package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// DB returns the underlying database handle.
func (r *Repository) DB() *sql.DB { return r.db }

// CreateBuild creates a new build in the repository.
//
// Runtime secrets are deliberately absent from the schema, they are never
// written.
func (r *Repository) CreateBuild(ctx context.Context, b model.Build) error {
	snapshot, err := json.Marshal(b.Config.Prompts)
	if err != nil {
		return fmt.Errorf("could not encode prompts snapshot: %w", err)
	}

	query := `
		INSERT INTO builds (
			id, project_id, status,
			workspace_path, current_step, total_steps,
			project_name, framework, package_manager, prompts_snapshot,
			failure_reason,
			created_at, started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		b.ID,
		b.ProjectID,
		b.Status,
		b.WorkspacePath,
		b.CurrentStep,
		b.TotalSteps,
		b.Config.ProjectName,
		b.Config.Framework,
		b.Config.PackageManager,
		string(snapshot),
		b.FailureReason,
		b.CreatedAt.Unix(),
		unixOrNil(b.StartedAt),
		unixOrNil(b.FinishedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: builds.") {
			return fmt.Errorf("build already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert build: %w", err)
	}

	r.logger.Debugf("Created build in repository: %s", b.ID)
	return nil
}

const buildColumns = `
	id, project_id, status,
	workspace_path, current_step, total_steps,
	project_name, framework, package_manager, prompts_snapshot,
	failure_reason,
	created_at, started_at, finished_at
`

// GetBuild retrieves a build by ID.
func (r *Repository) GetBuild(ctx context.Context, id string) (*model.Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	build, err := scanBuild(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("build %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query build: %w", err)
	}

	return build, nil
}

// ListBuilds returns all builds ordered by creation time.
func (r *Repository) ListBuilds(ctx context.Context) ([]model.Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query builds: %w", err)
	}
	defer rows.Close()

	builds := []model.Build{}
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan build: %w", err)
		}
		builds = append(builds, *build)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate builds: %w", err)
	}

	return builds, nil
}

// UpdateBuild updates an existing build.
func (r *Repository) UpdateBuild(ctx context.Context, b model.Build) error {
	snapshot, err := json.Marshal(b.Config.Prompts)
	if err != nil {
		return fmt.Errorf("could not encode prompts snapshot: %w", err)
	}

	query := `
		UPDATE builds SET
			status = ?,
			workspace_path = ?,
			current_step = ?,
			total_steps = ?,
			project_name = ?,
			framework = ?,
			package_manager = ?,
			prompts_snapshot = ?,
			failure_reason = ?,
			started_at = ?,
			finished_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		b.Status,
		b.WorkspacePath,
		b.CurrentStep,
		b.TotalSteps,
		b.Config.ProjectName,
		b.Config.Framework,
		b.Config.PackageManager,
		string(snapshot),
		b.FailureReason,
		unixOrNil(b.StartedAt),
		unixOrNil(b.FinishedAt),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update build: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("build %s: %w", b.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated build in repository: %s", b.ID)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(s scanner) (*model.Build, error) {
	var b model.Build
	var snapshot string
	var createdAt int64
	var startedAt, finishedAt *int64

	err := s.Scan(
		&b.ID,
		&b.ProjectID,
		&b.Status,
		&b.WorkspacePath,
		&b.CurrentStep,
		&b.TotalSteps,
		&b.Config.ProjectName,
		&b.Config.Framework,
		&b.Config.PackageManager,
		&snapshot,
		&b.FailureReason,
		&createdAt,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Config.ProjectID = b.ProjectID
	if err := json.Unmarshal([]byte(snapshot), &b.Config.Prompts); err != nil {
		return nil, fmt.Errorf("could not decode prompts snapshot: %w", err)
	}
	b.CreatedAt = time.Unix(createdAt, 0).UTC()
	b.StartedAt = timeOrNil(startedAt)
	b.FinishedAt = timeOrNil(finishedAt)

	return &b, nil
}

func unixOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}

func timeOrNil(u *int64) *time.Time {
	if u == nil {
		return nil
	}
	t := time.Unix(*u, 0).UTC()
	return &t
}
