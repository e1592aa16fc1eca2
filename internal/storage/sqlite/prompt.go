package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
)

// CreatePrompts stores the prompts of a project in a single transaction.
func (r *Repository) CreatePrompts(ctx context.Context, prompts []model.Prompt) error {
	if len(prompts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO prompts (id, project_id, sequence, body, implemented, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range prompts {
		_, err := stmt.ExecContext(ctx, p.ID, p.ProjectID, p.Sequence, p.Body, p.Implemented, p.CreatedAt.Unix())
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed: prompts.") {
				return fmt.Errorf("prompt already exists: %w", model.ErrAlreadyExists)
			}
			return fmt.Errorf("could not insert prompt: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Created %d prompts for project %s", len(prompts), prompts[0].ProjectID)
	return nil
}

// ListPrompts returns a project's prompts ordered by sequence.
func (r *Repository) ListPrompts(ctx context.Context, projectID string, filter storage.PromptFilter) ([]model.Prompt, error) {
	query := `
		SELECT id, project_id, sequence, body, implemented, created_at
		FROM prompts
		WHERE project_id = ?
	`
	args := []any{projectID}
	if filter.OnlyUnimplemented {
		query += ` AND implemented = 0`
	}
	query += ` ORDER BY sequence ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query prompts: %w", err)
	}
	defer rows.Close()

	prompts := []model.Prompt{}
	for rows.Next() {
		var p model.Prompt
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Sequence, &p.Body, &p.Implemented, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan prompt: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate prompts: %w", err)
	}

	return prompts, nil
}

// CompletePromptStep marks a prompt implemented and increments the build's
// current step in one transaction.
func (r *Repository) CompletePromptStep(ctx context.Context, buildID, promptID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE prompts SET implemented = 1 WHERE id = ?`, promptID)
	if err != nil {
		return fmt.Errorf("could not mark prompt implemented: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("prompt %s: %w", promptID, model.ErrNotFound)
	}

	res, err = tx.ExecContext(ctx, `UPDATE builds SET current_step = current_step + 1 WHERE id = ?`, buildID)
	if err != nil {
		return fmt.Errorf("could not increment build step: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("build %s: %w", buildID, model.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Completed prompt %s for build %s", promptID, buildID)
	return nil
}
