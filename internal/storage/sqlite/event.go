package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/appforge/appforge/internal/model"
)

// AppendEvent appends a progress event to the durable log.
func (r *Repository) AppendEvent(ctx context.Context, e model.ProgressEvent) error {
	query := `
		INSERT INTO progress_events (id, build_id, message, severity, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, e.ID, e.BuildID, e.Message, e.Severity, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("could not insert progress event: %w", err)
	}

	return nil
}

// ListEvents returns a build's progress events in append order. A positive
// limit returns only the most recent events.
func (r *Repository) ListEvents(ctx context.Context, buildID string, limit int) ([]model.ProgressEvent, error) {
	query := `
		SELECT id, build_id, message, severity, created_at
		FROM progress_events
		WHERE build_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, buildID)
	if err != nil {
		return nil, fmt.Errorf("could not query progress events: %w", err)
	}
	defer rows.Close()

	events := []model.ProgressEvent{}
	for rows.Next() {
		var e model.ProgressEvent
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Message, &e.Severity, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan progress event: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate progress events: %w", err)
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	return events, nil
}
