package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sixtrece/beats-server/internal/domain"
	"github.com/sixtrece/beats-server/internal/store"
)

// progressID is the key of the single counter row.
const progressID = 1

const progressColumns = `id, current_clicks, target_clicks, is_completed`

func scanProgress(scanner interface{ Scan(dest ...any) error }) (*domain.Progress, error) {
	var p domain.Progress
	if err := scanner.Scan(&p.ID, &p.CurrentClicks, &p.TargetClicks, &p.IsCompleted); err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureProgress inserts the counter row if absent. An existing row keeps its
// counts and target.
func (s *Store) EnsureProgress(ctx context.Context, target int64) error {
	_, err := s.execContext(ctx, `
		INSERT INTO progress (id, current_clicks, target_clicks, is_completed)
		VALUES (?, 0, ?, FALSE)
		ON CONFLICT (id) DO NOTHING`,
		progressID, target,
	)
	if err != nil {
		return fmt.Errorf("ensure progress: %w", err)
	}
	return nil
}

// GetProgress returns store.ErrNotFound until EnsureProgress has run.
func (s *Store) GetProgress(ctx context.Context) (*domain.Progress, error) {
	p, err := scanProgress(s.queryRowContext(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE id = ?`, progressID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("progress", progressID)
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}

// IncrementProgress adds one click and recomputes completion in one statement.
func (s *Store) IncrementProgress(ctx context.Context) (*domain.Progress, error) {
	p, err := scanProgress(s.queryRowContext(ctx, `
		UPDATE progress
		SET current_clicks = current_clicks + 1,
		    is_completed = (current_clicks + 1 >= target_clicks)
		WHERE id = ?
		RETURNING `+progressColumns, progressID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("progress", progressID)
	}
	if err != nil {
		return nil, fmt.Errorf("increment progress: %w", err)
	}
	return p, nil
}
