package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sixtrece/beats-server/internal/domain"
	"github.com/sixtrece/beats-server/internal/store"
)

// getTagByName returns store.ErrNotFound if the tag does not exist.
func (s *Store) getTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	var t domain.Tag
	err := s.queryRowContext(ctx, `SELECT id, name FROM tags WHERE name = ?`, name).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("tag", name)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindOrCreateTag finds an existing tag by name or creates a new one.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) FindOrCreateTag(ctx context.Context, name string) (*domain.Tag, bool, error) {
	existing, err := s.getTagByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	t := &domain.Tag{Name: name}
	err = s.queryRowContext(ctx, `INSERT INTO tags (name) VALUES (?) RETURNING id`, name).Scan(&t.ID)
	if err != nil {
		// Lost a race with a concurrent insert of the same name.
		if s.dialect.IsUniqueViolation(err) {
			existing, getErr := s.getTagByName(ctx, name)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create tag %q: %w", name, err)
	}
	return t, true, nil
}

// SetItemTags replaces all tags on an item within a transaction.
// Names are normalized; unknown names are created.
func (s *Store) SetItemTags(ctx context.Context, itemID int64, names []string) error {
	names = domain.NormalizeTagNames(names)

	tagIDs := make([]int64, 0, len(names))
	for _, name := range names {
		t, _, err := s.FindOrCreateTag(ctx, name)
		if err != nil {
			return err
		}
		tagIDs = append(tagIDs, t.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM item_tags WHERE item_id = ?`), itemID); err != nil {
		return fmt.Errorf("clear item tags: %w", err)
	}

	insert := s.dialect.Rebind(`INSERT INTO item_tags (item_id, tag_id) VALUES (?, ?)`)
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, insert, itemID, tagID); err != nil {
			return fmt.Errorf("insert item tag: %w", err)
		}
	}

	return tx.Commit()
}
