package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sixtrece/beats-server/internal/domain"
)

// ListArtists returns all artists ordered by id.
func (s *Store) ListArtists(ctx context.Context) ([]domain.Artist, error) {
	rows, err := s.queryContext(ctx,
		`SELECT id, name, profile_image_ref FROM artists ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	defer rows.Close()

	artists := []domain.Artist{}
	for rows.Next() {
		var (
			a   domain.Artist
			ref sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &ref); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		a.ProfileImageRef = ref.String
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// FindOrCreateArtist looks an artist up by exact name, inserting it when
// missing. a.ID is set either way; an existing profile image is kept unless
// the stored one is empty.
func (s *Store) FindOrCreateArtist(ctx context.Context, a *domain.Artist) (bool, error) {
	var ref sql.NullString
	err := s.queryRowContext(ctx,
		`SELECT id, profile_image_ref FROM artists WHERE name = ? ORDER BY id LIMIT 1`, a.Name,
	).Scan(&a.ID, &ref)

	switch {
	case err == nil:
		if !ref.Valid && a.ProfileImageRef != "" {
			if _, err := s.execContext(ctx,
				`UPDATE artists SET profile_image_ref = ? WHERE id = ?`, a.ProfileImageRef, a.ID); err != nil {
				return false, fmt.Errorf("update artist %q: %w", a.Name, err)
			}
		} else {
			a.ProfileImageRef = ref.String
		}
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("find artist %q: %w", a.Name, err)
	}

	err = s.queryRowContext(ctx,
		`INSERT INTO artists (name, profile_image_ref) VALUES (?, ?) RETURNING id`,
		a.Name, nullString(a.ProfileImageRef),
	).Scan(&a.ID)
	if err != nil {
		return false, fmt.Errorf("create artist %q: %w", a.Name, err)
	}
	return true, nil
}
