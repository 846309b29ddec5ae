package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sixtrece/beats-server/internal/domain"
	"github.com/sixtrece/beats-server/internal/store"
)

// itemColumns is the ordered list of non-aggregated columns selected in item
// queries. Must match the scan order in scanItem.
const itemColumns = `items.id, items.title, items.artist_id, COALESCE(artists.name, ''),
	items.price, items.cover_ref, items.audio_ref, items.genre, items.bpm,
	items.duration, items.author, items.likes`

// itemGroupBy lists every non-aggregated column so the query is valid on
// engines that enforce full GROUP BY.
const itemGroupBy = `items.id, items.title, items.artist_id, artists.name,
	items.price, items.cover_ref, items.audio_ref, items.genre, items.bpm,
	items.duration, items.author, items.likes`

const itemJoins = `
	FROM items
	LEFT JOIN artists ON artists.id = items.artist_id
	LEFT JOIN item_tags ON item_tags.item_id = items.id
	LEFT JOIN tags ON tags.id = item_tags.tag_id`

// scanItem scans a row produced by itemSelect into a domain.Item.
func scanItem(scanner interface{ Scan(dest ...any) error }) (*domain.Item, error) {
	var (
		it       domain.Item
		coverRef sql.NullString
		genre    sql.NullString
		bpm      sql.NullInt64
		duration sql.NullString
		author   sql.NullString
		tagAgg   sql.NullString
	)

	err := scanner.Scan(
		&it.ID,
		&it.Title,
		&it.ArtistID,
		&it.ArtistName,
		&it.Price,
		&coverRef,
		&it.AudioRef,
		&genre,
		&bpm,
		&duration,
		&author,
		&it.Likes,
		&tagAgg,
	)
	if err != nil {
		return nil, err
	}

	it.CoverRef = coverRef.String
	it.Genre = genre.String
	it.BPM = int(bpm.Int64)
	it.Duration = duration.String
	it.Author = author.String
	it.Tags = splitTags(tagAgg)

	return &it, nil
}

func (s *Store) itemSelect() string {
	return `SELECT ` + itemColumns + `, ` + s.dialect.TagAggregate("tags.name") + itemJoins
}

// filterClause renders the WHERE clause for f. The search alternatives are
// grouped so the genre condition always applies to the whole predicate.
// Both sides of the search are case-folded by the dialect.
func (s *Store) filterClause(f domain.ItemFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := likePattern(s.dialect.Fold(q))
		conds = append(conds, `(`+s.dialect.Lower("items.title")+` LIKE ? ESCAPE '\' OR `+
			s.dialect.Lower("artists.name")+` LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		conds = append(conds, `items.genre = ?`)
		args = append(args, g)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\tWHERE " + strings.Join(conds, " AND "), args
}

// ListItems returns one window of matching items in id order.
func (s *Store) ListItems(ctx context.Context, filter domain.ItemFilter, window domain.Window) ([]domain.Item, error) {
	where, args := s.filterClause(filter)
	query := s.itemSelect() + where + `
	GROUP BY ` + itemGroupBy + `
	ORDER BY items.id ASC
	LIMIT ? OFFSET ?`
	args = append(args, window.Limit, window.Offset())

	rows, err := s.queryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}

// CountItems counts distinct items under the same predicate as ListItems.
// Tags are not joined, so rows are never multiplied.
func (s *Store) CountItems(ctx context.Context, filter domain.ItemFilter) (int64, error) {
	where, args := s.filterClause(filter)
	query := `SELECT COUNT(DISTINCT items.id)
	FROM items
	LEFT JOIN artists ON artists.id = items.artist_id` + where

	var count int64
	if err := s.queryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// GetItem retrieves an item with its tags.
// Returns store.ErrNotFound if the item does not exist.
func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	query := s.itemSelect() + `
	WHERE items.id = ?
	GROUP BY ` + itemGroupBy

	it, err := scanItem(s.queryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return it, nil
}

// IncrementLikes adds one like in a single statement and returns the new total.
// Returns store.ErrNotFound if the item does not exist.
func (s *Store) IncrementLikes(ctx context.Context, id int64) (int64, error) {
	var likes int64
	err := s.queryRowContext(ctx,
		`UPDATE items SET likes = likes + 1 WHERE id = ? RETURNING likes`, id,
	).Scan(&likes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.NotFound("item", id)
	}
	if err != nil {
		return 0, fmt.Errorf("increment likes %d: %w", id, err)
	}
	return likes, nil
}

// ListGenres returns distinct, non-blank genres in lexical order.
func (s *Store) ListGenres(ctx context.Context) ([]string, error) {
	rows, err := s.queryContext(ctx, `
		SELECT DISTINCT genre FROM items
		WHERE genre IS NOT NULL AND TRIM(genre) <> ''
		ORDER BY genre ASC`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	genres := []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// CreateItem inserts item and its tags, assigning item.ID.
func (s *Store) CreateItem(ctx context.Context, item *domain.Item) error {
	err := s.queryRowContext(ctx, `
		INSERT INTO items (title, artist_id, price, cover_ref, audio_ref, genre, bpm, duration, author, likes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		item.Title,
		item.ArtistID,
		item.Price,
		nullString(item.CoverRef),
		item.AudioRef,
		nullString(item.Genre),
		nullInt64(int64(item.BPM)),
		nullString(item.Duration),
		nullString(item.Author),
		item.Likes,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("create item %q: %w", item.Title, err)
	}

	if len(item.Tags) > 0 {
		return s.SetItemTags(ctx, item.ID, item.Tags)
	}
	return nil
}
