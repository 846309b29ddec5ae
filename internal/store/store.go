// Package store defines the persistence contracts for the beats catalog.
// Engine-specific implementations live in subpackages.
package store

import (
	"context"

	"github.com/sixtrece/beats-server/internal/domain"
)

// ItemStore reads the catalog and bumps like counters.
type ItemStore interface {
	// ListItems returns the window of items matching filter, ordered by id.
	ListItems(ctx context.Context, filter domain.ItemFilter, window domain.Window) ([]domain.Item, error)
	// CountItems counts distinct items matching filter, ignoring any window.
	CountItems(ctx context.Context, filter domain.ItemFilter) (int64, error)
	// GetItem returns ErrNotFound for unknown ids.
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	// IncrementLikes atomically adds one like and returns the new count.
	IncrementLikes(ctx context.Context, id int64) (int64, error)
	ListGenres(ctx context.Context) ([]string, error)
	ListArtists(ctx context.Context) ([]domain.Artist, error)
}

// ProgressStore persists the single-row click counter.
type ProgressStore interface {
	// EnsureProgress creates the counter row with target if it does not exist.
	EnsureProgress(ctx context.Context, target int64) error
	GetProgress(ctx context.Context) (*domain.Progress, error)
	IncrementProgress(ctx context.Context) (*domain.Progress, error)
}

// SeedStore writes catalog data for the administrative loader.
type SeedStore interface {
	FindOrCreateArtist(ctx context.Context, a *domain.Artist) (created bool, err error)
	CreateItem(ctx context.Context, item *domain.Item) error
	FindOrCreateTag(ctx context.Context, name string) (*domain.Tag, bool, error)
	SetItemTags(ctx context.Context, itemID int64, names []string) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	ItemStore
	ProgressStore
	SeedStore
	Ping(ctx context.Context) error
	Close() error
}
