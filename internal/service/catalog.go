// Package service holds the business logic between the HTTP layer and storage.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sixtrece/beats-server/internal/domain"
	"github.com/sixtrece/beats-server/internal/errors"
	"github.com/sixtrece/beats-server/internal/sse"
	"github.com/sixtrece/beats-server/internal/store"
	"github.com/sixtrece/beats-server/internal/validation"
)

// EventEmitter publishes live updates. *sse.Manager implements it.
type EventEmitter interface {
	Emit(event sse.Event)
}

// ListItemsParams is a catalog page request. Search and Genre are trimmed;
// empty means no filter.
type ListItemsParams struct {
	Search string `json:"q" validate:"max=200"`
	Genre  string `json:"genre" validate:"max=100"`
	Page   int    `json:"page" validate:"gte=1"`
	Limit  int    `json:"limit"`
}

// CatalogService answers catalog queries and records likes.
type CatalogService struct {
	store     store.ItemStore
	events    EventEmitter
	validator *validation.Validator
	maxLimit  int
	logger    *slog.Logger
}

// NewCatalogService creates a catalog service. maxLimit bounds page sizes.
func NewCatalogService(st store.ItemStore, events EventEmitter, v *validation.Validator, maxLimit int, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:     st,
		events:    events,
		validator: v,
		maxLimit:  maxLimit,
		logger:    logger,
	}
}

// MaxLimit returns the largest accepted page size.
func (s *CatalogService) MaxLimit() int {
	return s.maxLimit
}

// ListItems returns one page of matching items and the total match count.
// Parameters are validated before any query runs. The count and the page are
// fetched concurrently.
func (s *CatalogService) ListItems(ctx context.Context, p ListItemsParams) (*domain.ItemPage, error) {
	p.Search = strings.TrimSpace(p.Search)
	p.Genre = strings.TrimSpace(p.Genre)

	if err := s.validator.Validate(p); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateField("limit", p.Limit, fmt.Sprintf("gte=1,lte=%d", s.maxLimit)); err != nil {
		return nil, err
	}

	filter := domain.ItemFilter{Search: p.Search, Genre: p.Genre}
	window := domain.Window{Page: p.Page, Limit: p.Limit}

	var (
		items []domain.Item
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.store.CountItems(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.store.ListItems(gctx, filter, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list items")
	}

	s.logger.Debug("listed items",
		slog.String("q", p.Search),
		slog.String("genre", p.Genre),
		slog.Int("page", p.Page),
		slog.Int("limit", p.Limit),
		slog.Int("returned", len(items)),
		slog.Int64("total", total))

	return &domain.ItemPage{Items: items, TotalCount: total}, nil
}

// GetItem returns a single item with its tags.
func (s *CatalogService) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.store.GetItem(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFoundf("item %d not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to get item")
	}
	return item, nil
}

// IncrementLikes atomically adds one like and returns the updated item.
func (s *CatalogService) IncrementLikes(ctx context.Context, id int64) (*domain.Item, error) {
	likes, err := s.store.IncrementLikes(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFoundf("item %d not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to like item")
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	// Another like may have landed in between; report the count we produced.
	item.Likes = likes

	if s.events != nil {
		s.events.Emit(sse.NewItemLikedEvent(id, likes))
	}

	s.logger.Info("item liked", slog.Int64("item_id", id), slog.Int64("likes", likes))
	return item, nil
}

// ListGenres returns distinct non-blank genres.
func (s *CatalogService) ListGenres(ctx context.Context) ([]string, error) {
	genres, err := s.store.ListGenres(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list genres")
	}
	return genres, nil
}

// ListArtists returns every artist.
func (s *CatalogService) ListArtists(ctx context.Context) ([]domain.Artist, error) {
	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list artists")
	}
	return artists, nil
}
