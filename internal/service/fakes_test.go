package service

import (
	"context"
	"sync/atomic"

	"github.com/sixtrece/beats-server/internal/domain"
)

// failingItemStore fails every call with err and counts how often it was hit.
type failingItemStore struct {
	err   error
	calls atomic.Int32
}

func (f *failingItemStore) ListItems(context.Context, domain.ItemFilter, domain.Window) ([]domain.Item, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingItemStore) CountItems(context.Context, domain.ItemFilter) (int64, error) {
	f.calls.Add(1)
	return 0, f.err
}

func (f *failingItemStore) GetItem(context.Context, int64) (*domain.Item, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingItemStore) IncrementLikes(context.Context, int64) (int64, error) {
	f.calls.Add(1)
	return 0, f.err
}

func (f *failingItemStore) ListGenres(context.Context) ([]string, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingItemStore) ListArtists(context.Context) ([]domain.Artist, error) {
	f.calls.Add(1)
	return nil, f.err
}
