package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixtrece/beats-server/internal/api"
	"github.com/sixtrece/beats-server/internal/domain"
	domainerrors "github.com/sixtrece/beats-server/internal/errors"
	"github.com/sixtrece/beats-server/internal/service"
	"github.com/sixtrece/beats-server/internal/sse"
	"github.com/sixtrece/beats-server/internal/store/sqlstore"
	"github.com/sixtrece/beats-server/internal/validation"
)

// newTestClient starts a real API server over a seeded sqlite store.
func newTestClient(t *testing.T) (*Client, map[string]int64) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlstore.Open(ctx, sqlstore.SQLite{}, filepath.Join(t.TempDir(), "client.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ids := map[string]int64{}
	nova := &domain.Artist{Name: "Nova"}
	_, err = st.FindOrCreateArtist(ctx, nova)
	require.NoError(t, err)
	for _, it := range []*domain.Item{
		{Title: "Alpha", ArtistID: nova.ID, AudioRef: "/audio/alpha.mp3", Genre: "Trap", Tags: []string{"dark"}},
		{Title: "Beta", ArtistID: nova.ID, AudioRef: "/audio/beta.mp3", Genre: "Drill"},
	} {
		require.NoError(t, st.CreateItem(ctx, it))
		ids[it.Title] = it.ID
	}

	manager := sse.NewManager(logger)
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	progress := service.NewProgressService(st, manager, 2, logger)
	require.NoError(t, progress.Init(ctx))

	srv := api.NewServer(st, &api.Services{
		Catalog:  service.NewCatalogService(st, manager, validation.New(), 100, logger),
		Progress: progress,
	}, manager, api.Options{AllowedOrigins: []string{"*"}}, logger)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/", WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return c, ids
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("localhost:5000")
	assert.Error(t, err)

	_, err = New("ftp://example.com")
	assert.Error(t, err)
}

func TestClient_ListItems(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	page, err := c.ListItems(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alpha", page.Items[0].Title)
	assert.Equal(t, []string{"dark"}, page.Items[0].Tags)
	assert.Empty(t, page.Items[1].Tags)

	page, err = c.ListItems(ctx, ListParams{Genre: "Drill", Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Beta", page.Items[0].Title)
}

func TestClient_ListItems_ValidationError(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.ListItems(context.Background(), ListParams{Limit: 1000})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, domainerrors.CodeValidation, apiErr.Code)
	assert.Contains(t, apiErr.Message, "limit")
}

func TestClient_GetAndLike(t *testing.T) {
	c, ids := newTestClient(t)
	ctx := context.Background()

	item, err := c.GetItem(ctx, ids["Alpha"])
	require.NoError(t, err)
	assert.Equal(t, "Nova", item.ArtistName)
	assert.Zero(t, item.Likes)

	item, err = c.Like(ctx, ids["Alpha"])
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.Likes)

	_, err = c.Like(ctx, 9999)
	assert.True(t, IsNotFound(err))
}

func TestClient_CatalogLists(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	genres, err := c.Genres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drill", "Trap"}, genres)

	artists, err := c.Artists(ctx)
	require.NoError(t, err)
	require.Len(t, artists, 1)
	assert.Equal(t, "Nova", artists[0].Name)
}

func TestClient_Progress(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	p, err := c.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.TargetClicks)

	_, err = c.Click(ctx)
	require.NoError(t, err)
	p, err = c.Click(ctx)
	require.NoError(t, err)
	assert.True(t, p.IsCompleted)
}

func TestClient_NonEnvelopeResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.Genres(context.Background())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, domainerrors.CodeInternal, apiErr.Code)
}

func TestClient_AssetURL(t *testing.T) {
	c, err := New("http://beats.local:5000")
	require.NoError(t, err)

	assert.Equal(t, "http://beats.local:5000/audio/a.mp3", c.AssetURL("/audio/a.mp3"))
	assert.Equal(t, "https://cdn.example.com/a.mp3", c.AssetURL("https://cdn.example.com/a.mp3"))
	assert.Empty(t, c.AssetURL(""))
}
