package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixtrece/beats-server/internal/domain"
	"github.com/sixtrece/beats-server/internal/id"
	"github.com/sixtrece/beats-server/internal/ratelimit"
	"github.com/sixtrece/beats-server/internal/service"
	"github.com/sixtrece/beats-server/internal/sse"
	"github.com/sixtrece/beats-server/internal/store"
	"github.com/sixtrece/beats-server/internal/store/sqlstore"
	"github.com/sixtrece/beats-server/internal/validation"
)

// testEnvelope mirrors the response envelope with a typed payload.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

type testServer struct {
	*Server
	api   humatest.TestAPI
	store *sqlstore.Store
	ids   map[string]int64
}

type testOption func(*Options)

func withLikeLimiter(l *ratelimit.KeyedRateLimiter) testOption {
	return func(o *Options) { o.LikeLimiter = l }
}

func withProduction() testOption {
	return func(o *Options) { o.ExposeErrorDetails = false }
}

func withAssets(audioDir string) testOption {
	return func(o *Options) { o.AudioDir = audioDir }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestServer creates a server over a seeded SQLite catalog:
// Alpha (Trap, [x]), Beta (Drill), Gamma (Trap, [x, y]) by Sixtrece,
// and "Night Drive" (Lo-fi) by Kilo.
func setupTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := discardLogger()

	st, err := sqlstore.Open(ctx, sqlstore.SQLite{}, filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ids := seedCatalog(t, st)

	return newTestServer(t, st, st, ids, opts...)
}

func newTestServer(t *testing.T, items store.ItemStore, st *sqlstore.Store, ids map[string]int64, opts ...testOption) *testServer {
	t.Helper()
	logger := discardLogger()

	manager := sse.NewManager(logger)
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	catalog := service.NewCatalogService(items, manager, validation.New(), 100, logger)
	progress := service.NewProgressService(st, manager, 3, logger)
	require.NoError(t, progress.Init(context.Background()))

	o := Options{
		AllowedOrigins:     []string{"*"},
		ExposeErrorDetails: true,
		DefaultPageLimit:   6,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := NewServer(st, &Services{Catalog: catalog, Progress: progress}, manager, o, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		store:  st,
		ids:    ids,
	}
}

func seedCatalog(t *testing.T, st *sqlstore.Store) map[string]int64 {
	t.Helper()
	ctx := context.Background()

	sixtrece := &domain.Artist{Name: "Sixtrece"}
	_, err := st.FindOrCreateArtist(ctx, sixtrece)
	require.NoError(t, err)
	kilo := &domain.Artist{Name: "Kilo"}
	_, err = st.FindOrCreateArtist(ctx, kilo)
	require.NoError(t, err)

	items := []*domain.Item{
		{Title: "Alpha", ArtistID: sixtrece.ID, Price: 30, AudioRef: "/audio/alpha.mp3", Genre: "Trap", Tags: []string{"x"}},
		{Title: "Beta", ArtistID: sixtrece.ID, Price: 25, AudioRef: "/audio/beta.mp3", Genre: "Drill"},
		{Title: "Gamma", ArtistID: sixtrece.ID, Price: 40, AudioRef: "/audio/gamma.mp3", Genre: "Trap", Tags: []string{"x", "y"}},
		{Title: "Night Drive", ArtistID: kilo.ID, Price: 20, AudioRef: "/audio/night.mp3", Genre: "Lo-fi"},
	}
	ids := make(map[string]int64, len(items))
	for _, it := range items {
		require.NoError(t, st.CreateItem(ctx, it))
		ids[it.Title] = it.ID
	}
	return ids
}

func TestLiveness_PlainText(t *testing.T) {
	ts := setupTestServer(t)

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestRequestID(t *testing.T) {
	ts := setupTestServer(t)

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.True(t, id.Has(w.Header().Get("X-Request-Id"), id.Request))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "upstream-42")
	w = httptest.NewRecorder()
	ts.ServeHTTP(w, req)
	assert.Equal(t, "upstream-42", w.Header().Get("X-Request-Id"))
}

func TestHealthCheck_Components(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/health")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[HealthResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "no connected clients", env.Data.Components["sse"].Message)
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/api/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decodeEnvelope[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "unhealthy", env.Data.Status)
	assert.Equal(t, "database ping failed", env.Data.Components["database"].Message)
}

func TestFormatSSEStatus(t *testing.T) {
	assert.Equal(t, "no connected clients", formatSSEStatus(0))
	assert.Equal(t, "1 connected client", formatSSEStatus(1))
	assert.Equal(t, "1,250 connected clients", formatSSEStatus(1250))
}

func TestCORS_PreflightAllowed(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAssets_ServedFromConfiguredDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.mp3"), []byte("ID3-fake"), 0o644))

	ts := setupTestServer(t, withAssets(dir))

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audio/alpha.mp3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ID3-fake", w.Body.String())
	assert.Equal(t, CacheOneDay, w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audio/missing.mp3", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audio/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "directory listings are hidden")
}

func TestAssets_DisabledWhenUnset(t *testing.T) {
	ts := setupTestServer(t)

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/images/cover.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t)

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/items/{id}/like")
}

func TestUnknownRoute_Enveloped(t *testing.T) {
	ts := setupTestServer(t)

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope[any](t, w.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Equal(t, "no route for GET /api/nope", env.Message)
}

func TestEvents_DisabledWithoutManager(t *testing.T) {
	ts := setupTestServer(t)
	s := NewServer(ts.store, ts.services, nil, Options{}, discardLogger())

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	env := decodeEnvelope[any](t, w.Body.Bytes())
	assert.Equal(t, "UNAVAILABLE", env.Code)
}
