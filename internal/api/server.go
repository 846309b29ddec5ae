// Package api provides the HTTP API server and handlers for the beats catalog.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sixtrece/beats-server/internal/http/response"
	"github.com/sixtrece/beats-server/internal/ratelimit"
	"github.com/sixtrece/beats-server/internal/service"
	"github.com/sixtrece/beats-server/internal/sse"
)

// Cache-Control header values.
const (
	CacheOneDay  = "public, max-age=86400"
	CacheNoStore = "no-cache"
)

// Services groups the business services behind the operations.
type Services struct {
	Catalog  *service.CatalogService
	Progress *service.ProgressService
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	AllowedOrigins     []string
	ExposeErrorDetails bool
	DefaultPageLimit   int
	AudioDir           string
	ImageDir           string
	// Nil limiters leave the endpoint unthrottled.
	LikeLimiter  *ratelimit.KeyedRateLimiter
	ClickLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db         Pinger
	services   *Services
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	opts       Options
	logger     *slog.Logger
}

// NewServer creates the router with middleware, operations and static routes.
func NewServer(db Pinger, services *Services, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	if opts.DefaultPageLimit <= 0 {
		opts.DefaultPageLimit = 6
	}

	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "no route for "+r.Method+" "+r.URL.Path, logger)
	})

	humaConfig := huma.DefaultConfig("Beats API", "1.0.0")
	humaConfig.Info.Description = "Beat catalog browsing, likes and live updates"
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler(opts.ExposeErrorDetails)

	s := &Server{
		db:         db,
		services:   services,
		sseManager: sseManager,
		router:     router,
		api:        api,
		opts:       opts,
		logger:     logger,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger)
	}

	s.registerHealthRoutes()
	s.registerItemRoutes()
	s.registerCatalogRoutes()
	s.registerProgressRoutes()
	s.registerEventRoutes()
	s.registerAssetRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}
