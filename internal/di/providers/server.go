package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/sixtrece/beats-server/internal/api"
	"github.com/sixtrece/beats-server/internal/config"
	"github.com/sixtrece/beats-server/internal/service"
)

// shutdownTimeout bounds each handle's Shutdown.
const shutdownTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer builds the router and starts listening in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	limiters := do.MustInvoke[*RateLimiters](i)
	log := do.MustInvoke[*LoggerHandle](i)

	services := &api.Services{
		Catalog:  do.MustInvoke[*service.CatalogService](i),
		Progress: do.MustInvoke[*service.ProgressService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, sseHandle.Manager, api.Options{
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		ExposeErrorDetails: !cfg.App.IsProduction(),
		DefaultPageLimit:   cfg.Catalog.DefaultPageLimit,
		AudioDir:           cfg.Assets.AudioDir,
		ImageDir:           cfg.Assets.ImageDir,
		LikeLimiter:        limiters.Likes,
		ClickLimiter:       limiters.Clicks,
	}, log.Logger.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
