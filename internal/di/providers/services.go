package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/sixtrece/beats-server/internal/config"
	"github.com/sixtrece/beats-server/internal/ratelimit"
	"github.com/sixtrece/beats-server/internal/service"
	"github.com/sixtrece/beats-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideCatalogService provides the catalog query service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewCatalogService(storeHandle.Store, sseHandle.Manager, v, cfg.Catalog.MaxPageLimit, log.Logger.Logger), nil
}

// ProvideProgressService provides the click progress service and makes sure
// its counter row exists.
func ProvideProgressService(i do.Injector) (*service.ProgressService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*LoggerHandle](i)

	svc := service.NewProgressService(storeHandle.Store, sseHandle.Manager, int64(cfg.Progress.TargetClicks), log.Logger.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Init(ctx); err != nil {
		return nil, err
	}

	return svc, nil
}

// RateLimiters holds the per-IP limiters for mutating endpoints.
type RateLimiters struct {
	Likes  *ratelimit.KeyedRateLimiter
	Clicks *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (r *RateLimiters) Shutdown() error {
	r.Likes.Stop()
	r.Clicks.Stop()
	return nil
}

// ProvideRateLimiters provides the like and click limiters.
func ProvideRateLimiters(i do.Injector) (*RateLimiters, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &RateLimiters{
		Likes:  ratelimit.PerInterval(cfg.RateLimit.LikesPerMinute, time.Minute, cfg.RateLimit.Burst),
		Clicks: ratelimit.PerInterval(cfg.RateLimit.ClicksPerMinute, time.Minute, cfg.RateLimit.Burst),
	}, nil
}
