package service

import (
	"context"
	"log/slog"

	"github.com/sixtrece/beats-server/internal/domain"
	"github.com/sixtrece/beats-server/internal/errors"
	"github.com/sixtrece/beats-server/internal/sse"
	"github.com/sixtrece/beats-server/internal/store"
)

// ProgressService runs the shared click counter.
type ProgressService struct {
	store  store.ProgressStore
	events EventEmitter
	target int64
	logger *slog.Logger
}

// NewProgressService creates a progress service that bootstraps the counter
// with target clicks.
func NewProgressService(st store.ProgressStore, events EventEmitter, target int64, logger *slog.Logger) *ProgressService {
	return &ProgressService{
		store:  st,
		events: events,
		target: target,
		logger: logger,
	}
}

// Init creates the counter row if it does not exist yet.
func (s *ProgressService) Init(ctx context.Context) error {
	if err := s.store.EnsureProgress(ctx, s.target); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to initialize progress")
	}
	return nil
}

// Get returns the current counter.
func (s *ProgressService) Get(ctx context.Context) (*domain.Progress, error) {
	p, err := s.store.GetProgress(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFound("progress record not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to get progress")
	}
	return p, nil
}

// Click records one click and returns the updated counter.
func (s *ProgressService) Click(ctx context.Context) (*domain.Progress, error) {
	p, err := s.store.IncrementProgress(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFound("progress record not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to record click")
	}

	if s.events != nil {
		s.events.Emit(sse.NewProgressUpdatedEvent(*p))
	}

	if p.IsCompleted && p.CurrentClicks == p.TargetClicks {
		s.logger.Info("progress target reached", slog.Int64("target", p.TargetClicks))
	}
	return p, nil
}
