package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sixtrece/beats-server/internal/domain"
)

func (s *Server) registerProgressRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProgress",
		Method:      http.MethodGet,
		Path:        "/api/progress",
		Summary:     "Get click progress",
		Tags:        []string{"Progress"},
	}, s.handleGetProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "click",
		Method:      http.MethodPost,
		Path:        "/api/click",
		Summary:     "Record a click",
		Description: "Atomically increments the shared click counter and returns the new progress",
		Tags:        []string{"Progress"},
		Middlewares: s.rateLimited(s.opts.ClickLimiter),
	}, s.handleClick)
}

// ProgressOutput wraps the click progress for Huma.
type ProgressOutput struct {
	Body domain.Progress
}

func (s *Server) handleGetProgress(ctx context.Context, _ *struct{}) (*ProgressOutput, error) {
	p, err := s.services.Progress.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &ProgressOutput{Body: *p}, nil
}

func (s *Server) handleClick(ctx context.Context, _ *struct{}) (*ProgressOutput, error) {
	p, err := s.services.Progress.Click(ctx)
	if err != nil {
		return nil, err
	}
	return &ProgressOutput{Body: *p}, nil
}
