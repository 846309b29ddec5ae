package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sixtrece/beats-server/internal/domain"
	"github.com/sixtrece/beats-server/internal/service"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listItems",
		Method:      http.MethodGet,
		Path:        "/api/items",
		Summary:     "List items",
		Description: "Returns a page of beats filtered by title/artist search and genre, with the total match count",
		Tags:        []string{"Items"},
	}, s.handleListItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/items/{id}",
		Summary:     "Get item",
		Description: "Returns a single beat with its tags",
		Tags:        []string{"Items"},
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeItem",
		Method:      http.MethodPost,
		Path:        "/api/items/{id}/like",
		Summary:     "Like item",
		Description: "Atomically adds one like and returns the updated beat",
		Tags:        []string{"Items"},
		Middlewares: s.rateLimited(s.opts.LikeLimiter),
	}, s.handleLikeItem)
}

// ListItemsInput contains parameters for listing items.
type ListItemsInput struct {
	Search string `query:"q" doc:"Case-insensitive substring of title or artist name"`
	Genre  string `query:"genre" doc:"Exact genre"`
	Page   int    `query:"page" default:"1" doc:"1-based page number"`
	Limit  int    `query:"limit" doc:"Page size (server default when omitted)"`

	limitGiven bool
}

// Resolve records whether limit was supplied so an explicit 0 is rejected
// rather than replaced by the default.
func (i *ListItemsInput) Resolve(ctx huma.Context) []error {
	i.limitGiven = ctx.Query("limit") != ""
	return nil
}

// ItemPageOutput wraps a page of items for Huma.
type ItemPageOutput struct {
	Body domain.ItemPage
}

// ItemPathInput identifies an item.
type ItemPathInput struct {
	ID int64 `path:"id" doc:"Item ID"`
}

// ItemOutput wraps a single item for Huma.
type ItemOutput struct {
	Body domain.Item
}

func (s *Server) handleListItems(ctx context.Context, input *ListItemsInput) (*ItemPageOutput, error) {
	limit := input.Limit
	if !input.limitGiven {
		limit = s.opts.DefaultPageLimit
	}

	page, err := s.services.Catalog.ListItems(ctx, service.ListItemsParams{
		Search: input.Search,
		Genre:  input.Genre,
		Page:   input.Page,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	return &ItemPageOutput{Body: *page}, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *ItemPathInput) (*ItemOutput, error) {
	item, err := s.services.Catalog.GetItem(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: *item}, nil
}

func (s *Server) handleLikeItem(ctx context.Context, input *ItemPathInput) (*ItemOutput, error) {
	item, err := s.services.Catalog.IncrementLikes(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: *item}, nil
}
