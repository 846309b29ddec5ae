package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sixtrece/beats-server/internal/domain"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/genres",
		Summary:     "List genres",
		Description: "Returns the distinct genres present in the catalog, sorted",
		Tags:        []string{"Catalog"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID: "listArtists",
		Method:      http.MethodGet,
		Path:        "/api/artists",
		Summary:     "List artists",
		Tags:        []string{"Catalog"},
	}, s.handleListArtists)
}

// GenresOutput wraps the genre list for Huma.
type GenresOutput struct {
	Body []string
}

// ArtistsOutput wraps the artist list for Huma.
type ArtistsOutput struct {
	Body []domain.Artist
}

func (s *Server) handleListGenres(ctx context.Context, _ *struct{}) (*GenresOutput, error) {
	genres, err := s.services.Catalog.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	return &GenresOutput{Body: genres}, nil
}

func (s *Server) handleListArtists(ctx context.Context, _ *struct{}) (*ArtistsOutput, error) {
	artists, err := s.services.Catalog.ListArtists(ctx)
	if err != nil {
		return nil, err
	}
	return &ArtistsOutput{Body: artists}, nil
}
