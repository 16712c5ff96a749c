package ports

import (
	"context"

	"github.com/peliculas/catalog-api/internal/core/domain"
)

// MovieInput carries the writable fields of a movie.
type MovieInput struct {
	Name            string
	Description     string
	DurationMinutes int
	ImagePath       string
	Classification  string
	CategoryID      int64
}

// ListMoviesInput carries the parameters of the paginated list endpoint.
type ListMoviesInput struct {
	Page     int
	PageSize int
}

// MoviePage is returned by ListMovies.
type MoviePage struct {
	Items      []*domain.Movie
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// CatalogService defines use-case operations for categories and movies.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListMovies(ctx context.Context, in ListMoviesInput) (*MoviePage, error)
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
	MoviesInCategory(ctx context.Context, categoryID int64) ([]*domain.Movie, error)
	SearchMovies(ctx context.Context, term string) ([]*domain.Movie, error)
	CreateMovie(ctx context.Context, in MovieInput) (*domain.Movie, error)
	UpdateMovie(ctx context.Context, id int64, in MovieInput) (*domain.Movie, error)
	DeleteMovie(ctx context.Context, id int64) error
}
