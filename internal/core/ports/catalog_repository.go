package ports

import (
	"context"

	"github.com/peliculas/catalog-api/internal/core/domain"
)

// ListMoviesFilter carries the query parameters for listing movies.
type ListMoviesFilter struct {
	CategoryID int64  // 0 = any category
	Search     string // optional: case-insensitive match on name or description
	Page       int    // 1-based; 0 disables pagination
	PageSize   int
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id int64) error
}

// MovieRepository defines persistence operations for movies.
type MovieRepository interface {
	// List returns a page of movies ordered by name and the total match count.
	List(ctx context.Context, filter ListMoviesFilter) ([]*domain.Movie, int64, error)
	FindByID(ctx context.Context, id int64) (*domain.Movie, error)
	Create(ctx context.Context, m *domain.Movie) error
	Update(ctx context.Context, m *domain.Movie) error
	Delete(ctx context.Context, id int64) error
}
