package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPage         = 1_000_000
)

type CatalogService struct {
	categories ports.CategoryRepository
	movies     ports.MovieRepository
	logger     zerolog.Logger
}

func NewCatalogService(categories ports.CategoryRepository, movies ports.MovieRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{categories: categories, movies: movies, logger: logger}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}

	c := &domain.Category{Name: name, CreatedAt: time.Now().UTC()}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.logger.Info().Int64("category_id", c.ID).Str("name", c.Name).Msg("category created")
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}

	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.logger.Info().Int64("category_id", id).Msg("category deleted")
	return nil
}

// ListMovies returns one page of the catalog ordered by name.
func (s *CatalogService) ListMovies(ctx context.Context, in ports.ListMoviesInput) (*ports.MoviePage, error) {
	page, size, err := normalizePage(in.Page, in.PageSize)
	if err != nil {
		return nil, err
	}

	items, total, err := s.movies.List(ctx, ports.ListMoviesFilter{Page: page, PageSize: size})
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	return &ports.MoviePage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func (s *CatalogService) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	return s.movies.FindByID(ctx, id)
}

// MoviesInCategory fails with ErrCategoryNotFound for an unknown category
// rather than returning an empty list.
func (s *CatalogService) MoviesInCategory(ctx context.Context, categoryID int64) ([]*domain.Movie, error) {
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	items, _, err := s.movies.List(ctx, ports.ListMoviesFilter{CategoryID: categoryID})
	if err != nil {
		return nil, fmt.Errorf("list movies in category %d: %w", categoryID, err)
	}
	return items, nil
}

// SearchMovies matches term against name and description, ignoring case.
// An empty term returns the whole catalog.
func (s *CatalogService) SearchMovies(ctx context.Context, term string) ([]*domain.Movie, error) {
	term = strings.TrimSpace(term)
	items, _, err := s.movies.List(ctx, ports.ListMoviesFilter{Search: term})
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return items, nil
}

func (s *CatalogService) CreateMovie(ctx context.Context, in ports.MovieInput) (*domain.Movie, error) {
	m, err := movieFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, m.CategoryID); err != nil {
		return nil, err
	}

	m.CreatedAt = time.Now().UTC()
	if err := s.movies.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}
	s.logger.Info().Int64("movie_id", m.ID).Str("name", m.Name).Int64("category_id", m.CategoryID).Msg("movie created")
	return m, nil
}

func (s *CatalogService) UpdateMovie(ctx context.Context, id int64, in ports.MovieInput) (*domain.Movie, error) {
	existing, err := s.movies.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m, err := movieFromInput(in)
	if err != nil {
		return nil, err
	}
	if m.CategoryID != existing.CategoryID {
		if err := s.requireCategory(ctx, m.CategoryID); err != nil {
			return nil, err
		}
	}

	m.ID = existing.ID
	m.CreatedAt = existing.CreatedAt
	if err := s.movies.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update movie %d: %w", id, err)
	}
	return m, nil
}

func (s *CatalogService) DeleteMovie(ctx context.Context, id int64) error {
	if err := s.movies.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	s.logger.Info().Int64("movie_id", id).Msg("movie deleted")
	return nil
}

func (s *CatalogService) requireCategory(ctx context.Context, id int64) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check category %d: %w", id, err)
	}
	if !ok {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func movieFromInput(in ports.MovieInput) (*domain.Movie, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: movie name is required", domain.ErrInvalidInput)
	}
	if in.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domain.ErrInvalidInput)
	}
	class := domain.Classification(strings.TrimSpace(in.Classification))
	if !class.IsValid() {
		return nil, fmt.Errorf("%w: unknown classification %q", domain.ErrInvalidInput, in.Classification)
	}
	if in.CategoryID <= 0 {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	return &domain.Movie{
		Name:            name,
		Description:     strings.TrimSpace(in.Description),
		DurationMinutes: in.DurationMinutes,
		ImagePath:       strings.TrimSpace(in.ImagePath),
		Classification:  class,
		CategoryID:      in.CategoryID,
	}, nil
}

// normalizePage defaults and clamps the page size. Pages past maxPage are
// rejected so the offset cannot overflow.
func normalizePage(page, size int) (int, int, error) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		return 0, 0, fmt.Errorf("%w: page must be at most %d", domain.ErrInvalidInput, maxPage)
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, nil
}
