package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

type stubAccountService struct {
	registerFn  func(ctx context.Context, in ports.RegisterInput) (*domain.PublicAccount, error)
	loginFn     func(ctx context.Context, username, password string) (*ports.LoginResult, error)
	listFn      func(ctx context.Context) ([]*domain.PublicAccount, error)
	getFn       func(ctx context.Context, id string) (*domain.PublicAccount, error)
	grantRoleFn func(ctx context.Context, accountID, role string) error
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.PublicAccount, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAccountService) ListAccounts(ctx context.Context) ([]*domain.PublicAccount, error) {
	return s.listFn(ctx)
}

func (s *stubAccountService) GetAccount(ctx context.Context, id string) (*domain.PublicAccount, error) {
	return s.getFn(ctx, id)
}

func (s *stubAccountService) GrantRole(ctx context.Context, accountID, role string) error {
	return s.grantRoleFn(ctx, accountID, role)
}

// stubCatalogService embeds the interface so tests only implement what they call.
type stubCatalogService struct {
	ports.CatalogService

	listCategoriesFn func(ctx context.Context) ([]*domain.Category, error)
	getCategoryFn    func(ctx context.Context, id int64) (*domain.Category, error)
	createCategoryFn func(ctx context.Context, name string) (*domain.Category, error)
	deleteCategoryFn func(ctx context.Context, id int64) error
	listMoviesFn     func(ctx context.Context, in ports.ListMoviesInput) (*ports.MoviePage, error)
	searchMoviesFn   func(ctx context.Context, term string) ([]*domain.Movie, error)
	createMovieFn    func(ctx context.Context, in ports.MovieInput) (*domain.Movie, error)
	updateMovieFn    func(ctx context.Context, id int64, in ports.MovieInput) (*domain.Movie, error)
}

func (s *stubCatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.listCategoriesFn(ctx)
}

func (s *stubCatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.getCategoryFn(ctx, id)
}

func (s *stubCatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	return s.createCategoryFn(ctx, name)
}

func (s *stubCatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return s.deleteCategoryFn(ctx, id)
}

func (s *stubCatalogService) ListMovies(ctx context.Context, in ports.ListMoviesInput) (*ports.MoviePage, error) {
	return s.listMoviesFn(ctx, in)
}

func (s *stubCatalogService) SearchMovies(ctx context.Context, term string) ([]*domain.Movie, error) {
	return s.searchMoviesFn(ctx, term)
}

func (s *stubCatalogService) CreateMovie(ctx context.Context, in ports.MovieInput) (*domain.Movie, error) {
	return s.createMovieFn(ctx, in)
}

func (s *stubCatalogService) UpdateMovie(ctx context.Context, id int64, in ports.MovieInput) (*domain.Movie, error) {
	return s.updateMovieFn(ctx, id, in)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}
