package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

// CatalogHandler serves the category and movie endpoints. Catalog payloads
// are plain JSON; only errors use the envelope.
type CatalogHandler struct {
	catalog ports.CatalogService
}

func NewCatalogHandler(catalog ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type movieRequest struct {
	Name            string `json:"name"             validate:"required,max=200"`
	Description     string `json:"description"      validate:"max=2000"`
	DurationMinutes int    `json:"duration_minutes" validate:"gt=0"`
	ImagePath       string `json:"image_path"       validate:"max=500"`
	Classification  string `json:"classification"   validate:"required,oneof=Siete Trece Dieciseis Dieciocho Adultos"`
	CategoryID      int64  `json:"category_id"      validate:"gt=0"`
}

func (r movieRequest) input() ports.MovieInput {
	return ports.MovieInput{
		Name:            r.Name,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		ImagePath:       r.ImagePath,
		Classification:  r.Classification,
		CategoryID:      r.CategoryID,
	}
}

type moviePageResponse struct {
	Items      []*domain.Movie `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

type categoryNameResponse struct {
	Name string `json:"name"`
}

// ListCategories godoc
// @Summary  List categories
// @Tags     categorias
// @Produce  json
// @Success  200  {array}  domain.Category
// @Router   /api/v1/categorias [get]
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

// GetCategory godoc
// @Summary  Get a category
// @Tags     categorias
// @Produce  json
// @Param    id   path      int  true  "Category ID"
// @Success  200  {object}  domain.Category
// @Failure  404  {object}  Envelope
// @Router   /api/v1/categorias/{id} [get]
func (h *CatalogHandler) GetCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	category, err := h.catalog.GetCategory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

// CreateCategory godoc
// @Summary   Create a category
// @Tags      categorias
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      categoryRequest  true  "Category"
// @Success   201   {object}  domain.Category
// @Failure   409   {object}  Envelope
// @Router    /api/v1/categorias [post]
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	category, err := h.catalog.CreateCategory(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary   Rename a category
// @Tags      categorias
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path      int              true  "Category ID"
// @Param     body  body      categoryRequest  true  "Category"
// @Success   200   {object}  domain.Category
// @Failure   404   {object}  Envelope
// @Router    /api/v1/categorias/{id} [patch]
func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	category, err := h.catalog.UpdateCategory(c.Request().Context(), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary   Delete a category and its movies
// @Tags      categorias
// @Security  BearerAuth
// @Param     id  path  int  true  "Category ID"
// @Success   204
// @Failure   404  {object}  Envelope
// @Router    /api/v1/categorias/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteCategory(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMovies godoc
// @Summary  List movies
// @Tags     peliculas
// @Produce  json
// @Param    page      query     int  false  "Page number"
// @Param    pageSize  query     int  false  "Page size (max 100)"
// @Success  200       {object}  moviePageResponse
// @Router   /api/v1/peliculas [get]
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	pageSize, err := queryInt(c, "pageSize")
	if err != nil {
		return err
	}

	res, err := h.catalog.ListMovies(c.Request().Context(), ports.ListMoviesInput{Page: page, PageSize: pageSize})
	if err != nil {
		return err
	}
	items := res.Items
	if items == nil {
		items = []*domain.Movie{}
	}
	return c.JSON(http.StatusOK, moviePageResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	})
}

// GetMovie godoc
// @Summary  Get a movie
// @Tags     peliculas
// @Produce  json
// @Param    id   path      int  true  "Movie ID"
// @Success  200  {object}  domain.Movie
// @Failure  404  {object}  Envelope
// @Router   /api/v1/peliculas/{id} [get]
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	movie, err := h.catalog.GetMovie(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, movie)
}

// SearchMovies godoc
// @Summary  Search movies by name or description
// @Tags     peliculas
// @Produce  json
// @Param    nombre  query  string  false  "Search term"
// @Success  200     {array}  domain.Movie
// @Router   /api/v1/peliculas/buscar [get]
func (h *CatalogHandler) SearchMovies(c echo.Context) error {
	movies, err := h.catalog.SearchMovies(c.Request().Context(), c.QueryParam("nombre"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(movies))
}

// MoviesInCategory godoc
// @Summary  List the movies of a category
// @Tags     peliculas
// @Produce  json
// @Param    id   path     int  true  "Category ID"
// @Success  200  {array}  domain.Movie
// @Failure  404  {object}  Envelope
// @Router   /api/v1/peliculas/categoria/{id} [get]
func (h *CatalogHandler) MoviesInCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	movies, err := h.catalog.MoviesInCategory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(movies))
}

// CreateMovie godoc
// @Summary   Create a movie
// @Tags      peliculas
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      movieRequest  true  "Movie"
// @Success   201   {object}  domain.Movie
// @Failure   400   {object}  Envelope
// @Failure   404   {object}  Envelope
// @Failure   409   {object}  Envelope
// @Router    /api/v1/peliculas [post]
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var req movieRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	movie, err := h.catalog.CreateMovie(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, movie)
}

// UpdateMovie godoc
// @Summary   Replace a movie
// @Tags      peliculas
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path      int           true  "Movie ID"
// @Param     body  body      movieRequest  true  "Movie"
// @Success   200   {object}  domain.Movie
// @Failure   404   {object}  Envelope
// @Router    /api/v1/peliculas/{id} [patch]
func (h *CatalogHandler) UpdateMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req movieRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	movie, err := h.catalog.UpdateMovie(c.Request().Context(), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, movie)
}

// DeleteMovie godoc
// @Summary   Delete a movie
// @Tags      peliculas
// @Security  BearerAuth
// @Param     id  path  int  true  "Movie ID"
// @Success   204
// @Failure   404  {object}  Envelope
// @Router    /api/v1/peliculas/{id} [delete]
func (h *CatalogHandler) DeleteMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteMovie(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// V2ListCategories returns category names only.
//
// @Summary  List category names
// @Tags     categorias
// @Produce  json
// @Success  200  {array}  categoryNameResponse
// @Router   /api/v2/categorias [get]
func (h *CatalogHandler) V2ListCategories(c echo.Context) error {
	categories, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]categoryNameResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, categoryNameResponse{Name: cat.Name})
	}
	return c.JSON(http.StatusOK, out)
}

func nonNil(movies []*domain.Movie) []*domain.Movie {
	if movies == nil {
		return []*domain.Movie{}
	}
	return movies
}
