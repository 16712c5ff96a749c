package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

const movieColumns = `id, name, description, duration_minutes, image_path, classification, category_id, created_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// MovieRepository implements ports.MovieRepository on PostgreSQL.
type MovieRepository struct {
	db DBTX
}

func NewMovieRepository(db DBTX) *MovieRepository {
	return &MovieRepository{db: db}
}

// List returns the movies matching filter ordered by name, plus the number of
// matches before pagination.
func (r *MovieRepository) List(ctx context.Context, f ports.ListMoviesFilter) ([]*domain.Movie, int64, error) {
	var (
		conds []string
		args  []any
	)
	if f.CategoryID != 0 {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `SELECT ` + movieColumns + ` FROM movies` + where + ` ORDER BY name, id`
	if f.Page > 0 && f.PageSize > 0 {
		args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*domain.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return out, total, nil
}

func (r *MovieRepository) FindByID(ctx context.Context, id int64) (*domain.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMovieNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *MovieRepository) Create(ctx context.Context, m *domain.Movie) error {
	query :=
		`INSERT INTO movies (name, description, duration_minutes, image_path, classification, category_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		m.Name, m.Description, m.DurationMinutes, m.ImagePath, string(m.Classification), m.CategoryID, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		return mapMovieWriteError(err)
	}
	return nil
}

func (r *MovieRepository) Update(ctx context.Context, m *domain.Movie) error {
	query :=
		`UPDATE movies SET name = $1, description = $2, duration_minutes = $3, image_path = $4,
		 classification = $5, category_id = $6
		 WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query,
		m.Name, m.Description, m.DurationMinutes, m.ImagePath, string(m.Classification), m.CategoryID, m.ID)
	if err != nil {
		return mapMovieWriteError(err)
	}
	return requireRow(res, domain.ErrMovieNotFound)
}

func (r *MovieRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, domain.ErrMovieNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*domain.Movie, error) {
	m := &domain.Movie{}
	var class string
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &m.DurationMinutes, &m.ImagePath,
		&class, &m.CategoryID, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Classification = domain.Classification(class)
	return m, nil
}

func mapMovieWriteError(err error) error {
	if _, ok := constraintViolation(err, sqlStateUniqueViolation); ok {
		return domain.ErrDuplicateMovie
	}
	if _, ok := constraintViolation(err, sqlStateForeignKeyViolation); ok {
		return domain.ErrCategoryNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
