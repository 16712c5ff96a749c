package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/peliculas/catalog-api/internal/core/domain"
)

// CategoryRepository implements ports.CategoryRepository on PostgreSQL.
type CategoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*domain.Category{}
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, created_at) VALUES ($1, $2) RETURNING id`,
		c.Name, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		if _, ok := constraintViolation(err, sqlStateUniqueViolation); ok {
			return domain.ErrDuplicateCategory
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = $1 WHERE id = $2`, c.Name, c.ID)
	if err != nil {
		if _, ok := constraintViolation(err, sqlStateUniqueViolation); ok {
			return domain.ErrDuplicateCategory
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, domain.ErrCategoryNotFound)
}

// Delete removes the category and, through the foreign key, its movies.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, domain.ErrCategoryNotFound)
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
