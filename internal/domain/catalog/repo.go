package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// EnsureCategory creates the category or returns the existing one.
func (r *Repo) EnsureCategory(ctx context.Context, name string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO product_categories (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, active, created_at
	`, name)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// already there
		return r.GetCategoryByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, active, created_at
		FROM product_categories WHERE name = $1
	`, name)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) ListCategories(ctx context.Context, onlyActive bool) ([]Category, error) {
	q := `SELECT id, name, active, created_at FROM product_categories`
	if onlyActive {
		q += " WHERE active = TRUE"
	}
	q += " ORDER BY name"

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetCategoryActive hides a category from pickers without touching products.
func (r *Repo) SetCategoryActive(ctx context.Context, id int64, active bool) (*Category, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE product_categories SET active=$2 WHERE id=$1
		RETURNING id, name, active, created_at
	`, id, active)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
