package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const columns = `id, sku, name, category, description, price_per_piece, gst, price_with_gst,
	stock, images, documents, active, created_at, updated_at`

func scan(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.Description, &p.PricePerPiece, &p.GST, &p.PriceWithGST,
		&p.Stock, &p.Images, &p.Documents, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Documents == nil {
		p.Documents = []string{}
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context, onlyActive bool) ([]Product, error) {
	q := `SELECT ` + columns + ` FROM products`
	if onlyActive {
		q += " WHERE active = TRUE"
	}
	q += " ORDER BY name"

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *Repo) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	p, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE sku=$1`, sku))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *Repo) Create(ctx context.Context, p Product) (*Product, error) {
	return scan(r.pool.QueryRow(ctx, `
		INSERT INTO products
		(sku, name, category, description, price_per_piece, gst, price_with_gst, stock, images, documents, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+columns,
		p.SKU, p.Name, p.Category, p.Description, p.PricePerPiece, p.GST, p.PriceWithGST,
		p.Stock, p.Images, p.Documents, p.Active,
	))
}

// Update leaves stock alone; stock only moves through the inventory ledger.
func (r *Repo) Update(ctx context.Context, p Product) (*Product, error) {
	out, err := scan(r.pool.QueryRow(ctx, `
		UPDATE products SET
			sku=$2, name=$3, category=$4, description=$5, price_per_piece=$6, gst=$7,
			price_with_gst=$8, images=$9, documents=$10, active=$11, updated_at=now()
		WHERE id=$1
		RETURNING `+columns,
		p.ID, p.SKU, p.Name, p.Category, p.Description, p.PricePerPiece, p.GST,
		p.PriceWithGST, p.Images, p.Documents, p.Active,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
