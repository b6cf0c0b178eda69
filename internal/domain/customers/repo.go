package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const columns = `id, name, email, phone, industry, gstin, COALESCE(sales_rep_id, 0), social, pocs,
	billing, shipping, wpc, same_as_billing, wpc_same_as_billing, created_at, updated_at`

func scan(row pgx.Row) (*Customer, error) {
	var c Customer
	if err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Industry, &c.GSTIN, &c.SalesRepID, &c.Social, &c.POCs,
		&c.Billing, &c.Shipping, &c.WPC, &c.SameAsBilling, &c.WPCSameAsBilling, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if c.POCs == nil {
		c.POCs = []POC{}
	}
	return &c, nil
}

func nullID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func (r *Repo) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Customer, error) {
	c, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM customers WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *Repo) Create(ctx context.Context, c Customer) (*Customer, error) {
	return scan(r.pool.QueryRow(ctx, `
		INSERT INTO customers
		(name, email, phone, industry, gstin, sales_rep_id, social, pocs,
		 billing, shipping, wpc, same_as_billing, wpc_same_as_billing)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING `+columns,
		c.Name, c.Email, c.Phone, c.Industry, c.GSTIN, nullID(c.SalesRepID), c.Social, c.POCs,
		c.Billing, c.Shipping, c.WPC, c.SameAsBilling, c.WPCSameAsBilling,
	))
}

// Update overwrites the whole record. Returns nil, nil if it does not exist.
func (r *Repo) Update(ctx context.Context, c Customer) (*Customer, error) {
	out, err := scan(r.pool.QueryRow(ctx, `
		UPDATE customers SET
			name=$2, email=$3, phone=$4, industry=$5, gstin=$6, sales_rep_id=$7, social=$8, pocs=$9,
			billing=$10, shipping=$11, wpc=$12, same_as_billing=$13, wpc_same_as_billing=$14,
			updated_at=now()
		WHERE id=$1
		RETURNING `+columns,
		c.ID, c.Name, c.Email, c.Phone, c.Industry, c.GSTIN, nullID(c.SalesRepID), c.Social, c.POCs,
		c.Billing, c.Shipping, c.WPC, c.SameAsBilling, c.WPCSameAsBilling,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

// Delete reports whether a row was removed.
func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
