package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const columns = `id, reference, quote_id, customer_id, items, costs, license, delivery_date,
	items_total, grand_total, notes, created_by, created_at, updated_at`

func scan(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(
		&o.ID, &o.Reference, &o.QuoteID, &o.CustomerID, &o.Items, &o.Costs, &o.License, &o.DeliveryDate,
		&o.ItemsTotal, &o.GrandTotal, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM orders ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Order, error) {
	o, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// Create inserts the order and flips its quote to "Order placed" in one
// transaction, so a quote is never ordered twice.
func (r *Repo) Create(ctx context.Context, o Order, quoteStatus string) (*Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE quotes SET status=$2, updated_at=now()
		WHERE id=$1 AND status <> $2
	`, o.QuoteID, quoteStatus)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrQuoteTaken
	}

	out, err := scan(tx.QueryRow(ctx, `
		INSERT INTO orders
		(reference, quote_id, customer_id, items, costs, license, delivery_date, items_total, grand_total, notes, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+columns,
		o.Reference, o.QuoteID, o.CustomerID, o.Items, o.Costs, o.License, o.DeliveryDate,
		o.ItemsTotal, o.GrandTotal, o.Notes, o.CreatedBy,
	))
	if err != nil {
		return nil, err
	}
	return out, tx.Commit(ctx)
}

var ErrQuoteTaken = errors.New("quote already ordered")

func (r *Repo) Update(ctx context.Context, o Order) (*Order, error) {
	out, err := scan(r.pool.QueryRow(ctx, `
		UPDATE orders SET
			items=$2, costs=$3, license=$4, delivery_date=$5, items_total=$6, grand_total=$7,
			notes=$8, updated_at=now()
		WHERE id=$1
		RETURNING `+columns,
		o.ID, o.Items, o.Costs, o.License, o.DeliveryDate, o.ItemsTotal, o.GrandTotal, o.Notes,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return out, err
}
