package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func nullID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// apply moves stock for every line in one transaction. delta > 0 is a
// receipt, delta < 0 a write-off; stock may go negative.
func (r *Repo) apply(ctx context.Context, actorID, orderID int64, lines []Line, mtype MoveType, note string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, l := range lines {
		delta := l.Qty
		if mtype == MoveOut {
			delta = -delta
		}
		if _, err = tx.Exec(ctx, `
			UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1
		`, l.ProductID, delta); err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO stock_movements (actor_id, product_id, order_id, qty, type, note)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, nullID(actorID), l.ProductID, nullID(orderID), l.Qty, string(mtype), note); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func validate(lines []Line) error {
	for _, l := range lines {
		if l.Qty <= 0 {
			return fmt.Errorf("qty must be > 0 (product %d)", l.ProductID)
		}
	}
	return nil
}

func (r *Repo) Receive(ctx context.Context, actorID int64, lines []Line, note string) error {
	if err := validate(lines); err != nil {
		return err
	}
	return r.apply(ctx, actorID, 0, lines, MoveIn, note)
}

// WriteOffOrder takes the ordered quantities out of stock.
func (r *Repo) WriteOffOrder(ctx context.Context, actorID, orderID int64, lines []Line) error {
	if err := validate(lines); err != nil {
		return err
	}
	return r.apply(ctx, actorID, orderID, lines, MoveOut, fmt.Sprintf("order %d", orderID))
}

func (r *Repo) ListByProduct(ctx context.Context, productID int64) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at, COALESCE(actor_id, 0), product_id, COALESCE(order_id, 0), qty, type, note
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY id DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.ActorID, &m.ProductID, &m.OrderID, &m.Qty, &m.Type, &m.Note); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetStock returns the current stock of a product (0, nil if it does not exist).
func (r *Repo) GetStock(ctx context.Context, productID int64) (int64, error) {
	var qty int64
	err := r.pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return qty, err
}
