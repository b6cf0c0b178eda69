package quotes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const columns = `id, reference, customer_id, items, status, pending_approvers, approved_approvers,
	total, notes, decline_reason, created_by, created_at, updated_at`

func scan(row pgx.Row) (*Quote, error) {
	var q Quote
	if err := row.Scan(
		&q.ID, &q.Reference, &q.CustomerID, &q.Items, &q.Status, &q.Approvers.Pending, &q.Approvers.Approved,
		&q.Total, &q.Notes, &q.DeclineReason, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if q.Items == nil {
		q.Items = []Item{}
	}
	if q.Approvers.Pending == nil {
		q.Approvers.Pending = []int64{}
	}
	if q.Approvers.Approved == nil {
		q.Approvers.Approved = []int64{}
	}
	return &q, nil
}

func (r *Repo) List(ctx context.Context) ([]Quote, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM quotes ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Quote{}
	for rows.Next() {
		q, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Quote, error) {
	q, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM quotes WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return q, err
}

func (r *Repo) Create(ctx context.Context, q Quote) (*Quote, error) {
	return scan(r.pool.QueryRow(ctx, `
		INSERT INTO quotes
		(reference, customer_id, items, status, pending_approvers, approved_approvers, total, notes, decline_reason, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+columns,
		q.Reference, q.CustomerID, q.Items, string(q.Status), q.Approvers.Pending, q.Approvers.Approved,
		q.Total, q.Notes, q.DeclineReason, q.CreatedBy,
	))
}

// Update writes the whole quote back. Reference and creator never change.
func (r *Repo) Update(ctx context.Context, q Quote) (*Quote, error) {
	out, err := scan(r.pool.QueryRow(ctx, `
		UPDATE quotes SET
			customer_id=$2, items=$3, status=$4, pending_approvers=$5, approved_approvers=$6,
			total=$7, notes=$8, decline_reason=$9, updated_at=now()
		WHERE id=$1
		RETURNING `+columns,
		q.ID, q.CustomerID, q.Items, string(q.Status), q.Approvers.Pending, q.Approvers.Approved,
		q.Total, q.Notes, q.DeclineReason,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotes WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
