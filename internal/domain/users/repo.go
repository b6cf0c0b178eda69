package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const columns = `id, name, email, password_hash, company, team, role, approved,
	COALESCE(telegram_id, 0), created_at, updated_at`

func scan(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Company, &u.Team, &u.Role, &u.Approved,
		&u.TelegramID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func one(row pgx.Row) (*User, error) {
	u, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func nullTelegram(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func (r *Repo) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*User, error) {
	return one(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id=$1`, id))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return one(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE lower(email)=lower($1)`, email))
}

func (r *Repo) GetByTelegramID(ctx context.Context, tgID int64) (*User, error) {
	return one(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE telegram_id=$1`, tgID))
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func (r *Repo) Create(ctx context.Context, u User) (*User, error) {
	return scan(r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, company, team, role, approved, telegram_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+columns,
		u.Name, u.Email, u.PasswordHash, u.Company, u.Team, string(u.Role), u.Approved, nullTelegram(u.TelegramID)))
}

// Update changes profile, role, approval and Telegram link. The password
// hash is left alone.
func (r *Repo) Update(ctx context.Context, u User) (*User, error) {
	return one(r.pool.QueryRow(ctx, `
		UPDATE users SET
			name=$2, company=$3, team=$4, role=$5, approved=$6, telegram_id=$7, updated_at=now()
		WHERE id=$1
		RETURNING `+columns,
		u.ID, u.Name, u.Company, u.Team, string(u.Role), u.Approved, nullTelegram(u.TelegramID)))
}

func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
