// Package service holds the business rules behind the REST API and the
// Telegram bot. Storage is reached through the interfaces below; the pgx
// repos and the in-memory store both satisfy them.
package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Spok95/cpq/internal/domain/catalog"
	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/inventory"
	"github.com/Spok95/cpq/internal/domain/orders"
	"github.com/Spok95/cpq/internal/domain/products"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
)

type CustomerStore interface {
	List(ctx context.Context) ([]customers.Customer, error)
	GetByID(ctx context.Context, id int64) (*customers.Customer, error)
	Create(ctx context.Context, c customers.Customer) (*customers.Customer, error)
	Update(ctx context.Context, c customers.Customer) (*customers.Customer, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type ProductStore interface {
	List(ctx context.Context, onlyActive bool) ([]products.Product, error)
	GetByID(ctx context.Context, id int64) (*products.Product, error)
	GetBySKU(ctx context.Context, sku string) (*products.Product, error)
	Create(ctx context.Context, p products.Product) (*products.Product, error)
	Update(ctx context.Context, p products.Product) (*products.Product, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type CategoryStore interface {
	EnsureCategory(ctx context.Context, name string) (*catalog.Category, error)
	ListCategories(ctx context.Context, onlyActive bool) ([]catalog.Category, error)
	SetCategoryActive(ctx context.Context, id int64, active bool) (*catalog.Category, error)
}

type StockStore interface {
	Receive(ctx context.Context, actorID int64, lines []inventory.Line, note string) error
	WriteOffOrder(ctx context.Context, actorID, orderID int64, lines []inventory.Line) error
	ListByProduct(ctx context.Context, productID int64) ([]inventory.Movement, error)
}

type QuoteStore interface {
	List(ctx context.Context) ([]quotes.Quote, error)
	GetByID(ctx context.Context, id int64) (*quotes.Quote, error)
	Create(ctx context.Context, q quotes.Quote) (*quotes.Quote, error)
	Update(ctx context.Context, q quotes.Quote) (*quotes.Quote, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type OrderStore interface {
	List(ctx context.Context) ([]orders.Order, error)
	GetByID(ctx context.Context, id int64) (*orders.Order, error)
	// Create also sets the quote to quoteStatus; it fails with
	// orders.ErrQuoteTaken if the quote already has that status.
	Create(ctx context.Context, o orders.Order, quoteStatus string) (*orders.Order, error)
	Update(ctx context.Context, o orders.Order) (*orders.Order, error)
}

type UserStore interface {
	List(ctx context.Context) ([]users.User, error)
	GetByID(ctx context.Context, id int64) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*users.User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, u users.User) (*users.User, error)
	Update(ctx context.Context, u users.User) (*users.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// isForeignKeyViolation reports a delete blocked by a referencing row.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
