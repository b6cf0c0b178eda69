// Package api is the JSON REST surface under /api.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Spok95/cpq/internal/auth"
	"github.com/Spok95/cpq/internal/domain/users"
	"github.com/Spok95/cpq/internal/infra/logger"
	"github.com/Spok95/cpq/internal/infra/metrics"
	"github.com/Spok95/cpq/internal/service"
	"github.com/Spok95/cpq/internal/table"
)

type Deps struct {
	Customers *service.Customers
	Products  *service.Products
	Quotes    *service.Quotes
	Orders    *service.Orders
	Users     *service.Users
	Issuer    *auth.Issuer
	Log       *slog.Logger
	// PageSize is the default list page size.
	PageSize int
	// Company heads generated documents.
	Company string
}

type Handler struct {
	customers *service.Customers
	products  *service.Products
	quotes    *service.Quotes
	orders    *service.Orders
	users     *service.Users
	issuer    *auth.Issuer
	log       *slog.Logger
	pageSize  int
	company   string
	now       func() time.Time
}

func New(d Deps) *Handler {
	if d.PageSize <= 0 {
		d.PageSize = table.DefaultPageSize
	}
	return &Handler{
		customers: d.Customers,
		products:  d.Products,
		quotes:    d.Quotes,
		orders:    d.Orders,
		users:     d.Users,
		issuer:    d.Issuer,
		log:       d.Log,
		pageSize:  d.PageSize,
		company:   d.Company,
		now:       time.Now,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Requests(h.log))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	admin := auth.RequireRole(users.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Post("/auth/login", h.login)
		r.Post("/auth/register", h.register)

		r.Group(func(r chi.Router) {
			r.Use(h.issuer.Middleware)
			r.Use(auth.Recheck(h.users))

			r.Get("/dashboard", h.dashboard)

			customerSrc := h.customerList()
			r.Route("/customers", func(r chi.Router) {
				r.Get("/", serveList(h, customerSrc))
				r.Post("/", h.createCustomer)
				r.Get("/export.xlsx", serveExport(h, customerSrc))
				r.Post("/bulk-delete", serveBulk(h, customerSrc, func(r *http.Request, ids []int64) service.BulkResult {
					return h.customers.BulkDelete(r.Context(), ids)
				}))
				r.Get("/{id}", h.getCustomer)
				r.Put("/{id}", h.updateCustomer)
				r.Delete("/{id}", h.deleteCustomer)
			})

			productSrc := h.productList()
			r.Route("/products", func(r chi.Router) {
				r.Get("/", serveList(h, productSrc))
				r.Get("/export.xlsx", serveExport(h, productSrc))
				r.Get("/categories", h.listCategories)
				r.Get("/{id}", h.getProduct)
				r.Get("/{id}/movements", h.productMovements)
				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Post("/", h.createProduct)
					r.Post("/import", h.importProducts)
					r.Put("/categories/{id}", h.setCategoryActive)
					r.Put("/{id}", h.updateProduct)
					r.Delete("/{id}", h.deleteProduct)
					r.Post("/{id}/restock", h.restockProduct)
				})
			})

			quoteSrc := h.quoteList()
			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", serveList(h, quoteSrc))
				r.Post("/", h.createQuote)
				r.Get("/export.xlsx", serveExport(h, quoteSrc))
				r.Get("/pending", h.pendingQuotes)
				r.Post("/bulk-approve", serveBulk(h, quoteSrc, func(r *http.Request, ids []int64) service.BulkResult {
					return h.quotes.BulkApprove(r.Context(), actor(r).UserID, ids)
				}))
				r.Post("/bulk-delete", serveBulk(h, quoteSrc, func(r *http.Request, ids []int64) service.BulkResult {
					return h.quotes.BulkDelete(r.Context(), ids)
				}))
				r.Get("/{id}", h.getQuote)
				r.Put("/{id}", h.updateQuote)
				r.Delete("/{id}", h.deleteQuote)
				r.Get("/{id}/items", h.listItems)
				r.Patch("/{id}/items/{index}", h.updateItem)
				r.Post("/{id}/submit", h.submitQuote)
				r.Post("/{id}/approve", h.approveQuote)
				r.Post("/{id}/decline", h.declineQuote)
				r.Get("/{id}/pdf", h.quotePDF)
				r.Post("/{id}/order", h.orderFromQuote)
			})

			orderSrc := h.orderList()
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", serveList(h, orderSrc))
				r.Post("/", h.createOrder)
				r.Get("/export.xlsx", serveExport(h, orderSrc))
				r.Get("/{id}", h.getOrder)
				r.Put("/{id}", h.updateOrder)
			})

			userSrc := h.userList()
			r.Route("/users", func(r chi.Router) {
				r.Get("/", serveList(h, userSrc))
				r.Get("/me", h.me)
				r.Get("/approvers", h.approvers)
				r.Get("/export.xlsx", serveExport(h, userSrc))
				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Put("/{id}/approve", h.approveUser)
					r.Put("/{id}", h.updateUser)
					r.Delete("/{id}", h.deleteUser)
				})
			})
		})
	})
	return r
}
