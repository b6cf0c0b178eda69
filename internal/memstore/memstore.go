// Package memstore keeps every table in process memory. It backs the
// service tests and lets the app run without Postgres for demos. Its
// constraint errors are *pgconn.PgError values with the codes Postgres
// would return, so callers handle both stores the same way.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Spok95/cpq/internal/dialog"
	"github.com/Spok95/cpq/internal/domain/catalog"
	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/inventory"
	"github.com/Spok95/cpq/internal/domain/orders"
	"github.com/Spok95/cpq/internal/domain/pricing"
	"github.com/Spok95/cpq/internal/domain/products"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
)

type DB struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	users      map[int64]users.User
	customers  map[int64]customers.Customer
	categories map[int64]catalog.Category
	products   map[int64]products.Product
	movements  []inventory.Movement
	quotes     map[int64]quotes.Quote
	orders     map[int64]orders.Order
	dialogs    map[int64]dialog.Item
}

func New() *DB {
	return &DB{
		now:        time.Now,
		users:      map[int64]users.User{},
		customers:  map[int64]customers.Customer{},
		categories: map[int64]catalog.Category{},
		products:   map[int64]products.Product{},
		quotes:     map[int64]quotes.Quote{},
		orders:     map[int64]orders.Order{},
		dialogs:    map[int64]dialog.Item{},
	}
}

func (db *DB) Users() *Users           { return &Users{db} }
func (db *DB) Customers() *Customers   { return &Customers{db} }
func (db *DB) Categories() *Categories { return &Categories{db} }
func (db *DB) Products() *Products     { return &Products{db} }
func (db *DB) Stock() *Stock           { return &Stock{db} }
func (db *DB) Quotes() *Quotes         { return &Quotes{db} }
func (db *DB) Orders() *Orders         { return &Orders{db} }
func (db *DB) Dialogs() *Dialogs       { return &Dialogs{db} }

func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}

func fkViolation(table string) error {
	return &pgconn.PgError{Code: "23503", TableName: table}
}

func uniqueViolation(table string) error {
	return &pgconn.PgError{Code: "23505", TableName: table}
}

func sorted[T any](m map[int64]T, desc bool) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b int64) int {
		if desc {
			return cmp.Compare(b, a)
		}
		return cmp.Compare(a, b)
	})
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// Clones keep callers from mutating stored slices.

func cloneCustomer(c customers.Customer) customers.Customer {
	c.POCs = slices.Clone(c.POCs)
	return c
}

func cloneProduct(p products.Product) products.Product {
	p.Images = slices.Clone(p.Images)
	p.Documents = slices.Clone(p.Documents)
	return p
}

func cloneQuote(q quotes.Quote) quotes.Quote {
	q.Items = slices.Clone(q.Items)
	q.Approvers.Pending = slices.Clone(q.Approvers.Pending)
	q.Approvers.Approved = slices.Clone(q.Approvers.Approved)
	return q
}

func cloneOrder(o orders.Order) orders.Order {
	o.Items = slices.Clone(o.Items)
	o.Costs = slices.Clone(o.Costs)
	if o.DeliveryDate != nil {
		o.DeliveryDate = ptr(*o.DeliveryDate)
	}
	return o
}

type Users struct{ db *DB }

func (s *Users) List(_ context.Context) ([]users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return sorted(s.db.users, false), nil
}

func (s *Users) GetByID(_ context.Context, id int64) (*users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Users) GetByTelegramID(_ context.Context, tgID int64) (*users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if tgID != 0 && u.TelegramID == tgID {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Users) Count(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.users), nil
}

func (s *Users) taken(u users.User) bool {
	for _, o := range s.db.users {
		if o.ID == u.ID {
			continue
		}
		if strings.EqualFold(o.Email, u.Email) || (u.TelegramID != 0 && o.TelegramID == u.TelegramID) {
			return true
		}
	}
	return false
}

func (s *Users) Create(_ context.Context, u users.User) (*users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u.ID = 0
	if s.taken(u) {
		return nil, uniqueViolation("users")
	}
	u.ID = s.db.nextID()
	u.CreatedAt = s.db.now()
	u.UpdatedAt = u.CreatedAt
	s.db.users[u.ID] = u
	return &u, nil
}

func (s *Users) Update(_ context.Context, u users.User) (*users.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.users[u.ID]
	if !ok {
		return nil, nil
	}
	if s.taken(u) {
		return nil, uniqueViolation("users")
	}
	cur.Name, cur.Company, cur.Team = u.Name, u.Company, u.Team
	cur.Role, cur.Approved, cur.TelegramID = u.Role, u.Approved, u.TelegramID
	cur.UpdatedAt = s.db.now()
	s.db.users[u.ID] = cur
	return &cur, nil
}

func (s *Users) Delete(_ context.Context, id int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return false, nil
	}
	for _, q := range s.db.quotes {
		if q.CreatedBy == id {
			return false, fkViolation("quotes")
		}
	}
	for _, o := range s.db.orders {
		if o.CreatedBy == id {
			return false, fkViolation("orders")
		}
	}
	// customers.sales_rep_id is ON DELETE SET NULL
	for cid, c := range s.db.customers {
		if c.SalesRepID == id {
			c.SalesRepID = 0
			s.db.customers[cid] = c
		}
	}
	delete(s.db.users, id)
	return true, nil
}

type Customers struct{ db *DB }

func (s *Customers) List(_ context.Context) ([]customers.Customer, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := sorted(s.db.customers, false)
	for i := range out {
		out[i] = cloneCustomer(out[i])
	}
	return out, nil
}

func (s *Customers) GetByID(_ context.Context, id int64) (*customers.Customer, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if c, ok := s.db.customers[id]; ok {
		return ptr(cloneCustomer(c)), nil
	}
	return nil, nil
}

func (s *Customers) Create(_ context.Context, c customers.Customer) (*customers.Customer, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c.ID = s.db.nextID()
	c.CreatedAt = s.db.now()
	c.UpdatedAt = c.CreatedAt
	s.db.customers[c.ID] = cloneCustomer(c)
	return &c, nil
}

func (s *Customers) Update(_ context.Context, c customers.Customer) (*customers.Customer, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.customers[c.ID]
	if !ok {
		return nil, nil
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = s.db.now()
	s.db.customers[c.ID] = cloneCustomer(c)
	return &c, nil
}

func (s *Customers) Delete(_ context.Context, id int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.customers[id]; !ok {
		return false, nil
	}
	for _, q := range s.db.quotes {
		if q.CustomerID == id {
			return false, fkViolation("quotes")
		}
	}
	delete(s.db.customers, id)
	return true, nil
}

type Categories struct{ db *DB }

func (s *Categories) EnsureCategory(_ context.Context, name string) (*catalog.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	c := catalog.Category{ID: s.db.nextID(), Name: name, Active: true, CreatedAt: s.db.now()}
	s.db.categories[c.ID] = c
	return &c, nil
}

func (s *Categories) ListCategories(_ context.Context, onlyActive bool) ([]catalog.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []catalog.Category{}
	for _, c := range s.db.categories {
		if !onlyActive || c.Active {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b catalog.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Categories) SetCategoryActive(_ context.Context, id int64, active bool) (*catalog.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.categories[id]
	if !ok {
		return nil, nil
	}
	c.Active = active
	s.db.categories[id] = c
	return &c, nil
}

type Products struct{ db *DB }

func (s *Products) List(_ context.Context, onlyActive bool) ([]products.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []products.Product{}
	for _, p := range sorted(s.db.products, false) {
		if !onlyActive || p.Active {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (s *Products) GetByID(_ context.Context, id int64) (*products.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p, ok := s.db.products[id]; ok {
		return ptr(cloneProduct(p)), nil
	}
	return nil, nil
}

func (s *Products) GetBySKU(_ context.Context, sku string) (*products.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.products {
		if p.SKU == sku {
			return ptr(cloneProduct(p)), nil
		}
	}
	return nil, nil
}

func (s *Products) skuTaken(p products.Product) bool {
	for _, o := range s.db.products {
		if o.ID != p.ID && o.SKU == p.SKU {
			return true
		}
	}
	return false
}

func (s *Products) Create(_ context.Context, p products.Product) (*products.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p.ID = 0
	if s.skuTaken(p) {
		return nil, uniqueViolation("products")
	}
	p.ID = s.db.nextID()
	p.CreatedAt = s.db.now()
	p.UpdatedAt = p.CreatedAt
	s.db.products[p.ID] = cloneProduct(p)
	return &p, nil
}

func (s *Products) Update(_ context.Context, p products.Product) (*products.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.products[p.ID]
	if !ok {
		return nil, nil
	}
	if s.skuTaken(p) {
		return nil, uniqueViolation("products")
	}
	p.Stock = cur.Stock
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = s.db.now()
	s.db.products[p.ID] = cloneProduct(p)
	return &p, nil
}

func (s *Products) Delete(_ context.Context, id int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.products[id]; !ok {
		return false, nil
	}
	for _, m := range s.db.movements {
		if m.ProductID == id {
			return false, fkViolation("stock_movements")
		}
	}
	delete(s.db.products, id)
	return true, nil
}

type Stock struct{ db *DB }

func (s *Stock) apply(actorID, orderID int64, lines []inventory.Line, t inventory.MoveType, note string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, l := range lines {
		if _, ok := s.db.products[l.ProductID]; !ok {
			return fkViolation("stock_movements")
		}
	}
	for _, l := range lines {
		p := s.db.products[l.ProductID]
		if t == inventory.MoveOut {
			p.Stock -= l.Qty
		} else {
			p.Stock += l.Qty
		}
		s.db.products[p.ID] = p
		s.db.movements = append(s.db.movements, inventory.Movement{
			ID: s.db.nextID(), CreatedAt: s.db.now(), ActorID: actorID,
			ProductID: l.ProductID, OrderID: orderID, Qty: l.Qty, Type: t, Note: note,
		})
	}
	return nil
}

func (s *Stock) Receive(_ context.Context, actorID int64, lines []inventory.Line, note string) error {
	return s.apply(actorID, 0, lines, inventory.MoveIn, note)
}

func (s *Stock) WriteOffOrder(_ context.Context, actorID, orderID int64, lines []inventory.Line) error {
	return s.apply(actorID, orderID, lines, inventory.MoveOut, "order")
}

func (s *Stock) ListByProduct(_ context.Context, productID int64) ([]inventory.Movement, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []inventory.Movement{}
	for i := len(s.db.movements) - 1; i >= 0; i-- {
		if m := s.db.movements[i]; m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

type Quotes struct{ db *DB }

func (s *Quotes) List(_ context.Context) ([]quotes.Quote, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := sorted(s.db.quotes, true)
	for i := range out {
		out[i] = cloneQuote(out[i])
	}
	return out, nil
}

func (s *Quotes) GetByID(_ context.Context, id int64) (*quotes.Quote, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if q, ok := s.db.quotes[id]; ok {
		return ptr(cloneQuote(q)), nil
	}
	return nil, nil
}

func (s *Quotes) Create(_ context.Context, q quotes.Quote) (*quotes.Quote, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.customers[q.CustomerID]; !ok {
		return nil, fkViolation("quotes")
	}
	q.ID = s.db.nextID()
	q.CreatedAt = s.db.now()
	q.UpdatedAt = q.CreatedAt
	s.db.quotes[q.ID] = cloneQuote(q)
	return ptr(cloneQuote(q)), nil
}

func (s *Quotes) Update(_ context.Context, q quotes.Quote) (*quotes.Quote, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.quotes[q.ID]
	if !ok {
		return nil, nil
	}
	q.CreatedAt = cur.CreatedAt
	q.UpdatedAt = s.db.now()
	s.db.quotes[q.ID] = cloneQuote(q)
	return ptr(cloneQuote(q)), nil
}

func (s *Quotes) Delete(_ context.Context, id int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.quotes[id]; !ok {
		return false, nil
	}
	for _, o := range s.db.orders {
		if o.QuoteID == id {
			return false, fkViolation("orders")
		}
	}
	delete(s.db.quotes, id)
	return true, nil
}

type Orders struct{ db *DB }

func (s *Orders) List(_ context.Context) ([]orders.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := sorted(s.db.orders, true)
	for i := range out {
		out[i] = cloneOrder(out[i])
	}
	return out, nil
}

func (s *Orders) GetByID(_ context.Context, id int64) (*orders.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if o, ok := s.db.orders[id]; ok {
		return ptr(cloneOrder(o)), nil
	}
	return nil, nil
}

func (s *Orders) Create(_ context.Context, o orders.Order, quoteStatus string) (*orders.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quotes[o.QuoteID]
	if !ok || string(q.Status) == quoteStatus {
		return nil, orders.ErrQuoteTaken
	}
	q.Status = quotes.Status(quoteStatus)
	q.UpdatedAt = s.db.now()
	s.db.quotes[q.ID] = q

	if o.Costs == nil {
		o.Costs = []pricing.Cost{}
	}
	o.ID = s.db.nextID()
	o.CreatedAt = s.db.now()
	o.UpdatedAt = o.CreatedAt
	s.db.orders[o.ID] = cloneOrder(o)
	return ptr(cloneOrder(o)), nil
}

func (s *Orders) Update(_ context.Context, o orders.Order) (*orders.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.orders[o.ID]
	if !ok {
		return nil, nil
	}
	cur.Items, cur.Costs, cur.License, cur.DeliveryDate = o.Items, o.Costs, o.License, o.DeliveryDate
	cur.ItemsTotal, cur.GrandTotal, cur.Notes = o.ItemsTotal, o.GrandTotal, o.Notes
	cur.UpdatedAt = s.db.now()
	s.db.orders[o.ID] = cloneOrder(cur)
	return ptr(cloneOrder(cur)), nil
}

type Dialogs struct{ db *DB }

func (s *Dialogs) Get(_ context.Context, chatID int64) (*dialog.Item, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if it, ok := s.db.dialogs[chatID]; ok {
		return &it, nil
	}
	return &dialog.Item{ChatID: chatID, State: dialog.StateIdle, Payload: dialog.Payload{}}, nil
}

func (s *Dialogs) Set(_ context.Context, chatID int64, state dialog.State, payload dialog.Payload) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.dialogs[chatID] = dialog.Item{ChatID: chatID, State: state, Payload: payload}
	return nil
}

func (s *Dialogs) Reset(_ context.Context, chatID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.dialogs, chatID)
	return nil
}
