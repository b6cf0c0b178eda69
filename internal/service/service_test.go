package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/auth"
	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/orders"
	"github.com/Spok95/cpq/internal/domain/pricing"
	"github.com/Spok95/cpq/internal/domain/products"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
	"github.com/Spok95/cpq/internal/infra/cache"
	"github.com/Spok95/cpq/internal/infra/logger"
	"github.com/Spok95/cpq/internal/memstore"
	"github.com/Spok95/cpq/internal/service"
)

type recNotifier struct {
	submitted []string
	decided   []quotes.Status
}

func (n *recNotifier) QuoteSubmitted(_ context.Context, q quotes.Quote, approvers []users.User) {
	for _, a := range approvers {
		n.submitted = append(n.submitted, q.Reference+"->"+a.Name)
	}
}

func (n *recNotifier) QuoteDecided(_ context.Context, q quotes.Quote, _ *users.User) {
	n.decided = append(n.decided, q.Status)
}

type env struct {
	db        *memstore.DB
	notifier  *recNotifier
	users     *service.Users
	customers *service.Customers
	products  *service.Products
	quotes    *service.Quotes
	orders    *service.Orders

	admin, sales *users.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()
	log := logger.Discard()
	lists := service.NewLists(cache.NewMemory(), time.Minute, log)
	n := &recNotifier{}
	e := &env{
		db:        db,
		notifier:  n,
		users:     service.NewUsers(db.Users(), auth.NewIssuer("test-secret", time.Hour), lists, log),
		customers: service.NewCustomers(db.Customers(), db.Users(), lists),
		products:  service.NewProducts(db.Products(), db.Categories(), db.Stock(), lists),
		quotes:    service.NewQuotes(db.Quotes(), db.Customers(), db.Products(), db.Users(), n, lists, log),
		orders:    service.NewOrders(db.Orders(), db.Quotes(), db.Customers(), db.Stock(), lists, log),
	}

	var err error
	e.admin, err = e.users.Register(ctx, service.Registration{Name: "Asha", Email: "asha@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	e.sales, err = e.users.Register(ctx, service.Registration{Name: "Ravi", Email: "ravi@example.com", Password: "password2"})
	if err != nil {
		t.Fatalf("register sales: %v", err)
	}
	if e.sales, err = e.users.Approve(ctx, e.sales.ID, ""); err != nil {
		t.Fatalf("approve sales: %v", err)
	}
	return e
}

func billing() customers.Address {
	return customers.Address{Street: "12 MG Road", City: "Pune", State: "MH", Country: "IN", Pin: "411001"}
}

func (e *env) customer(t *testing.T) *customers.Customer {
	t.Helper()
	c, err := e.customers.Create(context.Background(), customers.Customer{
		Name:             "Acme",
		Email:            "buy@acme.test",
		Billing:          billing(),
		WPCSameAsBilling: true,
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func (e *env) product(t *testing.T) *products.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), products.Product{
		SKU: "RAD-1", Name: "Radio", Category: "Radios", PricePerPiece: 100, GST: 18,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (e *env) draft(t *testing.T) *quotes.Quote {
	t.Helper()
	c, p := e.customer(t), e.product(t)
	q, err := e.quotes.Create(context.Background(), e.sales.ID, quotes.Quote{
		CustomerID: c.ID,
		Items: []quotes.Item{
			{ProductID: p.ID, Line: pricing.Line{Qty: 2, DiscountPct: 10, TaxPct: 18}},
		},
	})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	return q
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	if e.admin.Role != users.RoleAdmin || !e.admin.Approved {
		t.Fatalf("first user should be an approved admin, got %+v", e.admin)
	}

	pending, err := e.users.Register(ctx, service.Registration{Name: "Meera", Email: "Meera@Example.com", Password: "password3"})
	if err != nil {
		t.Fatal(err)
	}
	if pending.Role != users.RoleSales || pending.Approved {
		t.Fatalf("later users wait for approval, got %+v", pending)
	}
	if _, err := e.users.Login(ctx, "meera@example.com", "password3"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("unapproved login: %v", err)
	}
	if _, err := e.users.Register(ctx, service.Registration{Name: "X", Email: "meera@example.com", Password: "password3"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate email: %v", err)
	}
	if _, err := e.users.Register(ctx, service.Registration{Name: "Y", Email: "y@example.com", Password: "short"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("short password: %v", err)
	}

	if _, err := e.users.Approve(ctx, pending.ID, users.RoleApprover); err != nil {
		t.Fatal(err)
	}
	s, err := e.users.Login(ctx, "meera@example.com", "password3")
	if err != nil {
		t.Fatal(err)
	}
	if s.Token == "" || s.User.Role != users.RoleApprover {
		t.Fatalf("session %+v", s)
	}
	if _, err := e.users.Login(ctx, "meera@example.com", "nope"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("wrong password: %v", err)
	}
}

func TestUserCannotDeleteOrDemoteSelf(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	if err := e.users.Delete(ctx, e.admin.ID, e.admin.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("self delete: %v", err)
	}
	role := users.RoleSales
	if _, err := e.users.Update(ctx, e.admin.ID, e.admin.ID, service.UserPatch{Role: &role}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("self demote: %v", err)
	}
	if err := e.users.Delete(ctx, e.admin.ID, e.sales.ID); err != nil {
		t.Fatalf("delete sales: %v", err)
	}
}

func TestCustomerAddressSnapshot(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	c, err := e.customers.Create(ctx, customers.Customer{Name: "Acme", Billing: billing(), SameAsBilling: true})
	if err != nil {
		t.Fatal(err)
	}
	if c.Shipping != billing() {
		t.Fatalf("shipping not copied: %+v", c.Shipping)
	}

	c.Billing.City = "Mumbai"
	c, err = e.customers.Update(ctx, *c)
	if err != nil {
		t.Fatal(err)
	}
	if c.Shipping.City != "Pune" {
		t.Fatalf("shipping must keep the snapshot, got %q", c.Shipping.City)
	}

	c.SameAsBilling = false
	if c, err = e.customers.Update(ctx, *c); err != nil {
		t.Fatal(err)
	}
	c.SameAsBilling = true
	if c, err = e.customers.Update(ctx, *c); err != nil {
		t.Fatal(err)
	}
	if c.Shipping.City != "Mumbai" {
		t.Fatalf("re-enabling should copy again, got %q", c.Shipping.City)
	}
}

func TestCustomerValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	cases := []customers.Customer{
		{Name: ""},
		{Name: "Acme", Email: "not-an-email"},
		{Name: "Acme", SalesRepID: 999},
	}
	for i, c := range cases {
		if _, err := e.customers.Create(ctx, c); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("case %d: want invalid, got %v", i, err)
		}
	}
}

func TestQuoteItemsAreFilledAndPriced(t *testing.T) {
	e := newEnv(t)
	q := e.draft(t)

	if q.Status != quotes.StatusDrafted {
		t.Fatalf("status %q", q.Status)
	}
	it := q.Items[0]
	if it.Description != "Radio" || it.SKU != "RAD-1" || it.UnitPrice != 100 {
		t.Fatalf("item not filled from product: %+v", it)
	}
	if it.Amount != 212 || q.Total != 212 {
		t.Fatalf("amount %d total %d", it.Amount, q.Total)
	}

	qty := 1.0
	q, err := e.quotes.UpdateItem(context.Background(), q.ID, 0, quotes.ItemPatch{Qty: &qty})
	if err != nil {
		t.Fatal(err)
	}
	if q.Items[0].Amount != 106 || q.Total != 106 {
		t.Fatalf("after edit amount %d total %d", q.Items[0].Amount, q.Total)
	}
}

func TestZeroPricedLineSurvivesUpdate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	q := e.draft(t)

	zero := 0.0
	q, err := e.quotes.UpdateItem(ctx, q.ID, 0, quotes.ItemPatch{UnitPrice: &zero})
	if err != nil {
		t.Fatal(err)
	}
	if q.Items[0].UnitPrice != 0 || q.Total != 0 {
		t.Fatalf("after patch price %v total %d", q.Items[0].UnitPrice, q.Total)
	}

	q.Notes = "free sample"
	q, err = e.quotes.Update(ctx, *q)
	if err != nil {
		t.Fatal(err)
	}
	if q.Items[0].UnitPrice != 0 || q.Total != 0 {
		t.Fatalf("update repriced the free line: price %v total %d", q.Items[0].UnitPrice, q.Total)
	}

	q.Items = append(q.Items, quotes.Item{ProductID: q.Items[0].ProductID, Line: pricing.Line{Qty: 1}})
	q, err = e.quotes.Update(ctx, *q)
	if err != nil {
		t.Fatal(err)
	}
	if q.Items[1].UnitPrice != 100 {
		t.Fatalf("new line price %v, want catalogue 100", q.Items[1].UnitPrice)
	}
}

func TestQuoteApproval(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	q := e.draft(t)

	if _, err := e.quotes.Submit(ctx, q.ID, []int64{e.sales.ID}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("sales cannot approve: %v", err)
	}
	q, err := e.quotes.Submit(ctx, q.ID, []int64{e.admin.ID, e.admin.ID})
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != quotes.StatusPendingApproval || len(q.Approvers.Pending) != 1 {
		t.Fatalf("after submit %+v", q)
	}
	if len(e.notifier.submitted) != 1 {
		t.Fatalf("notifications %v", e.notifier.submitted)
	}

	one := 5.0
	if _, err := e.quotes.UpdateItem(ctx, q.ID, 0, quotes.ItemPatch{Qty: &one}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("edit while pending: %v", err)
	}
	if _, err := e.quotes.Approve(ctx, q.ID, e.sales.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("stranger approve: %v", err)
	}
	q, err = e.quotes.Approve(ctx, q.ID, e.admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != quotes.StatusApproved {
		t.Fatalf("status %q", q.Status)
	}
	if _, err := e.quotes.Approve(ctx, q.ID, e.admin.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second approve: %v", err)
	}
	if len(e.notifier.decided) != 1 || e.notifier.decided[0] != quotes.StatusApproved {
		t.Fatalf("decided %v", e.notifier.decided)
	}
}

func TestQuoteDeclineAndResubmit(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	q := e.draft(t)

	if _, err := e.quotes.Submit(ctx, q.ID, []int64{e.admin.ID}); err != nil {
		t.Fatal(err)
	}
	q, err := e.quotes.Decline(ctx, q.ID, e.admin.ID, " price too high ")
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != quotes.StatusDeclined || q.DeclineReason != "price too high" {
		t.Fatalf("after decline %+v", q)
	}
	q, err = e.quotes.Submit(ctx, q.ID, []int64{e.admin.ID})
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != quotes.StatusPendingApproval || q.DeclineReason != "" {
		t.Fatalf("after resubmit %+v", q)
	}
}

func TestOrderFromApprovedQuote(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	q := e.draft(t)
	pid := q.Items[0].ProductID

	if _, err := e.products.Restock(ctx, e.admin.ID, pid, 10, "opening"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.orders.CreateFromQuote(ctx, e.sales.ID, q.ID, service.OrderInput{}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("order from draft: %v", err)
	}
	if _, err := e.quotes.Submit(ctx, q.ID, []int64{e.admin.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.quotes.Approve(ctx, q.ID, e.admin.ID); err != nil {
		t.Fatal(err)
	}

	o, err := e.orders.CreateFromQuote(ctx, e.sales.ID, q.ID, service.OrderInput{
		Costs: []pricing.Cost{
			{Kind: orders.CostFreight, Amount: 150},
			{Kind: orders.CostInstallation, Amount: 40, Mode: pricing.CostInclusive},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.ItemsTotal != 212 || o.GrandTotal != 362 {
		t.Fatalf("totals %d %d", o.ItemsTotal, o.GrandTotal)
	}
	if o.License.WPCAddress != billing() {
		t.Fatalf("wpc address not taken from customer: %+v", o.License.WPCAddress)
	}

	got, err := e.quotes.Get(ctx, q.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != quotes.StatusOrderPlaced {
		t.Fatalf("quote status %q", got.Status)
	}
	p, err := e.products.Get(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock != 8 {
		t.Fatalf("stock %d", p.Stock)
	}

	if _, err := e.orders.CreateFromQuote(ctx, e.sales.ID, q.ID, service.OrderInput{}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second order: %v", err)
	}
	if err := e.quotes.Delete(ctx, q.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("delete ordered quote: %v", err)
	}
	if err := e.customers.Delete(ctx, q.CustomerID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("delete customer with quotes: %v", err)
	}
}

func TestOrderRejectsUnknownCostMode(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	q := e.draft(t)
	if _, err := e.quotes.Submit(ctx, q.ID, []int64{e.admin.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.quotes.Approve(ctx, q.ID, e.admin.ID); err != nil {
		t.Fatal(err)
	}
	_, err := e.orders.CreateFromQuote(ctx, e.sales.ID, q.ID, service.OrderInput{
		Costs: []pricing.Cost{{Kind: "freight", Amount: 1, Mode: "sometimes"}},
	})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("want invalid, got %v", err)
	}
}

func TestBulkDeleteReportsFailures(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	q := e.draft(t)
	free, err := e.customers.Create(ctx, customers.Customer{Name: "Free"})
	if err != nil {
		t.Fatal(err)
	}

	res := e.customers.BulkDelete(ctx, []int64{q.CustomerID, free.ID, 999})
	if len(res.Done) != 1 || res.Done[0] != free.ID {
		t.Fatalf("done %v", res.Done)
	}
	if len(res.Failed) != 2 {
		t.Fatalf("failed %v", res.Failed)
	}
}

func TestProductSKUUnique(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	p := e.product(t)
	if p.PriceWithGST != 118 || !p.Active {
		t.Fatalf("product %+v", p)
	}
	_, err := e.products.Create(ctx, products.Product{SKU: "RAD-1", Name: "Other"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate sku: %v", err)
	}
	cats, err := e.products.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 1 || cats[0].Name != "Radios" {
		t.Fatalf("categories %+v", cats)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	q := e.draft(t)
	if _, err := e.quotes.Submit(ctx, q.ID, []int64{e.admin.ID}); err != nil {
		t.Fatal(err)
	}
	d, err := service.Summary(ctx, e.customers, e.products, e.quotes, e.orders, e.admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Customers != 1 || d.Products != 1 || d.QuotesBy[quotes.StatusPendingApproval] != 1 || d.PendingForMe != 1 {
		t.Fatalf("summary %+v", d)
	}
	if d.QuotesValue != 212 {
		t.Fatalf("quotes value %d", d.QuotesValue)
	}
}

func TestProductImportUpsertsBySKU(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	p := e.product(t)

	res := e.products.Import(ctx, e.admin.ID, []products.Product{
		{SKU: "RAD-1", Name: "Radio v2", PricePerPiece: 120, GST: 18, Stock: 5},
		{SKU: "ANT-2", Name: "Antenna", PricePerPiece: 40},
		{SKU: "", Name: "Broken"},
	})
	if res.Created != 1 || res.Updated != 1 || res.Received != 5 {
		t.Fatalf("result %+v", res)
	}
	if _, ok := res.Failed[3]; !ok || len(res.Failed) != 1 {
		t.Fatalf("failed %v", res.Failed)
	}
	got, err := e.products.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Radio v2" || got.Stock != 5 || got.Category != "Radios" || got.PriceWithGST != 141.6 {
		t.Fatalf("updated product %+v", got)
	}
}

// stallingCustomers holds the first List after it has read the rows, so a
// write can land before the snapshot reaches the cache.
type stallingCustomers struct {
	service.CustomerStore
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (s *stallingCustomers) List(ctx context.Context) ([]customers.Customer, error) {
	out, err := s.CustomerStore.List(ctx)
	s.once.Do(func() {
		close(s.loaded)
		<-s.release
	})
	return out, err
}

func TestListCacheDropsSnapshotOverlappingWrite(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	lists := service.NewLists(cache.NewMemory(), time.Minute, logger.Discard())
	store := &stallingCustomers{
		CustomerStore: db.Customers(),
		loaded:        make(chan struct{}),
		release:       make(chan struct{}),
	}
	svc := service.NewCustomers(store, db.Users(), lists)

	done := make(chan []customers.Customer)
	go func() {
		cs, err := svc.List(ctx)
		if err != nil {
			t.Errorf("list: %v", err)
		}
		done <- cs
	}()

	<-store.loaded
	if _, err := svc.Create(ctx, customers.Customer{Name: "Acme"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	close(store.release)
	if cs := <-done; len(cs) != 0 {
		t.Fatalf("overlapping list read %d rows, want the pre-write snapshot", len(cs))
	}

	cs, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cs) != 1 || cs[0].Name != "Acme" {
		t.Fatalf("list after create = %+v, want Acme", cs)
	}
}
