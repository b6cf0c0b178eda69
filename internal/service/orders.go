package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/inventory"
	"github.com/Spok95/cpq/internal/domain/orders"
	"github.com/Spok95/cpq/internal/domain/pricing"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/infra/metrics"
)

// OrderInput is what the order form adds on top of the approved quote.
type OrderInput struct {
	Costs        []pricing.Cost `json:"costs"`
	License      orders.License `json:"license"`
	DeliveryDate *time.Time     `json:"delivery_date"`
	Notes        string         `json:"notes"`
}

type Orders struct {
	store     OrderStore
	quotes    QuoteStore
	customers CustomerStore
	stock     StockStore
	lists     *Lists
	log       *slog.Logger
	now       func() time.Time
}

func NewOrders(store OrderStore, quotes QuoteStore, customers CustomerStore, stock StockStore,
	lists *Lists, log *slog.Logger) *Orders {
	return &Orders{
		store: store, quotes: quotes, customers: customers, stock: stock,
		lists: lists, log: log, now: time.Now,
	}
}

func (s *Orders) List(ctx context.Context) ([]orders.Order, error) {
	return cachedList(ctx, s.lists, listOrders, s.store.List)
}

func (s *Orders) Get(ctx context.Context, id int64) (*orders.Order, error) {
	o, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, apperr.NotFound("order", id)
	}
	return o, nil
}

func validateCosts(costs []pricing.Cost) error {
	for i := range costs {
		c := &costs[i]
		c.Kind = strings.TrimSpace(c.Kind)
		if c.Kind == "" {
			c.Kind = orders.CostOther
		}
		if c.Mode == "" {
			c.Mode = pricing.CostAdditional
		}
		if !c.Mode.Valid() {
			return apperr.Invalid("cost %d: unknown mode %q", i+1, c.Mode)
		}
		if c.Amount < 0 {
			return apperr.Invalid("cost %d: amount must be >= 0", i+1)
		}
	}
	return nil
}

func (s *Orders) apply(o *orders.Order, in OrderInput) error {
	if in.Costs == nil {
		in.Costs = []pricing.Cost{}
	}
	if err := validateCosts(in.Costs); err != nil {
		return err
	}
	o.Costs = in.Costs
	o.License = in.License
	o.DeliveryDate = in.DeliveryDate
	o.Notes = strings.TrimSpace(in.Notes)
	return o.Recalculate()
}

// CreateFromQuote turns an approved quote into an order. Items are copied
// from the quote, and the quote becomes "Order placed" in the same write.
func (s *Orders) CreateFromQuote(ctx context.Context, actorID, quoteID int64, in OrderInput) (*orders.Order, error) {
	q, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if q == nil {
		return nil, apperr.NotFound("quote", quoteID)
	}
	if err := q.MarkOrdered(); err != nil {
		return nil, err
	}

	o := orders.Order{
		Reference:  quotes.NewReference("O", s.now()),
		QuoteID:    q.ID,
		CustomerID: q.CustomerID,
		Items:      append([]quotes.Item(nil), q.Items...),
		CreatedBy:  actorID,
	}
	if err := s.apply(&o, in); err != nil {
		return nil, err
	}
	if o.License.WPCAddress == (customers.Address{}) {
		c, err := s.customers.GetByID(ctx, q.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("get customer: %w", err)
		}
		if c != nil {
			o.License.WPCAddress = c.WPC
		}
	}

	out, err := s.store.Create(ctx, o, string(quotes.StatusOrderPlaced))
	if errors.Is(err, orders.ErrQuoteTaken) {
		return nil, apperr.Conflict("quote %s already has an order", q.Reference)
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	metrics.QuoteTransition(string(quotes.StatusOrderPlaced))
	metrics.OrderCreated()

	if lines := stockLines(out.Items); len(lines) > 0 {
		if err := s.stock.WriteOffOrder(ctx, actorID, out.ID, lines); err != nil {
			s.log.Warn("stock write-off failed", "order", out.Reference, "err", err)
		}
	}
	s.lists.Invalidate(ctx, listOrders, listQuotes, listProducts)
	s.log.Info("order placed", "order", out.Reference, "quote", q.Reference, "total", out.GrandTotal)
	return out, nil
}

// stockLines folds order items into whole pieces per product. Free-text
// lines without a product are skipped.
func stockLines(items []quotes.Item) []inventory.Line {
	idx := map[int64]int{}
	var out []inventory.Line
	for _, it := range items {
		if it.ProductID == 0 || it.Qty <= 0 {
			continue
		}
		qty := int64(math.Ceil(it.Qty))
		if i, ok := idx[it.ProductID]; ok {
			out[i].Qty += qty
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, inventory.Line{ProductID: it.ProductID, Qty: qty})
	}
	return out
}

// Update edits costs, licence, delivery date and notes. Items stay as
// they were when the quote was approved.
func (s *Orders) Update(ctx context.Context, id int64, in OrderInput) (*orders.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(o, in); err != nil {
		return nil, err
	}
	out, err := s.store.Update(ctx, *o)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if out == nil {
		return nil, apperr.NotFound("order", id)
	}
	s.lists.Invalidate(ctx, listOrders)
	return out, nil
}
