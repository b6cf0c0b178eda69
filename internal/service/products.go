package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/domain/catalog"
	"github.com/Spok95/cpq/internal/domain/inventory"
	"github.com/Spok95/cpq/internal/domain/products"
)

type Products struct {
	store      ProductStore
	categories CategoryStore
	stock      StockStore
	lists      *Lists
}

func NewProducts(store ProductStore, categories CategoryStore, stock StockStore, lists *Lists) *Products {
	return &Products{store: store, categories: categories, stock: stock, lists: lists}
}

func (s *Products) List(ctx context.Context) ([]products.Product, error) {
	return cachedList(ctx, s.lists, listProducts, func(ctx context.Context) ([]products.Product, error) {
		return s.store.List(ctx, false)
	})
}

func (s *Products) Get(ctx context.Context, id int64) (*products.Product, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, apperr.NotFound("product", id)
	}
	return p, nil
}

func (s *Products) prepare(ctx context.Context, p *products.Product) error {
	p.SKU = strings.TrimSpace(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	switch {
	case p.SKU == "":
		return apperr.Invalid("sku is required")
	case p.Name == "":
		return apperr.Invalid("product name is required")
	case p.PricePerPiece < 0 || math.IsNaN(p.PricePerPiece):
		return apperr.Invalid("price must be >= 0")
	case p.GST < 0 || p.GST > 100:
		return apperr.Invalid("gst must be within 0..100")
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Documents == nil {
		p.Documents = []string{}
	}
	if p.Category != "" {
		if _, err := s.categories.EnsureCategory(ctx, p.Category); err != nil {
			return fmt.Errorf("ensure category: %w", err)
		}
	}
	p.Price()
	return nil
}

func (s *Products) Create(ctx context.Context, p products.Product) (*products.Product, error) {
	if err := s.prepare(ctx, &p); err != nil {
		return nil, err
	}
	if p.Stock < 0 {
		return nil, apperr.Invalid("stock must be >= 0")
	}
	p.Active = true
	out, err := s.store.Create(ctx, p)
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("sku %q already exists", p.SKU)
	}
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.lists.Invalidate(ctx, listProducts)
	return out, nil
}

// Update saves everything but stock, which only moves through Restock and
// orders.
func (s *Products) Update(ctx context.Context, p products.Product) (*products.Product, error) {
	if err := s.prepare(ctx, &p); err != nil {
		return nil, err
	}
	out, err := s.store.Update(ctx, p)
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("sku %q already exists", p.SKU)
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if out == nil {
		return nil, apperr.NotFound("product", p.ID)
	}
	s.lists.Invalidate(ctx, listProducts)
	return out, nil
}

func (s *Products) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.Delete(ctx, id)
	if isForeignKeyViolation(err) {
		return apperr.Conflict("product %d has stock history", id)
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !ok {
		return apperr.NotFound("product", id)
	}
	s.lists.Invalidate(ctx, listProducts)
	return nil
}

func (s *Products) Restock(ctx context.Context, actorID, productID, qty int64, note string) (*products.Product, error) {
	if qty <= 0 {
		return nil, apperr.Invalid("qty must be > 0")
	}
	if _, err := s.Get(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.stock.Receive(ctx, actorID, []inventory.Line{{ProductID: productID, Qty: qty}}, note); err != nil {
		return nil, fmt.Errorf("restock: %w", err)
	}
	s.lists.Invalidate(ctx, listProducts)
	return s.Get(ctx, productID)
}

func (s *Products) Movements(ctx context.Context, productID int64) ([]inventory.Movement, error) {
	if _, err := s.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.stock.ListByProduct(ctx, productID)
}

func (s *Products) Categories(ctx context.Context) ([]catalog.Category, error) {
	return s.categories.ListCategories(ctx, false)
}

func (s *Products) SetCategoryActive(ctx context.Context, id int64, active bool) (*catalog.Category, error) {
	c, err := s.categories.SetCategoryActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("category", id)
	}
	return c, nil
}

// ImportResult reports a price list import; Failed is keyed by the
// 1-based row of the data.
type ImportResult struct {
	Created  int            `json:"created"`
	Updated  int            `json:"updated"`
	Received int64          `json:"received"`
	Failed   map[int]string `json:"failed,omitempty"`
}

// Import upserts products by SKU. A positive Stock on a row is booked as
// a receipt.
func (s *Products) Import(ctx context.Context, actorID int64, rows []products.Product) ImportResult {
	res := ImportResult{}
	fail := func(i int, err error) {
		if res.Failed == nil {
			res.Failed = map[int]string{}
		}
		res.Failed[i+1] = err.Error()
	}
	for i, p := range rows {
		received := p.Stock
		cur, err := s.store.GetBySKU(ctx, strings.TrimSpace(p.SKU))
		if err != nil {
			fail(i, err)
			continue
		}
		var saved *products.Product
		if cur == nil {
			p.Stock = 0
			saved, err = s.Create(ctx, p)
			if err == nil {
				res.Created++
			}
		} else {
			cur.Name, cur.PricePerPiece, cur.GST = p.Name, p.PricePerPiece, p.GST
			if p.Category != "" {
				cur.Category = p.Category
			}
			saved, err = s.Update(ctx, *cur)
			if err == nil {
				res.Updated++
			}
		}
		if err != nil {
			fail(i, err)
			continue
		}
		if received > 0 {
			if _, err := s.Restock(ctx, actorID, saved.ID, received, "price list import"); err != nil {
				fail(i, err)
				continue
			}
			res.Received += received
		}
	}
	return res
}
