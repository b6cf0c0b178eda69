package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/domain/customers"
)

// BulkResult reports a bulk action per id.
type BulkResult struct {
	Done   []int64          `json:"done"`
	Failed map[int64]string `json:"failed,omitempty"`
	// Hidden ids were selected but filtered out of the current view, so
	// they were not touched.
	Hidden []int64 `json:"hidden,omitempty"`
}

func (b *BulkResult) fail(id int64, err error) {
	if b.Failed == nil {
		b.Failed = map[int64]string{}
	}
	b.Failed[id] = err.Error()
}

type Customers struct {
	store CustomerStore
	users UserStore
	lists *Lists
}

func NewCustomers(store CustomerStore, users UserStore, lists *Lists) *Customers {
	return &Customers{store: store, users: users, lists: lists}
}

func (s *Customers) List(ctx context.Context) ([]customers.Customer, error) {
	return cachedList(ctx, s.lists, listCustomers, s.store.List)
}

func (s *Customers) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound("customer", id)
	}
	return c, nil
}

func (s *Customers) validate(ctx context.Context, c *customers.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" {
		return apperr.Invalid("customer name is required")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return apperr.Invalid("customer email %q is not valid", c.Email)
		}
	}
	for i, p := range c.POCs {
		if strings.TrimSpace(p.Name) == "" {
			return apperr.Invalid("point of contact %d has no name", i+1)
		}
	}
	if c.POCs == nil {
		c.POCs = []customers.POC{}
	}
	if c.SalesRepID != 0 {
		u, err := s.users.GetByID(ctx, c.SalesRepID)
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.Invalid("sales rep %d does not exist", c.SalesRepID)
		}
	}
	return nil
}

func (s *Customers) Create(ctx context.Context, c customers.Customer) (*customers.Customer, error) {
	if err := s.validate(ctx, &c); err != nil {
		return nil, err
	}
	c.ApplyAddressFlags(nil)
	out, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.lists.Invalidate(ctx, listCustomers)
	return out, nil
}

// Update replaces the stored customer with c. Address flags copy billing
// only when they are switched on by this update.
func (s *Customers) Update(ctx context.Context, c customers.Customer) (*customers.Customer, error) {
	prev, err := s.Get(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &c); err != nil {
		return nil, err
	}
	c.ApplyAddressFlags(prev)
	out, err := s.store.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	if out == nil {
		return nil, apperr.NotFound("customer", c.ID)
	}
	s.lists.Invalidate(ctx, listCustomers)
	return out, nil
}

func (s *Customers) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.Delete(ctx, id)
	if isForeignKeyViolation(err) {
		return apperr.Conflict("customer %d has quotes or orders", id)
	}
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if !ok {
		return apperr.NotFound("customer", id)
	}
	s.lists.Invalidate(ctx, listCustomers)
	return nil
}

func (s *Customers) BulkDelete(ctx context.Context, ids []int64) BulkResult {
	res := BulkResult{Done: []int64{}}
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			res.fail(id, err)
			continue
		}
		res.Done = append(res.Done, id)
	}
	return res
}
