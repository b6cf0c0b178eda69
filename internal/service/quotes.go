package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
	"github.com/Spok95/cpq/internal/infra/metrics"
)

type Quotes struct {
	store     QuoteStore
	customers CustomerStore
	products  ProductStore
	users     UserStore
	notifier  Notifier
	lists     *Lists
	log       *slog.Logger
	now       func() time.Time
}

func NewQuotes(store QuoteStore, customers CustomerStore, products ProductStore, users UserStore,
	notifier Notifier, lists *Lists, log *slog.Logger) *Quotes {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Quotes{
		store: store, customers: customers, products: products, users: users,
		notifier: notifier, lists: lists, log: log, now: time.Now,
	}
}

// SetNotifier swaps the notifier once the bot is up.
func (s *Quotes) SetNotifier(n Notifier) { s.notifier = n }

func (s *Quotes) List(ctx context.Context) ([]quotes.Quote, error) {
	return cachedList(ctx, s.lists, listQuotes, s.store.List)
}

func (s *Quotes) Get(ctx context.Context, id int64) (*quotes.Quote, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if q == nil {
		return nil, apperr.NotFound("quote", id)
	}
	return q, nil
}

// fillItems copies catalogue data into lines that only name a product.
// A zero unit price takes the catalogue price only on lines whose product
// differs from the one at the same position in prev.
func (s *Quotes) fillItems(ctx context.Context, items, prev []quotes.Item) error {
	for i := range items {
		it := &items[i]
		if it.ProductID == 0 {
			continue
		}
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
		if p == nil {
			return apperr.Invalid("item %d: product %d does not exist", i+1, it.ProductID)
		}
		it.SKU = p.SKU
		if strings.TrimSpace(it.Description) == "" {
			it.Description = p.Name
		}
		kept := i < len(prev) && prev[i].ProductID == it.ProductID
		if it.UnitPrice == 0 && !kept {
			it.UnitPrice = p.PricePerPiece
		}
	}
	return nil
}

func (s *Quotes) prepare(ctx context.Context, q *quotes.Quote, prev []quotes.Item) error {
	if q.Items == nil {
		q.Items = []quotes.Item{}
	}
	if err := q.Validate(); err != nil {
		return err
	}
	c, err := s.customers.GetByID(ctx, q.CustomerID)
	if err != nil {
		return err
	}
	if c == nil {
		return apperr.Invalid("customer %d does not exist", q.CustomerID)
	}
	if err := s.fillItems(ctx, q.Items, prev); err != nil {
		return err
	}
	return q.Recalculate()
}

func (s *Quotes) save(ctx context.Context, q quotes.Quote) (*quotes.Quote, error) {
	out, err := s.store.Update(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("save quote: %w", err)
	}
	if out == nil {
		return nil, apperr.NotFound("quote", q.ID)
	}
	s.lists.Invalidate(ctx, listQuotes)
	return out, nil
}

func (s *Quotes) Create(ctx context.Context, actorID int64, q quotes.Quote) (*quotes.Quote, error) {
	q.Status = quotes.StatusDrafted
	q.Approvers = quotes.Approvers{Pending: []int64{}, Approved: []int64{}}
	q.DeclineReason = ""
	q.CreatedBy = actorID
	q.Reference = quotes.NewReference("Q", s.now())
	if err := s.prepare(ctx, &q, nil); err != nil {
		return nil, err
	}
	out, err := s.store.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	s.lists.Invalidate(ctx, listQuotes)
	metrics.QuoteTransition(string(out.Status))
	return out, nil
}

// Update takes the whole quote as edited by the client. Workflow fields
// (status, approvers, reference, author) are kept from the stored quote.
func (s *Quotes) Update(ctx context.Context, q quotes.Quote) (*quotes.Quote, error) {
	cur, err := s.Get(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if !cur.Editable() {
		return nil, apperr.Conflict("quote %s is %s and cannot be edited", cur.Reference, cur.Status)
	}
	q.Reference = cur.Reference
	q.Status = cur.Status
	q.Approvers = cur.Approvers
	q.DeclineReason = cur.DeclineReason
	q.CreatedBy = cur.CreatedBy
	q.CreatedAt = cur.CreatedAt
	if err := s.prepare(ctx, &q, cur.Items); err != nil {
		return nil, err
	}
	return s.save(ctx, q)
}

// UpdateItem edits one line in place, as the inline cells of the line
// item table do.
func (s *Quotes) UpdateItem(ctx context.Context, id int64, index int, p quotes.ItemPatch) (*quotes.Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.UpdateItem(index, p); err != nil {
		return nil, err
	}
	return s.save(ctx, *q)
}

func (s *Quotes) Delete(ctx context.Context, id int64) error {
	q, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !q.Deletable() {
		return apperr.Conflict("quote %s has an order", q.Reference)
	}
	ok, err := s.store.Delete(ctx, id)
	if isForeignKeyViolation(err) {
		return apperr.Conflict("quote %s has an order", q.Reference)
	}
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	if !ok {
		return apperr.NotFound("quote", id)
	}
	s.lists.Invalidate(ctx, listQuotes)
	return nil
}

func (s *Quotes) approvers(ctx context.Context, ids []int64) ([]users.User, error) {
	out := make([]users.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil || !u.Approved {
			return nil, apperr.Invalid("approver %d does not exist", id)
		}
		if !u.Role.CanApprove() {
			return nil, apperr.Invalid("user %d (%s) cannot approve quotes", id, u.Role)
		}
		out = append(out, *u)
	}
	return out, nil
}

func (s *Quotes) Submit(ctx context.Context, id int64, approverIDs []int64) (*quotes.Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := slices.Clone(approverIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	approvers, err := s.approvers(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := q.Submit(ids); err != nil {
		return nil, err
	}
	out, err := s.save(ctx, *q)
	if err != nil {
		return nil, err
	}
	metrics.QuoteTransition(string(out.Status))
	s.log.Info("quote submitted", "quote", out.Reference, "approvers", ids)
	s.notifier.QuoteSubmitted(ctx, *out, approvers)
	return out, nil
}

func (s *Quotes) decided(ctx context.Context, q *quotes.Quote) {
	metrics.QuoteTransition(string(q.Status))
	if q.Status == quotes.StatusPendingApproval {
		return
	}
	author, err := s.users.GetByID(ctx, q.CreatedBy)
	if err != nil {
		s.log.Warn("quote author lookup failed", "quote", q.Reference, "err", err)
	}
	s.notifier.QuoteDecided(ctx, *q, author)
}

func (s *Quotes) Approve(ctx context.Context, id, userID int64) (*quotes.Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.Approve(userID); err != nil {
		return nil, err
	}
	out, err := s.save(ctx, *q)
	if err != nil {
		return nil, err
	}
	s.log.Info("quote approved", "quote", out.Reference, "by", userID, "status", out.Status)
	s.decided(ctx, out)
	return out, nil
}

func (s *Quotes) Decline(ctx context.Context, id, userID int64, reason string) (*quotes.Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.Decline(userID, reason); err != nil {
		return nil, err
	}
	out, err := s.save(ctx, *q)
	if err != nil {
		return nil, err
	}
	s.log.Info("quote declined", "quote", out.Reference, "by", userID)
	s.decided(ctx, out)
	return out, nil
}

func (s *Quotes) BulkApprove(ctx context.Context, userID int64, ids []int64) BulkResult {
	res := BulkResult{Done: []int64{}}
	for _, id := range ids {
		if _, err := s.Approve(ctx, id, userID); err != nil {
			res.fail(id, err)
			continue
		}
		res.Done = append(res.Done, id)
	}
	return res
}

func (s *Quotes) BulkDelete(ctx context.Context, ids []int64) BulkResult {
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

// PendingFor lists quotes waiting on userID's approval.
func (s *Quotes) PendingFor(ctx context.Context, userID int64) ([]quotes.Quote, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []quotes.Quote{}
	for _, q := range all {
		if q.Status == quotes.StatusPendingApproval && slices.Contains(q.Approvers.Pending, userID) {
			out = append(out, q)
		}
	}
	return out, nil
}
