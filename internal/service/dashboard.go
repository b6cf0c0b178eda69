package service

import (
	"context"

	"github.com/Spok95/cpq/internal/domain/quotes"
)

type Dashboard struct {
	Customers    int                   `json:"customers"`
	Products     int                   `json:"products"`
	QuotesBy     map[quotes.Status]int `json:"quotes_by_status"`
	QuotesValue  int64                 `json:"quotes_value"`
	Orders       int                   `json:"orders"`
	OrdersValue  int64                 `json:"orders_value"`
	PendingForMe int                   `json:"pending_for_me"`
}

// Summary counts what the landing page shows for userID.
func Summary(ctx context.Context, c *Customers, p *Products, q *Quotes, o *Orders, userID int64) (*Dashboard, error) {
	cs, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	ps, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	qs, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	ords, err := o.List(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Customers: len(cs),
		Products:  len(ps),
		QuotesBy:  make(map[quotes.Status]int, len(quotes.Statuses)),
		Orders:    len(ords),
	}
	for _, s := range quotes.Statuses {
		d.QuotesBy[s] = 0
	}
	for _, qt := range qs {
		d.QuotesBy[qt.Status]++
		d.QuotesValue += qt.Total
		if qt.Status == quotes.StatusPendingApproval {
			for _, id := range qt.Approvers.Pending {
				if id == userID {
					d.PendingForMe++
				}
			}
		}
	}
	for _, or := range ords {
		d.OrdersValue += or.GrandTotal
	}
	return d, nil
}
