package orders

import (
	"fmt"
	"time"

	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/pricing"
	"github.com/Spok95/cpq/internal/domain/quotes"
)

// Cost kinds the order form offers. Other kinds are accepted as free text.
const (
	CostFreight      = "freight"
	CostInsurance    = "insurance"
	CostInstallation = "installation"
	CostPackaging    = "packaging"
	CostOther        = "other"
)

// License holds the regulatory paperwork attached to an order.
type License struct {
	Number        string            `json:"number"`
	Type          string            `json:"type"`
	IssuedOn      string            `json:"issued_on,omitempty"`
	LiaisonAgent  string            `json:"liaison_agent,omitempty"`
	LiaisonStatus string            `json:"liaison_status,omitempty"`
	WPCAddress    customers.Address `json:"wpc_address"`
}

type Order struct {
	ID           int64          `json:"id"`
	Reference    string         `json:"reference"`
	QuoteID      int64          `json:"quote_id"`
	CustomerID   int64          `json:"customer_id"`
	Items        []quotes.Item  `json:"items"`
	Costs        []pricing.Cost `json:"costs"`
	License      License        `json:"license"`
	DeliveryDate *time.Time     `json:"delivery_date,omitempty"`
	ItemsTotal   int64          `json:"items_total"`
	GrandTotal   int64          `json:"grand_total"`
	Notes        string         `json:"notes"`
	CreatedBy    int64          `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Recalculate recomputes line amounts, the items total and the grand total.
func (o *Order) Recalculate() error {
	amounts := make([]int64, len(o.Items))
	for i := range o.Items {
		a, err := o.Items[i].Line.Amount()
		if err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
		o.Items[i].Amount = a
		amounts[i] = a
	}
	itemsTotal, err := pricing.Total(amounts...)
	if err != nil {
		return err
	}
	grand, err := pricing.GrandTotal(itemsTotal, o.Costs)
	if err != nil {
		return err
	}
	o.ItemsTotal, o.GrandTotal = itemsTotal, grand
	return nil
}
