package quotes

import (
	"time"

	"github.com/Spok95/cpq/internal/domain/pricing"
)

type Status string

const (
	StatusDrafted         Status = "Drafted"
	StatusPendingApproval Status = "Pending Approval"
	StatusApproved        Status = "Approved"
	StatusDeclined        Status = "Declined"
	StatusOrderPlaced     Status = "Order placed"
)

var Statuses = []Status{StatusDrafted, StatusPendingApproval, StatusApproved, StatusDeclined, StatusOrderPlaced}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Item is one quote line. Amount is derived from the embedded Line.
type Item struct {
	ProductID   int64  `json:"product_id"`
	SKU         string `json:"sku,omitempty"`
	Description string `json:"description"`
	pricing.Line
	Amount int64 `json:"amount"`
}

// Approvers tracks who still has to approve and who already did.
type Approvers struct {
	Pending  []int64 `json:"pending"`
	Approved []int64 `json:"approved"`
}

type Quote struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	CustomerID    int64     `json:"customer_id"`
	Items         []Item    `json:"items"`
	Status        Status    `json:"status"`
	Approvers     Approvers `json:"approvers"`
	Total         int64     `json:"total"`
	Notes         string    `json:"notes"`
	DeclineReason string    `json:"decline_reason,omitempty"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
