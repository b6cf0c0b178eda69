package quotes

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/domain/pricing"
)

// NewReference builds "<prefix>-YYYYMMDD-XXXXXX".
func NewReference(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}

// Recalculate recomputes every line amount and the total.
func (q *Quote) Recalculate() error {
	amounts := make([]int64, len(q.Items))
	for i := range q.Items {
		a, err := q.Items[i].Line.Amount()
		if err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
		q.Items[i].Amount = a
		amounts[i] = a
	}
	total, err := pricing.Total(amounts...)
	if err != nil {
		return err
	}
	q.Total = total
	return nil
}

// ItemPatch carries the editable cells of a line; nil fields stay as they are.
type ItemPatch struct {
	Description *string  `json:"description"`
	Qty         *float64 `json:"qty"`
	UnitPrice   *float64 `json:"unit_price"`
	TaxPct      *float64 `json:"tax_pct"`
	DiscountPct *float64 `json:"discount_pct"`
}

// UpdateItem edits one line of a drafted quote, recomputes that line only
// and then the total.
func (q *Quote) UpdateItem(i int, p ItemPatch) error {
	if q.Status != StatusDrafted {
		return apperr.Conflict("quote %s is %s, items are locked", q.Reference, q.Status)
	}
	if i < 0 || i >= len(q.Items) {
		return apperr.Invalid("item index %d out of range", i)
	}
	it := q.Items[i]
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Qty != nil {
		it.Qty = *p.Qty
	}
	if p.UnitPrice != nil {
		it.UnitPrice = *p.UnitPrice
	}
	if p.TaxPct != nil {
		it.TaxPct = *p.TaxPct
	}
	if p.DiscountPct != nil {
		it.DiscountPct = *p.DiscountPct
	}
	if err := ValidateItem(it); err != nil {
		return err
	}
	amount, err := it.Line.Amount()
	if err != nil {
		return fmt.Errorf("item %d: %w", i+1, err)
	}
	it.Amount = amount

	amounts := make([]int64, len(q.Items))
	for j := range q.Items {
		amounts[j] = q.Items[j].Amount
	}
	amounts[i] = amount
	total, err := pricing.Total(amounts...)
	if err != nil {
		return err
	}
	q.Items[i] = it
	q.Total = total
	return nil
}

func ValidateItem(it Item) error {
	switch {
	case it.Qty < 0:
		return apperr.Invalid("qty must be >= 0")
	case it.UnitPrice < 0:
		return apperr.Invalid("unit price must be >= 0")
	case it.DiscountPct < 0 || it.DiscountPct > 100:
		return apperr.Invalid("discount must be within 0..100")
	case it.TaxPct < 0:
		return apperr.Invalid("tax must be >= 0")
	}
	return nil
}

// Validate checks the fields a user can edit.
func (q *Quote) Validate() error {
	if q.CustomerID <= 0 {
		return apperr.Invalid("customer is required")
	}
	for i, it := range q.Items {
		if err := ValidateItem(it); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	return nil
}

// Submit sends a drafted (or declined) quote for approval.
func (q *Quote) Submit(approvers []int64) error {
	if q.Status != StatusDrafted && q.Status != StatusDeclined {
		return apperr.Conflict("quote %s is %s", q.Reference, q.Status)
	}
	if len(q.Items) == 0 {
		return apperr.Invalid("quote has no items")
	}
	pending := slices.Clone(approvers)
	slices.Sort(pending)
	pending = slices.Compact(pending)
	if len(pending) == 0 {
		return apperr.Invalid("at least one approver is required")
	}
	q.Approvers = Approvers{Pending: pending, Approved: []int64{}}
	q.DeclineReason = ""
	q.Status = StatusPendingApproval
	return nil
}

// Approve moves userID from pending to approved. The quote is approved
// once nobody is pending.
func (q *Quote) Approve(userID int64) error {
	if q.Status != StatusPendingApproval {
		return apperr.Conflict("quote %s is %s", q.Reference, q.Status)
	}
	i := slices.Index(q.Approvers.Pending, userID)
	if i < 0 {
		if slices.Contains(q.Approvers.Approved, userID) {
			return apperr.Conflict("user %d already approved quote %s", userID, q.Reference)
		}
		return apperr.Forbidden("user %d is not an approver of quote %s", userID, q.Reference)
	}
	q.Approvers.Pending = slices.Delete(q.Approvers.Pending, i, i+1)
	q.Approvers.Approved = append(q.Approvers.Approved, userID)
	if len(q.Approvers.Pending) == 0 {
		q.Status = StatusApproved
	}
	return nil
}

// Decline by any pending approver declines the whole quote.
func (q *Quote) Decline(userID int64, reason string) error {
	if q.Status != StatusPendingApproval {
		return apperr.Conflict("quote %s is %s", q.Reference, q.Status)
	}
	if !slices.Contains(q.Approvers.Pending, userID) {
		return apperr.Forbidden("user %d cannot decline quote %s", userID, q.Reference)
	}
	q.Status = StatusDeclined
	q.DeclineReason = strings.TrimSpace(reason)
	return nil
}

func (q *Quote) MarkOrdered() error {
	if q.Status != StatusApproved {
		return apperr.Conflict("only approved quotes can be ordered, %s is %s", q.Reference, q.Status)
	}
	q.Status = StatusOrderPlaced
	return nil
}

// Editable reports whether items and notes may still change.
func (q *Quote) Editable() bool { return q.Status == StatusDrafted }

// Deletable: quotes that became orders are kept.
func (q *Quote) Deletable() bool { return q.Status != StatusOrderPlaced }
