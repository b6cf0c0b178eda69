package quotes

import (
	"errors"
	"regexp"
	"slices"
	"testing"
	"time"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/domain/pricing"
)

func draft() *Quote {
	q := &Quote{
		Reference:  "Q-1",
		CustomerID: 1,
		Status:     StatusDrafted,
		Items: []Item{
			{ProductID: 1, Line: pricing.Line{Qty: 1, UnitPrice: 100}},
			{ProductID: 2, Line: pricing.Line{Qty: 2, UnitPrice: 100, DiscountPct: 10, TaxPct: 18}},
		},
	}
	if err := q.Recalculate(); err != nil {
		panic(err)
	}
	return q
}

func TestRecalculate(t *testing.T) {
	q := draft()
	if q.Items[0].Amount != 100 || q.Items[1].Amount != 212 {
		t.Fatalf("amounts %d %d", q.Items[0].Amount, q.Items[1].Amount)
	}
	if q.Total != 312 {
		t.Fatalf("total %d", q.Total)
	}
}

func TestOversizedLineIsRejected(t *testing.T) {
	q := draft()
	q.Items = append(q.Items, Item{Line: pricing.Line{Qty: 1e10, UnitPrice: 1e10}})
	if err := q.Recalculate(); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("recalculate: expected invalid, got %v", err)
	}

	q = draft()
	huge := 1e10
	if err := q.UpdateItem(0, ItemPatch{Qty: &huge, UnitPrice: &huge}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("update: expected invalid, got %v", err)
	}
	if q.Items[0].Qty != 1 || q.Total != 312 {
		t.Fatalf("rejected patch changed the quote: qty=%v total=%d", q.Items[0].Qty, q.Total)
	}
}

func TestUpdateItemRecomputesRowAndTotal(t *testing.T) {
	q := draft()
	qty := 3.0
	if err := q.UpdateItem(0, ItemPatch{Qty: &qty}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if q.Items[0].Amount != 300 || q.Items[1].Amount != 212 || q.Total != 512 {
		t.Fatalf("after update: %+v total=%d", q.Items, q.Total)
	}

	bad := 150.0
	if err := q.UpdateItem(1, ItemPatch{DiscountPct: &bad}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected invalid discount, got %v", err)
	}
	if q.Items[1].DiscountPct != 10 {
		t.Fatalf("rejected patch must not be applied")
	}
	if err := q.UpdateItem(5, ItemPatch{Qty: &qty}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected out of range, got %v", err)
	}

	q.Status = StatusApproved
	if err := q.UpdateItem(0, ItemPatch{Qty: &qty}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected locked items, got %v", err)
	}
}

func TestApprovalFlow(t *testing.T) {
	q := draft()
	if err := q.Submit([]int64{7, 5, 7}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if q.Status != StatusPendingApproval || !slices.Equal(q.Approvers.Pending, []int64{5, 7}) {
		t.Fatalf("after submit: %s %+v", q.Status, q.Approvers)
	}

	if err := q.Approve(9); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("stranger approve: %v", err)
	}
	if err := q.Approve(5); err != nil {
		t.Fatalf("approve 5: %v", err)
	}
	if q.Status != StatusPendingApproval {
		t.Fatalf("one approver left, status %s", q.Status)
	}
	if err := q.Approve(5); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("double approve: %v", err)
	}
	if err := q.Approve(7); err != nil {
		t.Fatalf("approve 7: %v", err)
	}
	if q.Status != StatusApproved || len(q.Approvers.Pending) != 0 || !slices.Equal(q.Approvers.Approved, []int64{5, 7}) {
		t.Fatalf("after approvals: %s %+v", q.Status, q.Approvers)
	}

	if err := q.MarkOrdered(); err != nil || q.Status != StatusOrderPlaced {
		t.Fatalf("mark ordered: %v %s", err, q.Status)
	}
	if q.Deletable() {
		t.Fatalf("ordered quote must not be deletable")
	}
}

func TestDeclineAndResubmit(t *testing.T) {
	q := draft()
	if err := q.Submit([]int64{1, 2}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := q.Decline(3, "no"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("stranger decline: %v", err)
	}
	if err := q.Decline(2, "  price too low "); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if q.Status != StatusDeclined || q.DeclineReason != "price too low" {
		t.Fatalf("after decline: %s %q", q.Status, q.DeclineReason)
	}
	if err := q.MarkOrdered(); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("declined quote ordered: %v", err)
	}
	if err := q.Submit([]int64{2}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if q.DeclineReason != "" || q.Status != StatusPendingApproval {
		t.Fatalf("resubmit state: %s %q", q.Status, q.DeclineReason)
	}
}

func TestSubmitValidation(t *testing.T) {
	q := draft()
	if err := q.Submit(nil); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("no approvers: %v", err)
	}
	empty := &Quote{Status: StatusDrafted}
	if err := empty.Submit([]int64{1}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("no items: %v", err)
	}
	q.Status = StatusApproved
	if err := q.Submit([]int64{1}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("approved resubmit: %v", err)
	}
}

func TestNewReference(t *testing.T) {
	ref := NewReference("Q", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	if !regexp.MustCompile(`^Q-20260304-[0-9A-F]{6}$`).MatchString(ref) {
		t.Fatalf("reference %q", ref)
	}
	if ref == NewReference("Q", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("references should differ")
	}
}
