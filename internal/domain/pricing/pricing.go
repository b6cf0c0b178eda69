// Package pricing holds the quote and order arithmetic.
//
// Line amounts are rounded to whole currency units, half away from zero.
// That matches what the sales UI has always shown and is kept on purpose;
// it is not currency-safe decimal rounding.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/cpq/internal/apperr"
)

var hundred = decimal.NewFromInt(100)

// whole rounds d to currency units and rejects results that do not fit
// an int64.
func whole(d decimal.Decimal, what string) (int64, error) {
	r := d.Round(0)
	if !r.BigInt().IsInt64() {
		return 0, apperr.Invalid("%s %s is out of range", what, r.String())
	}
	return r.IntPart(), nil
}

// Amount = round(qty * price * (1 - discount/100) * (1 + tax/100)).
func Amount(qty, price, discountPct, taxPct float64) (int64, error) {
	d := decimal.NewFromFloat(qty).
		Mul(decimal.NewFromFloat(price)).
		Mul(hundred.Sub(decimal.NewFromFloat(discountPct))).
		Mul(hundred.Add(decimal.NewFromFloat(taxPct))).
		Div(hundred).
		Div(hundred)
	return whole(d, "line amount")
}

// Line is the priced part of a quote or order item.
type Line struct {
	Qty         float64 `json:"qty"`
	UnitPrice   float64 `json:"unit_price"`
	TaxPct      float64 `json:"tax_pct"`
	DiscountPct float64 `json:"discount_pct"`
}

func (l Line) Amount() (int64, error) {
	return Amount(l.Qty, l.UnitPrice, l.DiscountPct, l.TaxPct)
}

// Total sums already computed line amounts.
func Total(amounts ...int64) (int64, error) {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(decimal.NewFromInt(a))
	}
	return whole(sum, "total")
}

// PriceWithGST is computed once when a product is saved and stored as is.
// The result is rounded to two decimals.
func PriceWithGST(pricePerPiece, gstPct float64) float64 {
	v := decimal.NewFromFloat(pricePerPiece).
		Mul(hundred.Add(decimal.NewFromFloat(gstPct))).
		Div(hundred).
		Round(2)
	f, _ := v.Float64()
	return f
}

type CostMode string

const (
	// CostInclusive is already part of the item prices and only shown.
	CostInclusive CostMode = "inclusive"
	// CostAdditional is added on top of the items total.
	CostAdditional CostMode = "additional"
)

func (m CostMode) Valid() bool {
	return m == CostInclusive || m == CostAdditional
}

// Cost is an order-level charge such as freight or insurance.
type Cost struct {
	Kind   string   `json:"kind"`
	Label  string   `json:"label,omitempty"`
	Amount float64  `json:"amount"`
	Mode   CostMode `json:"mode"`
}

// GrandTotal adds the additional costs, rounded like line amounts, to
// itemsTotal.
func GrandTotal(itemsTotal int64, costs []Cost) (int64, error) {
	sum := decimal.NewFromInt(itemsTotal)
	for _, c := range costs {
		if c.Mode == CostAdditional {
			sum = sum.Add(decimal.NewFromFloat(c.Amount))
		}
	}
	return whole(sum, "grand total")
}
