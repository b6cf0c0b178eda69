package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/pricing"
	"github.com/Spok95/cpq/internal/domain/quotes"
)

func TestWorkbookRoundTrip(t *testing.T) {
	b, err := Workbook("Customers", []string{"Name", "City"}, [][]string{{"Acme", "Pune"}, {"Globex", "Delhi"}})
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Customers")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][0] != "Name" || rows[2][1] != "Delhi" {
		t.Fatalf("rows %v", rows)
	}
}

func TestReadProducts(t *testing.T) {
	b, err := Workbook("", []string{"Name", "SKU", "gst", "price_per_piece", "stock"}, [][]string{
		{"Radio", "RAD-1", "18", "1500,50", "4"},
		{"", "", "", "", ""},
		{"Antenna", "ANT-2", "", "200", ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	ps, err := ReadProducts(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 {
		t.Fatalf("got %d products", len(ps))
	}
	if ps[0].SKU != "RAD-1" || ps[0].PricePerPiece != 1500.5 || ps[0].GST != 18 || ps[0].Stock != 4 {
		t.Fatalf("first %+v", ps[0])
	}
	if ps[1].Stock != 0 || ps[1].GST != 0 {
		t.Fatalf("second %+v", ps[1])
	}
}

func TestReadProductsNeedsSKU(t *testing.T) {
	b, err := Workbook("", []string{"name"}, [][]string{{"Radio"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadProducts(bytes.NewReader(b)); err == nil || !strings.Contains(err.Error(), "sku") {
		t.Fatalf("want missing sku error, got %v", err)
	}
}

func TestQuotePDF(t *testing.T) {
	q := quotes.Quote{
		Reference: "Q-20260101-ABC123",
		Status:    quotes.StatusApproved,
		Items: []quotes.Item{
			{Description: "Radio set with a rather long description that gets clipped", Line: pricing.Line{Qty: 2, UnitPrice: 100, TaxPct: 18}, Amount: 236},
		},
		Total:     236,
		Notes:     "Delivery in 2 weeks",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	c := customers.Customer{Name: "Acme Café", GSTIN: "27AAAAA0000A1Z5", Billing: customers.Address{City: "Pune"}}

	b, err := QuotePDF(q, c, "Spok Radio", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("not a pdf: %q", b[:8])
	}
}
