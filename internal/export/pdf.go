package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/table"
)

// QuotePDF lays out one quote on A4. The core Helvetica font is used, so
// text outside cp1252 is replaced.
func QuotePDF(q quotes.Quote, c customers.Customer, company string, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Quotation "+q.Reference, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(company))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Quotation %s dated %s", q.Reference, q.CreatedAt.Format("02 Jan 2006"))))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr("Status: "+string(q.Status)))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, tr(c.Name))
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	if addr := c.Billing.String(); addr != "" {
		pdf.MultiCell(0, 5, tr(addr), "", "L", false)
	}
	if c.GSTIN != "" {
		pdf.Cell(0, 5, tr("GSTIN: "+c.GSTIN))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	widths := []float64{70, 18, 25, 16, 16, 35}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Description", "Qty", "Unit price", "Disc %", "Tax %", "Amount"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range q.Items {
		cells := []string{
			clip(it.Description, 40),
			table.FormatNumber(it.Qty),
			table.FormatNumber(it.UnitPrice),
			table.FormatNumber(it.DiscountPct),
			table.FormatNumber(it.TaxPct),
			fmt.Sprint(it.Amount),
		}
		for i, v := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[5], 8, fmt.Sprint(q.Total), "1", 0, "R", false, 0, "")
	pdf.Ln(12)

	if q.Notes != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(q.Notes), "", "L", false)
		pdf.Ln(4)
	}
	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 5, "Generated "+now.Format(time.RFC3339))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quote pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
