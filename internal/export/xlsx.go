// Package export renders list views and quotes as files: Excel workbooks
// for tables, PDF for a single quote. It also reads product price lists
// back from Excel.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/cpq/internal/domain/products"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook writes headers and rows into a single sheet.
func Workbook(sheet string, headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	def := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet != "" && sheet != def {
		if err := f.SetSheetName(def, sheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
		def = sheet
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(def, "A1", &header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		vals := make([]any, len(r))
		for j, v := range r {
			vals[j] = v
		}
		if err := f.SetSheetRow(def, cell, &vals); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ProductColumns is the header of a product price list.
var ProductColumns = []string{"sku", "name", "category", "price_per_piece", "gst", "stock"}

// ReadProducts parses a price list. Columns are matched by header name, so
// their order does not matter; sku and name are required. Stock is the
// quantity received with this file.
func ReadProducts(r io.Reader) ([]products.Product, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no product rows")
	}

	idx := map[string]int{}
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, need := range []string{"sku", "name"} {
		if _, ok := idx[need]; !ok {
			return nil, fmt.Errorf("missing column %q", need)
		}
	}

	out := make([]products.Product, 0, len(rows)-1)
	for n, row := range rows[1:] {
		cell := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if cell("sku") == "" && cell("name") == "" {
			continue
		}
		p := products.Product{SKU: cell("sku"), Name: cell("name"), Category: cell("category")}
		if p.PricePerPiece, err = number(cell("price_per_piece")); err != nil {
			return nil, fmt.Errorf("row %d: price: %w", n+2, err)
		}
		if p.GST, err = number(cell("gst")); err != nil {
			return nil, fmt.Errorf("row %d: gst: %w", n+2, err)
		}
		stock, err := number(cell("stock"))
		if err != nil {
			return nil, fmt.Errorf("row %d: stock: %w", n+2, err)
		}
		p.Stock = int64(stock)
		out = append(out, p)
	}
	return out, nil
}

func number(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
