package api

import (
	"strconv"
	"time"

	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/orders"
	"github.com/Spok95/cpq/internal/domain/products"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
	"github.com/Spok95/cpq/internal/table"
)

func text[T any](key, title string, v func(T) string) table.Column[T] {
	return table.Column[T]{Key: key, Title: title, Value: v, Searchable: true, Sortable: true}
}

func number[T any](key, title string, v func(T) float64) table.Column[T] {
	return table.Column[T]{
		Key:      key,
		Title:    title,
		Value:    func(r T) string { return table.FormatNumber(v(r)) },
		Number:   func(r T) (float64, bool) { return v(r), true },
		Sortable: true,
	}
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func idCell(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

var customerTable = table.New(
	number("id", "ID", func(c customers.Customer) float64 { return float64(c.ID) }),
	text("name", "Name", func(c customers.Customer) string { return c.Name }),
	text("email", "Email", func(c customers.Customer) string { return c.Email }),
	text("phone", "Phone", func(c customers.Customer) string { return c.Phone }),
	text("industry", "Industry", func(c customers.Customer) string { return c.Industry }),
	text("gstin", "GSTIN", func(c customers.Customer) string { return c.GSTIN }),
	text("city", "City", func(c customers.Customer) string { return c.Billing.City }),
	text("state", "State", func(c customers.Customer) string { return c.Billing.State }),
	table.Column[customers.Customer]{
		Key: "sales_rep", Title: "Sales rep",
		Value:    func(c customers.Customer) string { return idCell(c.SalesRepID) },
		Sortable: true,
	},
	table.Column[customers.Customer]{
		Key: "created", Title: "Created",
		Value:    func(c customers.Customer) string { return date(c.CreatedAt) },
		Sortable: true,
	},
)

var productTable = table.New(
	text("sku", "SKU", func(p products.Product) string { return p.SKU }),
	text("name", "Name", func(p products.Product) string { return p.Name }),
	text("category", "Category", func(p products.Product) string { return p.Category }),
	number("price", "Price per piece", func(p products.Product) float64 { return p.PricePerPiece }),
	number("gst", "GST %", func(p products.Product) float64 { return p.GST }),
	number("price_with_gst", "Price with GST", func(p products.Product) float64 { return p.PriceWithGST }),
	number("stock", "Stock", func(p products.Product) float64 { return float64(p.Stock) }),
	table.Column[products.Product]{
		Key: "active", Title: "Active",
		Value: func(p products.Product) string { return strconv.FormatBool(p.Active) },
	},
)

// quoteRow is a quote as listed, with the customer's name resolved.
type quoteRow struct {
	quotes.Quote
	CustomerName string `json:"customer_name"`
}

var quoteTable = table.New(
	text("reference", "Reference", func(q quoteRow) string { return q.Reference }),
	text("customer", "Customer", func(q quoteRow) string { return q.CustomerName }),
	text("status", "Status", func(q quoteRow) string { return string(q.Status) }),
	number("total", "Total", func(q quoteRow) float64 { return float64(q.Total) }),
	number("items", "Items", func(q quoteRow) float64 { return float64(len(q.Items)) }),
	number("pending", "Pending approvals", func(q quoteRow) float64 { return float64(len(q.Approvers.Pending)) }),
	table.Column[quoteRow]{
		Key: "created", Title: "Created",
		Value:    func(q quoteRow) string { return date(q.CreatedAt) },
		Sortable: true,
	},
)

type orderRow struct {
	orders.Order
	CustomerName string `json:"customer_name"`
}

var orderTable = table.New(
	text("reference", "Reference", func(o orderRow) string { return o.Reference }),
	text("customer", "Customer", func(o orderRow) string { return o.CustomerName }),
	text("license", "License no.", func(o orderRow) string { return o.License.Number }),
	text("liaison_status", "Liaison status", func(o orderRow) string { return o.License.LiaisonStatus }),
	number("items_total", "Items total", func(o orderRow) float64 { return float64(o.ItemsTotal) }),
	number("grand_total", "Grand total", func(o orderRow) float64 { return float64(o.GrandTotal) }),
	table.Column[orderRow]{
		Key: "delivery", Title: "Delivery",
		Value: func(o orderRow) string {
			if o.DeliveryDate == nil {
				return ""
			}
			return date(*o.DeliveryDate)
		},
		Sortable: true,
	},
)

var userTable = table.New(
	text("name", "Name", func(u users.User) string { return u.Name }),
	text("email", "Email", func(u users.User) string { return u.Email }),
	text("company", "Company", func(u users.User) string { return u.Company }),
	text("team", "Team", func(u users.User) string { return u.Team }),
	text("role", "Role", func(u users.User) string { return string(u.Role) }),
	table.Column[users.User]{
		Key: "approved", Title: "Approved",
		Value:    func(u users.User) string { return strconv.FormatBool(u.Approved) },
		Sortable: true,
	},
)

// itemRow keeps the position of a line so edits can address it.
type itemRow struct {
	Index int `json:"index"`
	quotes.Item
}

func editable(c table.Column[itemRow]) table.Column[itemRow] {
	c.Editable = true
	return c
}

var itemTable = table.New(
	number("index", "#", func(it itemRow) float64 { return float64(it.Index + 1) }),
	text("sku", "SKU", func(it itemRow) string { return it.SKU }),
	editable(text("description", "Description", func(it itemRow) string { return it.Description })),
	editable(number("qty", "Qty", func(it itemRow) float64 { return it.Qty })),
	editable(number("unit_price", "Unit price", func(it itemRow) float64 { return it.UnitPrice })),
	editable(number("tax_pct", "Tax %", func(it itemRow) float64 { return it.TaxPct })),
	editable(number("discount_pct", "Discount %", func(it itemRow) float64 { return it.DiscountPct })),
	number("amount", "Amount", func(it itemRow) float64 { return float64(it.Amount) }),
)
